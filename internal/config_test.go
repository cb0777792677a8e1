package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("BADGER_FILEPATH", t.TempDir())

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal("INFO", config.LogLevel)
	req.Equal(64, config.BufferSize)
	req.Equal(2*time.Second, config.SinkTimeout)
	req.Equal(200*time.Millisecond, config.RestartInterval)
	req.Nil(config.LimitAlerts)
}
