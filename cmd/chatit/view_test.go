package main

import (
	"bytes"
	"chatit/codec"
	"chatit/domain"
	"errors"
	"strings"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
)

func TestTerminalView_PrintsDecodedMessages(t *testing.T) {
	req := require.New(t)
	color.Enable = false
	defer func() { color.Enable = true }()
	var out bytes.Buffer
	view := newTerminalView(&out)

	view.OnHistoryLoaded([]domain.Message{
		{ID: "01HXBOB", Sender: "bob", Content: codec.Encode("hello"), Kind: domain.KindText, SentAt: 1000},
	})
	view.OnMessageInserted(1, domain.Message{Sender: "carol", Content: "not base64!", Kind: domain.KindText, SentAt: 2000})
	view.OnError(errors.New("unavailable"))

	printed := out.String()
	req.Contains(printed, "hello")
	req.Contains(printed, "01HXBOB")
	req.Contains(printed, "carol: not base64!")
	req.True(strings.HasSuffix(printed, "unavailable\n"))
}

func TestUsage_ListsEveryCommand(t *testing.T) {
	var out bytes.Buffer
	usage(&out)
	for name := range commands {
		require.Contains(t, out.String(), name)
	}
}

func TestConversationArg(t *testing.T) {
	req := require.New(t)

	id, err := conversationArg([]string{"123456"})
	req.NoError(err)
	req.Equal(domain.ConversationID(123456), id)

	_, err = conversationArg(nil)
	req.ErrorIs(err, errUsage)
	_, err = conversationArg([]string{"school"})
	req.ErrorIs(err, errUsage)
}
