package repositories

import (
	"chatit/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	req := require.New(t)
	session := NewSessionRepository(openDB(t))

	// Given nobody signed in
	_, err := session.CurrentUsername()
	req.ErrorIs(err, errors.ErrNoSession)

	// When alice signs in
	req.NoError(session.SaveUsername("alice"))

	// Then she is the current identity
	username, err := session.CurrentUsername()
	req.NoError(err)
	req.Equal("alice", username)

	// And signing out clears it, twice is fine
	req.NoError(session.Clear())
	req.NoError(session.Clear())
	_, err = session.CurrentUsername()
	req.ErrorIs(err, errors.ErrNoSession)

	// And an empty username is refused
	req.ErrorIs(session.SaveUsername(""), errors.ErrNoSession)
}
