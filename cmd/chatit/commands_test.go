package main

import (
	"chatit/domain"
	"chatit/internal"
	"chatit/projection"
	"chatit/store"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, in io.Reader) *app {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	config := internal.Config{BufferSize: 8, SinkTimeout: time.Second, RestartInterval: 10 * time.Millisecond}
	a := newApp(logs.GetLoggerFromLevel(slog.LevelDebug), config, db, in, io.Discard)
	t.Cleanup(a.close)
	return a
}

func storedMessages(t *testing.T, a *app, id domain.ConversationID) []domain.Message {
	docs, err := a.store.Query(context.Background(), domain.MessagesQuery(id))
	require.NoError(t, err)
	messages := make([]domain.Message, 0, len(docs))
	for _, doc := range docs {
		m, ok := domain.ParseMessageDocument(doc)
		require.True(t, ok)
		messages = append(messages, m)
	}
	return messages
}

func TestChat_SendsEveryTypedLineInOneProcess(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given alice signed in, owning a group, typing two lines and a blank one
	a := newTestApp(t, strings.NewReader("hello\n   \nsecond line\n"))
	req.NoError(login(ctx, a, []string{"alice"}))
	conv, err := a.membership.Create(ctx, domain.NewConversationRequest{Owner: "alice", Name: "school"})
	req.NoError(err)

	// When the chat runs until the input is exhausted
	done := make(chan error, 1)
	go func() { done <- chat(ctx, a, []string{strconv.Itoa(int(conv.ID))}) }()
	select {
	case err = <-done:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		req.Fail("chat did not return at end of input")
	}

	// Then both lines were stored as alice's messages, the blank one skipped
	messages := storedMessages(t, a, conv.ID)
	req.Len(messages, 2)
	for _, m := range messages {
		req.Equal("alice", m.Sender)
	}

	// And every live subscription was released
	req.Equal(0, a.store.ActiveSubscriptions())
}

func TestSendLines_StopsWithContext(t *testing.T) {
	req := require.New(t)
	s := store.NewMemoryStore(slog.Default())
	stream, err := projection.NewConversationStream(slog.Default(), s, newTerminalView(io.Discard), "alice", 7)
	req.NoError(err)

	// Given an input that never produces a line
	in, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sendLines(ctx, stream, in) }()
	cancel()

	select {
	case err = <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("sendLines did not stop")
	}
}

func TestDeleteMessage_RemovesTheStoredMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	a := newTestApp(t, strings.NewReader(""))
	req.NoError(login(ctx, a, []string{"alice"}))
	conv, err := a.membership.Create(ctx, domain.NewConversationRequest{Owner: "alice", Name: "school"})
	req.NoError(err)
	id := strconv.Itoa(int(conv.ID))

	// Given one message sent
	req.NoError(send(ctx, a, []string{id, "oops"}))
	messages := storedMessages(t, a, conv.ID)
	req.Len(messages, 1)

	// When it is deleted by id
	req.NoError(deleteMessage(ctx, a, []string{id, messages[0].ID}))

	// Then the conversation is empty again
	req.Empty(storedMessages(t, a, conv.ID))
	req.ErrorIs(deleteMessage(ctx, a, []string{id}), errUsage)
}

func TestBio_UpdatesTheSessionIdentity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	a := newTestApp(t, strings.NewReader(""))
	req.NoError(login(ctx, a, []string{"alice", "alice@chat.it"}))

	req.NoError(bio(ctx, a, []string{"likes", "trains"}))

	user, err := a.membership.Directory().GetUser(ctx, "alice")
	req.NoError(err)
	req.Equal("likes trains", user.Biography)
	req.Equal("alice@chat.it", user.Email)
	req.ErrorIs(bio(ctx, a, nil), errUsage)
}
