package sink_test

import (
	"bytes"
	"chatit/domain"
	"chatit/domain/event"
	"chatit/mocks"
	"chatit/repositories"
	"chatit/sink"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type otherEvent struct{}

func (otherEvent) ConversationID() domain.ConversationID { return 0 }

func messageAlert() event.MessageAlert {
	return event.MessageAlert{ID: uuid.New(), Conversation: 7, Name: "school", Sender: "bob", Content: "hello", SentAt: 6000}
}

func TestNotifierSink_Consume(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	notifier := mocks.NewMockNotifier(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	alert := messageAlert()

	// Then the notification carries the conversation name and a fresh handle
	notifier.EXPECT().Notify(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, n domain.Notification) error {
			req.Equal(alert.ID, n.ID)
			req.Equal("Message sent in: school", n.Title())
			req.Equal("bob: hello", n.Body())
			return nil
		}).Times(1)

	s := sink.NewNotifierSink(notifier, logger)

	// When an alert and an unrelated event are consumed
	req.NoError(s.Consume(ctx, alert))
	req.NoError(s.Consume(ctx, otherEvent{}))
}

func TestAlertLogSink_Consume(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repository := mocks.NewMockIAlertRepository(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	alert := messageAlert()

	repository.EXPECT().StoreAlert(repositories.StoredAlert{
		ID:           alert.ID,
		Conversation: 7,
		Name:         "school",
		Sender:       "bob",
		Content:      "hello",
		SentAt:       6000,
	}).Return(nil).Times(1)

	s := sink.NewAlertLogSink(repository, logger)
	req.NoError(s.Consume(context.Background(), alert))
	req.NoError(s.Consume(context.Background(), otherEvent{}))
}

func TestTerminalNotifier_Notify(t *testing.T) {
	req := require.New(t)
	color.Enable = false
	defer func() { color.Enable = true }()
	var out bytes.Buffer

	notifier := sink.NewTerminalNotifier(&out)
	req.NoError(notifier.Notify(context.Background(), messageAlert().Notification()))

	req.Contains(out.String(), "Message sent in: school")
	req.Contains(out.String(), "bob: hello")
}

func TestTerminalNotifier_CanceledContext(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.NewTerminalNotifier(&out).Notify(ctx, messageAlert().Notification())

	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, out.String())
}

func TestLogSink_Consume(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	require.NoError(t, sink.NewLogSink(logger).Consume(context.Background(), messageAlert()))
	require.Contains(t, out.String(), "sender=bob")
}
