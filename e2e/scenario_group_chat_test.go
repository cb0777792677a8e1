package e2e

import (
	"chatit/domain"
	"chatit/domain/event"
	"chatit/membership"
	"chatit/projection"
	"chatit/repositories"
	"chatit/runtime"
	"chatit/runtime/workers"
	"chatit/sink"
	"chatit/store"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// channelNotifier hands notifications over to the scenario.
type channelNotifier chan domain.Notification

func (c channelNotifier) Notify(ctx context.Context, n domain.Notification) error {
	select {
	case c <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// silentView ignores the timeline callbacks, the scenario reads the stream directly.
type silentView struct{}

func (silentView) OnHistoryLoaded([]domain.Message) {}

func (silentView) OnMessageInserted(int, domain.Message) {}

func (silentView) ScrollTo(int) {}

func (silentView) OnError(error) {}

type GroupChatSuite struct {
	BaseSuite
}

func TestGroupChatSuite(t *testing.T) {
	suite.Run(t, new(GroupChatSuite))
}

func (s *GroupChatSuite) TestScenario_AlertsFollowTheConversation() {
	req := s.Require()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	documents := store.NewBadgerStore(s.DB, s.Log)
	defer documents.Close()
	service := membership.NewService(s.Log, documents)
	session := repositories.NewSessionRepository(s.DB)
	alertLog := repositories.NewAlertRepository(s.DB, s.Log, nil)
	notifications := make(channelNotifier, 8)
	var conv domain.Conversation

	s.Step("Register alice, bob and carol", func() {
		for _, username := range []string{"alice", "bob", "carol"} {
			user := domain.User{Username: username, Email: username + "@chat.it"}
			req.NoError(documents.Set(ctx, domain.UserPath(username), user.Fields()))
		}
		req.NoError(session.SaveUsername("alice"))
	})

	s.Step("alice creates a group with bob and carol", func() {
		var err error
		conv, err = service.Create(ctx, domain.NewConversationRequest{
			Owner:   "alice",
			Name:    "school",
			Members: []string{"bob", "carol"},
		})
		req.NoError(err)
		req.Equal([]string{"bob", "carol", "alice"}, conv.Usernames())
	})

	s.Step("alice starts listening in the background", func() {
		events := make(chan event.DomainEvent, 8)
		engine := runtime.NewNotificationEngine(s.Log, documents, runtime.NewRegistry(), session, events)
		fanout := workers.NewEventFanout(s.Log, events, time.Second,
			sink.NewNotifierSink(notifications, s.Log),
			sink.NewAlertLogSink(alertLog, s.Log),
			sink.NewLogSink(s.Log),
		)
		go workers.NewSupervisor(s.Log).Add(engine, fanout).Run(ctx)
		req.Eventually(func() bool { return documents.ActiveSubscriptions() == 1 }, s.Config.Timeout, 10*time.Millisecond)
		// Messages must be stamped after the startup cutoff
		time.Sleep(5 * time.Millisecond)
	})

	var bob *projection.ConversationStream
	s.Step("bob opens the group and says hi", func() {
		var err error
		bob, err = projection.NewConversationStream(s.Log, documents, silentView{}, "bob", conv.ID)
		req.NoError(err)
		req.NoError(bob.Open(ctx))
		_, err = bob.Send(ctx, "hi")
		req.NoError(err)

		select {
		case n := <-notifications:
			req.Equal("Message sent in: school", n.Title())
			req.Equal("bob: hi", n.Body())
		case <-time.After(s.Config.Timeout):
			req.Fail("alice was not notified")
		}
		req.Eventually(func() bool { return len(bob.Messages()) == 1 }, s.Config.Timeout, 10*time.Millisecond)
	})

	s.Step("alice answers without alerting herself", func() {
		alice, err := projection.NewConversationStream(s.Log, documents, silentView{}, "alice", conv.ID)
		req.NoError(err)
		defer alice.Close()
		_, err = alice.Send(ctx, "hello bob")
		req.NoError(err)

		req.Eventually(func() bool { return len(bob.Messages()) == 2 }, s.Config.Timeout, 10*time.Millisecond)
		select {
		case n := <-notifications:
			req.Failf("unexpected notification", "%+v", n)
		case <-time.After(100 * time.Millisecond):
		}
	})

	s.Step("alice kicks carol and the alert log holds bob's message", func() {
		updated, err := service.Kick(ctx, conv.ID, "alice", "carol")
		req.NoError(err)
		req.Equal([]string{"bob", "alice"}, updated.Usernames())

		stored, _, err := alertLog.GetAlerts(conv.ID, nil)
		req.NoError(err)
		req.Len(stored, 1)
		req.Equal("hi", stored[0].Content)
		req.NoError(bob.Close())
	})

}
