package membership

import (
	"chatit/domain"
	"chatit/errors"
	"chatit/mocks"
	"chatit/store"
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func seedUsers(t *testing.T, s *store.DocumentStore, usernames ...string) {
	for _, username := range usernames {
		user := domain.User{Username: username, Email: username + "@chat.it", Password: "pw-" + username}
		require.NoError(t, s.Set(context.Background(), domain.UserPath(username), user.Fields()))
	}
}

func seedConversation(t *testing.T, s *store.DocumentStore, id domain.ConversationID, owner string, usernames ...string) domain.Conversation {
	conv := domain.Conversation{ID: id, Name: "school", Owner: owner}
	for _, username := range usernames {
		conv.Members = append(conv.Members, domain.Member{Username: username, Email: username + "@chat.it"})
	}
	require.NoError(t, s.Set(context.Background(), domain.ConversationPath(id), conv.Fields()))
	return conv
}

func TestMutator_ConcurrentKicksFromSameSnapshotLoseOneUpdate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := store.NewMemoryStore(slog.Default())
	mutator := NewMutator(logs.GetLoggerFromLevel(slog.LevelDebug), s)
	seedConversation(t, s, 123456, "A", "A", "B", "C")

	// Given two editors holding the same snapshot [A,B,C]
	snapshot, err := mutator.Load(ctx, 123456)
	req.NoError(err)

	// When one removes B and the other removes C at the same time
	targets := []string{"B", "C"}
	errs := make(chan error, len(targets))
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mutator.Kick(ctx, snapshot, target)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then the last write wins: one removal is lost, never both applied
	final, err := mutator.Load(ctx, 123456)
	req.NoError(err)
	usernames := final.Usernames()
	req.Len(usernames, 2)
	req.Contains([][]string{{"A", "C"}, {"A", "B"}}, usernames)
	req.NotEqual([]string{"A"}, usernames)
}

func TestMutator_LeaveRemovesEveryEntryOfTheUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := store.NewMemoryStore(slog.Default())
	mutator := NewMutator(slog.Default(), s)
	conv := seedConversation(t, s, 123456, "A", "A", "B", "B", "C")

	updated, err := mutator.Leave(ctx, conv, "B")
	req.NoError(err)
	req.Equal([]string{"A", "C"}, updated.Usernames())

	stored, err := mutator.Load(ctx, 123456)
	req.NoError(err)
	req.Equal([]string{"A", "C"}, stored.Usernames())
	req.Equal("school", stored.Name)
}

func TestMutator_OwnerCanLeaveWithoutTransfer(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := store.NewMemoryStore(slog.Default())
	mutator := NewMutator(slog.Default(), s)
	conv := seedConversation(t, s, 123456, "A", "A", "B")

	updated, err := mutator.Leave(ctx, conv, "A")
	req.NoError(err)
	req.Equal([]string{"B"}, updated.Usernames())
	req.Equal("A", updated.Owner)
}

func TestMutator_AddCopiesUserFields(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := store.NewMemoryStore(slog.Default())
	mutator := NewMutator(slog.Default(), s)
	seedUsers(t, s, "D", "E")
	conv := seedConversation(t, s, 123456, "A", "A")

	// When D, E, an unknown user and an existing member are added
	updated, err := mutator.Add(ctx, conv, []string{"D", "ghost", "A", "E", "D"})

	// Then the unknown user is skipped and the others are appended in order
	req.NoError(err)
	req.Equal([]string{"A", "D", "E"}, updated.Usernames())
	stored, err := mutator.Load(ctx, 123456)
	req.NoError(err)
	req.Equal(domain.Member{Username: "D", Email: "D@chat.it", Password: "pw-D"}, stored.Members[1])
}

func TestMutator_AddNothing(t *testing.T) {
	req := require.New(t)
	s := store.NewMemoryStore(slog.Default())
	mutator := NewMutator(slog.Default(), s)
	conv := seedConversation(t, s, 123456, "A", "A")

	_, err := mutator.Add(context.Background(), conv, []string{"A", ""})
	req.ErrorIs(err, errors.ErrNothingToAdd)
}

func TestMutator_AddReadsSequentiallyThenWritesOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	storeMock := mocks.NewMockIStore(ctrl)
	mutator := NewMutator(slog.Default(), storeMock)
	conv := domain.Conversation{ID: 123456, Owner: "A", Members: []domain.Member{{Username: "A"}}}

	// Given D cannot be read and E can
	gomock.InOrder(
		storeMock.EXPECT().Get(ctx, domain.UserPath("D")).Return(domain.Document{}, stdErrors.New("timeout")),
		storeMock.EXPECT().Get(ctx, domain.UserPath("E")).Return(domain.Document{
			Path: domain.UserPath("E"), ID: "E",
			Fields: map[string]any{"username": "E", "email": "e@chat.it", "password": "x"},
		}, nil),
		// Then a single update carries A and E
		storeMock.EXPECT().Update(ctx, domain.ConversationPath(123456), map[string]any{
			domain.FieldMembers: domain.MembersField([]domain.Member{{Username: "A"}, {Username: "E", Email: "e@chat.it", Password: "x"}}),
		}).Return(nil),
	)

	updated, err := mutator.Add(ctx, conv, []string{"D", "E"})
	req.NoError(err)
	req.Equal([]string{"A", "E"}, updated.Usernames())
}

func TestMutator_WriteFailureKeepsSnapshot(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	storeMock := mocks.NewMockIStore(ctrl)
	mutator := NewMutator(slog.Default(), storeMock)
	conv := domain.Conversation{ID: 123456, Owner: "A", Members: []domain.Member{{Username: "A"}, {Username: "B"}}}
	boom := stdErrors.New("unavailable")

	storeMock.EXPECT().Update(ctx, domain.ConversationPath(123456), gomock.Any()).Return(boom)

	unchanged, err := mutator.Kick(ctx, conv, "B")
	req.ErrorIs(err, boom)
	req.Equal([]string{"A", "B"}, unchanged.Usernames())
}
