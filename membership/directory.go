package membership

import (
	"chatit/contract"
	"chatit/domain"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// prefixUpperBound closes a prefix range on string fields.
const prefixUpperBound = "\uf8ff"

// Directory reads and deletes identity records.
type Directory struct {
	log   *slog.Logger
	store contract.IStore
}

func NewDirectory(log *slog.Logger, store contract.IStore) *Directory {
	return &Directory{log: log, store: store}
}

func (d *Directory) GetUser(ctx context.Context, username string) (domain.User, error) {
	doc, err := d.store.Get(ctx, domain.UserPath(username))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return domain.ParseUser(doc)
}

// GetMember returns the fields of a user copied into member lists.
func (d *Directory) GetMember(ctx context.Context, username string) (domain.Member, error) {
	user, err := d.GetUser(ctx, username)
	if err != nil {
		return domain.Member{}, err
	}
	return user.Member(), nil
}

// UpdateBiography rewrites the biography field only. The text is trimmed.
func (d *Directory) UpdateBiography(ctx context.Context, username, biography string) error {
	fields := map[string]any{domain.FieldBiography: strings.TrimSpace(biography)}
	if err := d.store.Update(ctx, domain.UserPath(username), fields); err != nil {
		return fmt.Errorf("update biography of %s: %w", username, err)
	}
	return nil
}

// Search returns users whose username starts with prefix, ordered by username.
func (d *Directory) Search(ctx context.Context, prefix string, exclude []string) ([]domain.User, error) {
	query := domain.Query{Collection: domain.UsersCollection, OrderBy: domain.FieldUsername}.
		Where(domain.FieldUsername, domain.OpGreaterOrEqual, prefix).
		Where(domain.FieldUsername, domain.OpLessOrEqual, prefix+prefixUpperBound)
	docs, err := d.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search users %q: %w", prefix, err)
	}
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		user, err := domain.ParseUser(doc)
		if err != nil {
			d.log.Debug("Malformed user dropped", "document", doc.ID, "error", err)
			continue
		}
		if slices.Contains(exclude, user.Username) {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// DeleteUser removes the identity record and every conversation it owns,
// messages included. It returns the number of conversations deleted.
// Conversations where the user is only a member keep their stale entry.
func (d *Directory) DeleteUser(ctx context.Context, username string) (int, error) {
	docs, err := d.store.Query(ctx, domain.Query{Collection: domain.ConversationsCollection})
	if err != nil {
		return 0, fmt.Errorf("list conversations: %w", err)
	}
	owned := lo.Filter(docs, func(doc domain.Document, _ int) bool {
		owner, _ := domain.StringField(doc.Fields, domain.FieldOwner)
		return owner == username
	})
	for _, doc := range owned {
		if err = d.deleteConversation(ctx, doc.Path); err != nil {
			return 0, err
		}
	}
	if err = d.store.Delete(ctx, domain.UserPath(username)); err != nil {
		return len(owned), fmt.Errorf("delete user %s: %w", username, err)
	}
	d.log.Info("User deleted", "username", username, "conversations", len(owned))
	return len(owned), nil
}

func (d *Directory) deleteConversation(ctx context.Context, path string) error {
	messages, err := d.store.Query(ctx, domain.Query{Collection: path + "/messages"})
	if err != nil {
		return fmt.Errorf("list messages of %s: %w", path, err)
	}
	for _, msg := range messages {
		if err = d.store.Delete(ctx, msg.Path); err != nil {
			return fmt.Errorf("delete %s: %w", msg.Path, err)
		}
	}
	if err = d.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
