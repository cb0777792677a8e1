// Package membership edits the member list embedded in conversation documents
// and the identity directory it is built from.
//
// The member list is read from a caller snapshot and written back whole, with
// no transaction: two concurrent edits computed from the same snapshot race and
// the last write wins.
package membership

import (
	"chatit/contract"
	"chatit/domain"
	"chatit/errors"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

type Mutator struct {
	log       *slog.Logger
	store     contract.IStore
	directory *Directory
}

func NewMutator(log *slog.Logger, store contract.IStore) *Mutator {
	return &Mutator{log: log, store: store, directory: NewDirectory(log, store)}
}

// Load reads the current snapshot of a conversation.
func (m *Mutator) Load(ctx context.Context, id domain.ConversationID) (domain.Conversation, error) {
	doc, err := m.store.Get(ctx, domain.ConversationPath(id))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("load conversation %d: %w", id, err)
	}
	return domain.ParseConversation(doc)
}

// Leave removes username from the snapshot and writes the list back.
func (m *Mutator) Leave(ctx context.Context, conv domain.Conversation, username string) (domain.Conversation, error) {
	return m.remove(ctx, conv, username)
}

// Kick is Leave applied to someone else. Authorization is checked by the caller.
func (m *Mutator) Kick(ctx context.Context, conv domain.Conversation, username string) (domain.Conversation, error) {
	return m.remove(ctx, conv, username)
}

func (m *Mutator) remove(ctx context.Context, conv domain.Conversation, username string) (domain.Conversation, error) {
	members := lo.Filter(conv.Members, func(member domain.Member, _ int) bool {
		return member.Username != username
	})
	return m.write(ctx, conv, members)
}

// Add reads every user one after the other, skips the ones that cannot be read
// and writes the extended list once all reads are done.
func (m *Mutator) Add(ctx context.Context, conv domain.Conversation, usernames []string) (domain.Conversation, error) {
	candidates := lo.Filter(lo.Uniq(usernames), func(username string, _ int) bool {
		return username != "" && !conv.HasMember(username)
	})
	if len(candidates) == 0 {
		return conv, errors.ErrNothingToAdd
	}

	members := slices.Clone(conv.Members)
	for _, username := range candidates {
		member, err := m.directory.GetMember(ctx, username)
		if err != nil {
			m.log.Warn("User skipped", "conversation", conv.ID, "username", username, "error", err)
			continue
		}
		members = append(members, member)
	}
	return m.write(ctx, conv, members)
}

func (m *Mutator) write(ctx context.Context, conv domain.Conversation, members []domain.Member) (domain.Conversation, error) {
	err := m.store.Update(ctx, domain.ConversationPath(conv.ID), map[string]any{
		domain.FieldMembers: domain.MembersField(members),
	})
	if err != nil {
		return conv, fmt.Errorf("write members of conversation %d: %w", conv.ID, err)
	}
	conv.Members = members
	m.log.Debug("Members written", "conversation", conv.ID, "members", len(members))
	return conv, nil
}
