package membership

import (
	"chatit/codec"
	"chatit/contract"
	"chatit/domain"
	"chatit/errors"
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	minConversationID = 100000
	maxConversationID = 999999
	maxIDAttempts     = 16
)

// Service applies the ownership rules before delegating to the Mutator.
type Service struct {
	log       *slog.Logger
	store     contract.IStore
	mutator   *Mutator
	directory *Directory
	validate  *validator.Validate
	newID     func() domain.ConversationID
}

func NewService(log *slog.Logger, store contract.IStore) *Service {
	return &Service{
		log:       log,
		store:     store,
		mutator:   NewMutator(log, store),
		directory: NewDirectory(log, store),
		validate:  validator.New(),
		newID:     randomConversationID,
	}
}

// WithIDGenerator replaces the random six digit id generator.
func (s *Service) WithIDGenerator(newID func() domain.ConversationID) *Service {
	s.newID = newID
	return s
}

func (s *Service) Mutator() *Mutator     { return s.mutator }
func (s *Service) Directory() *Directory { return s.directory }

func randomConversationID() domain.ConversationID {
	return domain.ConversationID(minConversationID + rand.IntN(maxConversationID-minConversationID+1))
}

// Create stores a new conversation. Members are read one after the other,
// unreadable ones are skipped, and the owner is appended last.
func (s *Service) Create(ctx context.Context, req domain.NewConversationRequest) (domain.Conversation, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Conversation{}, fmt.Errorf("invalid conversation: %w", err)
	}
	owner, err := s.directory.GetMember(ctx, req.Owner)
	if err != nil {
		return domain.Conversation{}, err
	}
	id, err := s.freeID(ctx)
	if err != nil {
		return domain.Conversation{}, err
	}

	var members []domain.Member
	for _, username := range lo.Uniq(req.Members) {
		if username == req.Owner {
			continue
		}
		member, err := s.directory.GetMember(ctx, username)
		if err != nil {
			s.log.Warn("User skipped", "conversation", id, "username", username, "error", err)
			continue
		}
		members = append(members, member)
	}
	members = append(members, owner)

	conv := domain.Conversation{
		ID:          id,
		Name:        req.Name,
		Owner:       req.Owner,
		Description: req.Description,
		Members:     members,
	}
	if err = s.store.Set(ctx, domain.ConversationPath(id), conv.Fields()); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation %d: %w", id, err)
	}
	s.log.Info("Conversation created", "conversation", id, "owner", req.Owner, "members", len(members))
	return conv, nil
}

func (s *Service) freeID(ctx context.Context) (domain.ConversationID, error) {
	for range maxIDAttempts {
		id := s.newID()
		_, err := s.store.Get(ctx, domain.ConversationPath(id))
		if stdErrors.Is(err, errors.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return 0, fmt.Errorf("check conversation id %d: %w", id, err)
		}
	}
	return 0, errors.ErrNoFreeConversationID
}

// Delete removes a conversation and its messages. Owner only.
func (s *Service) Delete(ctx context.Context, conv domain.Conversation, actor string) error {
	if !conv.IsOwner(actor) {
		return errors.ErrNotOwner
	}
	return s.directory.deleteConversation(ctx, domain.ConversationPath(conv.ID))
}

// UpdateImage stores a new group picture. Only image content is accepted.
func (s *Service) UpdateImage(ctx context.Context, conv domain.Conversation, actor string, image []byte) (domain.Conversation, error) {
	if !conv.IsOwner(actor) {
		return conv, errors.ErrNotOwner
	}
	mtype := mimetype.Detect(image)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return conv, fmt.Errorf("%w: %s", errors.ErrNotAnImage, mtype.String())
	}
	encoded := codec.Encode(string(image))
	if err := s.store.Update(ctx, domain.ConversationPath(conv.ID), map[string]any{domain.FieldImage: encoded}); err != nil {
		return conv, fmt.Errorf("update image of conversation %d: %w", conv.ID, err)
	}
	conv.Image = encoded
	return conv, nil
}

// ListForMember scans every conversation and keeps the ones username belongs to.
func (s *Service) ListForMember(ctx context.Context, username string) ([]domain.Conversation, error) {
	docs, err := s.store.Query(ctx, domain.Query{Collection: domain.ConversationsCollection, OrderBy: domain.FieldID})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	var convs []domain.Conversation
	for _, doc := range docs {
		conv, err := domain.ParseConversation(doc)
		if err != nil {
			s.log.Debug("Malformed conversation dropped", "document", doc.ID, "error", err)
			continue
		}
		if conv.HasMember(username) {
			convs = append(convs, conv)
		}
	}
	return convs, nil
}

func (s *Service) Leave(ctx context.Context, id domain.ConversationID, actor string) (domain.Conversation, error) {
	conv, err := s.mutator.Load(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if err = conv.CanLeave(actor); err != nil {
		return conv, err
	}
	return s.mutator.Leave(ctx, conv, actor)
}

func (s *Service) Kick(ctx context.Context, id domain.ConversationID, actor, target string) (domain.Conversation, error) {
	conv, err := s.mutator.Load(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if err = conv.CanKick(actor, target); err != nil {
		return conv, err
	}
	return s.mutator.Kick(ctx, conv, target)
}

func (s *Service) Add(ctx context.Context, id domain.ConversationID, actor string, usernames []string) (domain.Conversation, error) {
	conv, err := s.mutator.Load(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if err = conv.CanAdd(actor); err != nil {
		return conv, err
	}
	return s.mutator.Add(ctx, conv, usernames)
}
