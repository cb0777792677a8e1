// Package domain contains core concepts of the chat system.
// This file defines Conversation documents, their embedded member list
// and the authorization rules applied by callers before mutating it.
package domain

import (
	"chatit/errors"
	"fmt"

	"github.com/samber/lo"
)

const (
	FieldID          = "id"
	FieldName        = "name"
	FieldOwner       = "owner"
	FieldDescription = "description"
	FieldImage       = "image"
	FieldMembers     = "members"

	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)

type ConversationID int

// Member is the snapshot of an identity embedded in a conversation document.
type Member struct {
	Username string
	Email    string
	Password string
}

type Conversation struct {
	ID          ConversationID
	Name        string
	Owner       string
	Description string
	Image       string // base64, optional
	Members     []Member
}

// NewConversationRequest carries what a user submits to create a conversation.
type NewConversationRequest struct {
	Owner       string   `validate:"required"`
	Name        string   `validate:"required,max=64"`
	Description string   `validate:"max=512"`
	Members     []string `validate:"dive,required"`
}

func (c Conversation) HasMember(username string) bool {
	return lo.ContainsBy(c.Members, func(m Member) bool { return m.Username == username })
}

func (c Conversation) IsOwner(username string) bool {
	return c.Owner == username
}

func (c Conversation) Usernames() []string {
	return lo.Map(c.Members, func(m Member, _ int) string { return m.Username })
}

// CanKick only lets the owner remove someone else.
func (c Conversation) CanKick(actor, target string) error {
	if !c.IsOwner(actor) {
		return errors.ErrNotOwner
	}
	if target == c.Owner {
		return errors.ErrCannotKickOwner
	}
	return nil
}

func (c Conversation) CanAdd(actor string) error {
	if !c.IsOwner(actor) {
		return errors.ErrNotOwner
	}
	return nil
}

// CanLeave accepts any member, the owner included. Ownership is not transferred.
func (c Conversation) CanLeave(actor string) error {
	if !c.HasMember(actor) {
		return errors.ErrNotMember
	}
	return nil
}

func (c Conversation) Fields() map[string]any {
	return map[string]any{
		FieldID:          int64(c.ID),
		FieldName:        c.Name,
		FieldOwner:       c.Owner,
		FieldDescription: c.Description,
		FieldImage:       c.Image,
		FieldMembers:     MembersField(c.Members),
	}
}

// MembersField converts members to the generic list stored in documents.
func MembersField(members []Member) []any {
	return lo.Map(members, func(m Member, _ int) any {
		return map[string]any{
			FieldUsername: m.Username,
			FieldEmail:    m.Email,
			FieldPassword: m.Password,
		}
	})
}

// ParseConversation reads a conversation document.
// Member entries that are not records or lack a username are skipped.
func ParseConversation(doc Document) (Conversation, error) {
	id, ok := Int64Field(doc.Fields, FieldID)
	if !ok {
		var parsed int
		if _, err := fmt.Sscanf(doc.ID, "%d", &parsed); err != nil {
			return Conversation{}, fmt.Errorf("%w: %s has no id", errors.ErrMalformedDocument, doc.Path)
		}
		id = int64(parsed)
	}
	raw, ok := doc.Fields[FieldMembers].([]any)
	if !ok {
		return Conversation{}, fmt.Errorf("%w: %s has no members", errors.ErrMalformedDocument, doc.Path)
	}
	name, _ := StringField(doc.Fields, FieldName)
	owner, _ := StringField(doc.Fields, FieldOwner)
	description, _ := StringField(doc.Fields, FieldDescription)
	image, _ := StringField(doc.Fields, FieldImage)

	return Conversation{
		ID:          ConversationID(id),
		Name:        name,
		Owner:       owner,
		Description: description,
		Image:       image,
		Members:     parseMembers(raw),
	}, nil
}

func parseMembers(raw []any) []Member {
	members := make([]Member, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		username, ok := StringField(entry, FieldUsername)
		if !ok || username == "" {
			continue
		}
		email, _ := StringField(entry, FieldEmail)
		password, _ := StringField(entry, FieldPassword)
		members = append(members, Member{Username: username, Email: email, Password: password})
	}
	return members
}
