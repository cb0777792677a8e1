package domain

import (
	"chatit/errors"
	"fmt"
)

const (
	FieldBiography      = "biography"
	FieldProfilePicture = "profilePicture"
)

// User is an identity record. Username is the primary key and never changes.
type User struct {
	Username       string
	Password       string
	Email          string
	Biography      string
	ProfilePicture string
}

// Member returns the public fields embedded into conversation member lists.
func (u User) Member() Member {
	return Member{Username: u.Username, Email: u.Email, Password: u.Password}
}

func (u User) Fields() map[string]any {
	return map[string]any{
		FieldUsername:       u.Username,
		FieldPassword:       u.Password,
		FieldEmail:          u.Email,
		FieldBiography:      u.Biography,
		FieldProfilePicture: u.ProfilePicture,
	}
}

func ParseUser(doc Document) (User, error) {
	username, ok := StringField(doc.Fields, FieldUsername)
	if !ok {
		username = doc.ID
	}
	if username == "" {
		return User{}, fmt.Errorf("%w: %s has no username", errors.ErrMalformedDocument, doc.Path)
	}
	password, _ := StringField(doc.Fields, FieldPassword)
	email, _ := StringField(doc.Fields, FieldEmail)
	biography, _ := StringField(doc.Fields, FieldBiography)
	picture, _ := StringField(doc.Fields, FieldProfilePicture)
	return User{
		Username:       username,
		Password:       password,
		Email:          email,
		Biography:      biography,
		ProfilePicture: picture,
	}, nil
}
