package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrMissingID = errors.New("user id is required")
)

// Repo stores signed-in user profiles keyed by the token subject.
type Repo interface {
	// Upsert creates the user or refreshes its profile fields. CreatedAt of
	// an existing user is preserved.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
}

func validate(user User) error {
	if strings.TrimSpace(user.ID) == "" {
		return ErrMissingID
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// profileColumns receives the optional columns shared by the SQL repos.
type profileColumns struct {
	name       sql.NullString
	pictureURL sql.NullString
}

func (p profileColumns) apply(user *User) {
	user.Name = p.name.String
	user.PictureURL = p.pictureURL.String
}
