package identity

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when no app_user row matches a lookup.
var ErrUserNotFound = errors.New("user not found")

// Repository provides operations on the app_user table.
type Repository interface {
	// Upsert creates or refreshes the row for an external identity.
	// It is idempotent and runs on every authenticated request.
	Upsert(ctx context.Context, user *User) error
	// ResolveEmail returns the user id registered under the given email,
	// or ErrUserNotFound if that person has never signed in.
	ResolveEmail(ctx context.Context, email string) (string, error)
}
