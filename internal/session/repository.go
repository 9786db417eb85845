package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session record is not found.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidTransition is returned when a status update would leave the
// legal transition graph, e.g. reopening a failed session.
var ErrInvalidTransition = errors.New("invalid status transition")

// Repository provides operations on the session, lap and channel tables.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// ListForUser returns sessions of every team the user belongs to,
	// newest first.
	ListForUser(ctx context.Context, userID string) ([]Session, error)
	// UpdateStatus moves the session to the given status if its current
	// status is in from. Returns ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) error
	// MarkParsed transitions parsing -> parsed and records capture
	// metadata, the lap index and the channel list in one transaction.
	MarkParsed(ctx context.Context, id uuid.UUID, meta ParsedMeta, laps []Lap, channels []Channel) error
	ListLaps(ctx context.Context, sessionID uuid.UUID) ([]Lap, error)
	ListChannels(ctx context.Context, sessionID uuid.UUID) ([]Channel, error)
}
