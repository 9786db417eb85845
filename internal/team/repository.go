package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrNotMember is returned when the user has no membership row for the team.
var ErrNotMember = errors.New("not a team member")

// ErrInsufficientRole is returned when the user is a member but their role
// is below the threshold the operation requires.
var ErrInsufficientRole = errors.New("insufficient role")

// ErrAlreadyMember is returned when adding a user who already holds a role
// in the team.
var ErrAlreadyMember = errors.New("user is already a team member")

// Repository provides operations on the team and team_member tables.
type Repository interface {
	// AllocateTeam atomically picks the smallest unused numeric suffix for
	// the base label and creates the team named "<base> <n>". Concurrent
	// calls with the same base never receive the same suffix.
	AllocateTeam(ctx context.Context, id uuid.UUID, base string) (*Team, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	AddMember(ctx context.Context, m *Member) error
	// GetRole returns the user's role in the team, or ErrNotMember.
	GetRole(ctx context.Context, teamID uuid.UUID, userID string) (Role, error)
	ListForUser(ctx context.Context, userID string) ([]Membership, error)
}
