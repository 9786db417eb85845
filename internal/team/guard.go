package team

import (
	"context"

	"github.com/google/uuid"
)

// Guard resolves a caller's role in a team before any privileged action.
// It is stateless and queries the membership table on every call, so a
// revoked membership takes effect on the next request.
type Guard struct {
	repo Repository
}

// NewGuard creates a Guard over the given repository.
func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// Require returns the caller's role in the team if it is at least min.
// It returns ErrNotMember when no membership row exists and
// ErrInsufficientRole when the role is below the threshold.
func (g *Guard) Require(ctx context.Context, teamID uuid.UUID, userID string, min Role) (Role, error) {
	role, err := g.repo.GetRole(ctx, teamID, userID)
	if err != nil {
		return "", err
	}

	if !role.AtLeast(min) {
		return "", ErrInsufficientRole
	}

	return role, nil
}
