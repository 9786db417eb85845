package team

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/identity"
)

// Service provides team creation and membership management.
type Service struct {
	repo  Repository
	users identity.Repository
	guard *Guard
}

// NewService creates a new team Service.
func NewService(repo Repository, users identity.Repository, guard *Guard) *Service {
	return &Service{repo: repo, users: users, guard: guard}
}

// CreateTeam allocates a unique "<base> <n>" label, creates the team and
// adds the caller as owner. Label allocation and team creation are one
// atomic step; the owner-membership insert is a second write. If that
// second write fails the allocated label stays committed without an owner,
// which is surfaced as an error and left for manual recovery rather than
// rolled back.
func (s *Service) CreateTeam(ctx context.Context, ident *identity.Identity, base string) (*Team, error) {
	base = strings.TrimSpace(base)

	t, err := s.repo.AllocateTeam(ctx, uuid.New(), base)
	if err != nil {
		return nil, err
	}

	owner := &Member{TeamID: t.ID, UserID: ident.UserID, Role: RoleOwner}
	if err := s.repo.AddMember(ctx, owner); err != nil {
		slog.Error("team label allocated but owner membership insert failed",
			"teamId", t.ID.String(), "name", t.Name, "userId", ident.UserID, "error", err)
		return nil, fmt.Errorf("adding owner to team %q: %w", t.Name, err)
	}

	return t, nil
}

// AddMember grants the member role to a user identified by email or by
// external id. The caller must hold at least the admin role in the team.
// Users are resolvable by email only after they have signed in once.
func (s *Service) AddMember(ctx context.Context, ident *identity.Identity, teamID uuid.UUID, emailOrID string) error {
	if _, err := s.guard.Require(ctx, teamID, ident.UserID, RoleAdmin); err != nil {
		return err
	}

	targetID := emailOrID
	if strings.Contains(emailOrID, "@") {
		id, err := s.users.ResolveEmail(ctx, emailOrID)
		if err != nil {
			return err
		}
		targetID = id
	}

	return s.repo.AddMember(ctx, &Member{TeamID: teamID, UserID: targetID, Role: RoleMember})
}

// ListForUser returns every team the caller belongs to, with their role.
func (s *Service) ListForUser(ctx context.Context, ident *identity.Identity) ([]Membership, error) {
	return s.repo.ListForUser(ctx, ident.UserID)
}
