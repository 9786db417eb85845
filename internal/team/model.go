package team

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's permission level within one team.
type Role string

// Roles in ascending order of privilege.
const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

var roleRank = map[Role]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r carries at minimum the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Team represents a row in the team table. The name is allocated as
// "<base> <n>" and is unique across all teams; it never changes afterwards.
type Team struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Member represents a row in the team_member table. A user holds at most
// one role per team.
type Member struct {
	TeamID uuid.UUID
	UserID string
	Role   Role
}

// Membership is a team paired with the caller's role in it.
type Membership struct {
	Team Team
	Role Role
}
