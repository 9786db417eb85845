package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// allocateAttempts bounds the retry loop in AllocateTeam. Each retry only
// happens when another allocation for the same base committed between our
// suffix scan and insert, so a handful of attempts is plenty.
const allocateAttempts = 5

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// AllocateTeam computes the next suffix for the base and inserts the team
// in a single statement. The unique constraint on team.name serializes
// concurrent allocations: the loser of a race gets a unique violation and
// retries against the committed winner, so suffixes are never duplicated.
// Teams are never deleted, so max(n)+1 is the smallest unused suffix.
func (r *PostgresRepository) AllocateTeam(ctx context.Context, id uuid.UUID, base string) (*Team, error) {
	query := `
		INSERT INTO team (id, name)
		SELECT $1, $2 || ' ' || (COALESCE(MAX(substring(name FROM char_length($2) + 2)::int), 0) + 1)
		FROM team
		WHERE substr(name, 1, char_length($2) + 1) = $2 || ' '
		  AND substring(name FROM char_length($2) + 2) ~ '^[0-9]+$'
		RETURNING id, name, created_at`

	var lastErr error
	for range allocateAttempts {
		var t Team
		err := r.pool.QueryRow(ctx, query, id, base).Scan(&t.ID, &t.Name, &t.CreatedAt)
		if err == nil {
			return &t, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			lastErr = err
			continue
		}
		return nil, fmt.Errorf("allocating team label: %w", err)
	}

	return nil, fmt.Errorf("allocating team label: contention on base %q: %w", base, lastErr)
}

// GetByID retrieves a single team by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `SELECT id, name, created_at FROM team WHERE id = $1`

	var t Team
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return &t, nil
}

// AddMember inserts a membership row.
func (r *PostgresRepository) AddMember(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO team_member (team_id, user_id, role)
		VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, m.TeamID, m.UserID, string(m.Role)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrAlreadyMember
			case "23503":
				return ErrTeamNotFound
			}
		}
		return fmt.Errorf("inserting membership: %w", err)
	}

	return nil
}

// GetRole retrieves the user's role in the team.
func (r *PostgresRepository) GetRole(ctx context.Context, teamID uuid.UUID, userID string) (Role, error) {
	query := `SELECT role FROM team_member WHERE team_id = $1 AND user_id = $2`

	var role string
	err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("querying membership: %w", err)
	}

	return Role(role), nil
}

// ListForUser retrieves every team the user belongs to, with their role.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]Membership, error) {
	query := `
		SELECT t.id, t.name, t.created_at, m.role
		FROM team t
		JOIN team_member m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	memberships := []Membership{}
	for rows.Next() {
		var ms Membership
		var role string
		if err := rows.Scan(&ms.Team.ID, &ms.Team.Name, &ms.Team.CreatedAt, &role); err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		ms.Role = Role(role)
		memberships = append(memberships, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating membership rows: %w", err)
	}

	return memberships, nil
}
