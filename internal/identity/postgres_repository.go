package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Upsert inserts the user or refreshes email and display name on conflict.
func (r *PostgresRepository) Upsert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO app_user (id, email, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET email = COALESCE(EXCLUDED.email, app_user.email),
		    display_name = COALESCE(EXCLUDED.display_name, app_user.display_name)`

	if _, err := r.pool.Exec(ctx, query, u.ID, u.Email, u.DisplayName); err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}

	return nil
}

// ResolveEmail looks up a user id by email.
func (r *PostgresRepository) ResolveEmail(ctx context.Context, email string) (string, error) {
	query := `SELECT id FROM app_user WHERE email = $1`

	var id string
	err := r.pool.QueryRow(ctx, query, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("resolving email: %w", err)
	}

	return id, nil
}
