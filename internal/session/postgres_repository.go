package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

const sessionColumns = `id, team_id, uploader_id, storage_key, status,
	driver_name, track_name, car_name, lap_count, started_at, created_at`

func scanSession(row pgx.Row, s *Session) error {
	var status string
	err := row.Scan(&s.ID, &s.TeamID, &s.UploaderID, &s.StorageKey, &status,
		&s.DriverName, &s.TrackName, &s.CarName, &s.LapCount, &s.StartedAt, &s.CreatedAt)
	if err != nil {
		return err
	}
	s.Status = Status(status)
	return nil
}

// Create inserts a new session record in its initial status.
func (r *PostgresRepository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO session (id, team_id, uploader_id, storage_key, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		s.ID, s.TeamID, s.UploaderID, s.StorageKey, string(s.Status)).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// GetByID retrieves a single session by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM session WHERE id = $1`

	var s Session
	if err := scanSession(r.pool.QueryRow(ctx, query, id), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	return &s, nil
}

// ListForUser retrieves sessions of every team the user belongs to.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM session
		WHERE team_id IN (SELECT team_id FROM team_member WHERE user_id = $1)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := scanSession(rows, &s); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}

	return sessions, nil
}

// UpdateStatus moves the session between statuses. The transition guard
// lives in the WHERE clause so that concurrent worker retries race in the
// database, not in application code.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) error {
	query := `UPDATE session SET status = $1 WHERE id = $2 AND status = ANY($3)`

	fromStrs := make([]string, len(from))
	for i, st := range from {
		fromStrs[i] = string(st)
	}

	tag, err := r.pool.Exec(ctx, query, string(to), id, fromStrs)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// MarkParsed finalizes a session: status, capture metadata, lap index and
// channel list land in one transaction so readers never observe a parsed
// session with a half-written index.
func (r *PostgresRepository) MarkParsed(ctx context.Context, id uuid.UUID, meta ParsedMeta, laps []Lap, channels []Channel) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	update := `
		UPDATE session
		SET status = $1, driver_name = $2, track_name = $3, car_name = $4,
		    lap_count = $5, started_at = $6
		WHERE id = $7 AND status = $8`

	tag, err := tx.Exec(ctx, update, string(StatusParsed),
		meta.DriverName, meta.TrackName, meta.CarName, meta.LapCount, meta.StartedAt,
		id, string(StatusParsing))
	if err != nil {
		return fmt.Errorf("finalizing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lap WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("clearing lap index: %w", err)
	}
	for _, lap := range laps {
		_, err := tx.Exec(ctx,
			`INSERT INTO lap (session_id, lap_number, lap_time_ms, is_valid, best)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, lap.LapNumber, lap.LapTimeMs, lap.IsValid, lap.Best)
		if err != nil {
			return fmt.Errorf("inserting lap %d: %w", lap.LapNumber, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM channel WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("clearing channels: %w", err)
	}
	for _, ch := range channels {
		_, err := tx.Exec(ctx,
			`INSERT INTO channel (session_id, name, unit) VALUES ($1, $2, $3)`,
			id, ch.Name, ch.Unit)
		if err != nil {
			return fmt.Errorf("inserting channel %q: %w", ch.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing parse result: %w", err)
	}

	return nil
}

// ListLaps retrieves the lap index of a session in lap order.
func (r *PostgresRepository) ListLaps(ctx context.Context, sessionID uuid.UUID) ([]Lap, error) {
	query := `
		SELECT session_id, lap_number, lap_time_ms, is_valid, best
		FROM lap
		WHERE session_id = $1
		ORDER BY lap_number ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing laps: %w", err)
	}
	defer rows.Close()

	laps := []Lap{}
	for rows.Next() {
		var lap Lap
		if err := rows.Scan(&lap.SessionID, &lap.LapNumber, &lap.LapTimeMs, &lap.IsValid, &lap.Best); err != nil {
			return nil, fmt.Errorf("scanning lap row: %w", err)
		}
		laps = append(laps, lap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lap rows: %w", err)
	}

	return laps, nil
}

// ListChannels retrieves the channel list of a session.
func (r *PostgresRepository) ListChannels(ctx context.Context, sessionID uuid.UUID) ([]Channel, error) {
	query := `
		SELECT session_id, name, unit
		FROM channel
		WHERE session_id = $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	defer rows.Close()

	channels := []Channel{}
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.SessionID, &ch.Name, &ch.Unit); err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating channel rows: %w", err)
	}

	return channels, nil
}
