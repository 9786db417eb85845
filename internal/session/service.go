package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/identity"
	"github.com/oversteer-dev/pitwall/internal/storage"
	"github.com/oversteer-dev/pitwall/internal/team"
)

// UploadBroker mints upload credentials for derived raw-capture keys.
type UploadBroker interface {
	UploadURL(ctx context.Context, key string) (storage.SignedURL, error)
}

// UploadGrant is the result of reserving a session for upload: the durable
// record plus the single-PUT credential for its raw capture key.
type UploadGrant struct {
	Session *Session
	URL     storage.SignedURL
}

// WorkerUpdate is the parsing worker's report on one session. Meta, Laps
// and Channels are only consulted when Status is parsed.
type WorkerUpdate struct {
	Status   Status
	Meta     ParsedMeta
	Laps     []Lap
	Channels []Channel
}

// Service owns the session lifecycle.
type Service struct {
	repo   Repository
	guard  *team.Guard
	broker UploadBroker
}

// NewService creates a new session Service.
func NewService(repo Repository, guard *team.Guard, broker UploadBroker) *Service {
	return &Service{repo: repo, guard: guard, broker: broker}
}

// CreateForUpload reserves a session for a new capture: it verifies the
// caller holds at least the member role in the team, generates the session
// id, derives the raw storage key from it, commits the row in the uploaded
// status and returns an upload credential for exactly that key. The
// storage key is fixed here and never re-derived or mutated afterwards.
func (s *Service) CreateForUpload(ctx context.Context, ident *identity.Identity, teamID uuid.UUID) (*UploadGrant, error) {
	if _, err := s.guard.Require(ctx, teamID, ident.UserID, team.RoleMember); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:         uuid.New(),
		TeamID:     teamID,
		UploaderID: ident.UserID,
		Status:     StatusUploaded,
	}
	sess.StorageKey = storage.RawCaptureKey(teamID, sess.ID)

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}

	grant, err := s.broker.UploadURL(ctx, sess.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("issuing upload credential for session %s: %w", sess.ID, err)
	}

	return &UploadGrant{Session: sess, URL: grant}, nil
}

// GetForUser loads a session and verifies the caller's membership in its
// team before returning it.
func (s *Service) GetForUser(ctx context.Context, ident *identity.Identity, id uuid.UUID) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.Require(ctx, sess.TeamID, ident.UserID, team.RoleMember); err != nil {
		return nil, err
	}

	return sess, nil
}

// ListForUser returns the caller's sessions across all their teams.
func (s *Service) ListForUser(ctx context.Context, ident *identity.Identity) ([]Session, error) {
	return s.repo.ListForUser(ctx, ident.UserID)
}

// Detail is a session together with its lap index and channel list.
type Detail struct {
	Session  *Session
	Laps     []Lap
	Channels []Channel
}

// DetailForUser loads a session, its lap index and its channel list in one
// authorized pass: the session row is fetched once and the caller's
// membership is checked once, before either listing.
func (s *Service) DetailForUser(ctx context.Context, ident *identity.Identity, id uuid.UUID) (*Detail, error) {
	sess, err := s.GetForUser(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	laps, err := s.repo.ListLaps(ctx, id)
	if err != nil {
		return nil, err
	}

	channels, err := s.repo.ListChannels(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Detail{Session: sess, Laps: laps, Channels: channels}, nil
}

// ApplyWorkerUpdate is the stable contract for the external parsing worker.
// It enforces the transition graph: parsing is reachable from uploaded,
// failed from uploaded or parsing, parsed only from parsing. The worker is
// at-least-once, so a repeated report of an already-applied transition
// surfaces as ErrInvalidTransition and can be ignored by the caller.
func (s *Service) ApplyWorkerUpdate(ctx context.Context, id uuid.UUID, update WorkerUpdate) error {
	switch update.Status {
	case StatusParsing:
		return s.repo.UpdateStatus(ctx, id, []Status{StatusUploaded}, StatusParsing)
	case StatusFailed:
		slog.Warn("parsing worker reported failure", "sessionId", id.String())
		return s.repo.UpdateStatus(ctx, id, []Status{StatusUploaded, StatusParsing}, StatusFailed)
	case StatusParsed:
		return s.repo.MarkParsed(ctx, id, update.Meta, update.Laps, update.Channels)
	default:
		return fmt.Errorf("unsupported worker status %q", update.Status)
	}
}
