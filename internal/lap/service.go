// Package lap serves parsed per-lap telemetry back to authorized team
// members.
package lap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/identity"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/storage"
	"github.com/oversteer-dev/pitwall/internal/team"
)

// ErrLapNotReady is returned when the lap artifact does not exist yet,
// because parsing has not completed or the lap number is out of range.
// The two are indistinguishable here; callers are expected to poll.
var ErrLapNotReady = errors.New("lap not ready")

// Sample is one timestamped row of channel values. Channels vary per
// capture, so rows stay schemaless; the millisecond timestamp field is the
// only one always present.
type Sample map[string]any

// DownloadBroker mints short-lived download credentials for derived
// parsed-artifact keys.
type DownloadBroker interface {
	DownloadURL(ctx context.Context, key string) (storage.SignedURL, error)
}

// Service composes the session registry, the authorization guard and the
// signed-URL broker to fetch one lap's parsed artifact.
type Service struct {
	sessions session.Repository
	guard    *team.Guard
	broker   DownloadBroker
	client   *http.Client
}

// NewService creates a new lap Service. The HTTP client performs the
// server-side artifact fetch; pass nil for http.DefaultClient.
func NewService(sessions session.Repository, guard *team.Guard, broker DownloadBroker, client *http.Client) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{sessions: sessions, guard: guard, broker: broker, client: client}
}

// FetchLap returns the decoded sample sequence of one lap. The signed
// download URL stays server-side: the artifact is fetched here and only
// its rows are returned, so the elevated credential never reaches the
// caller. A membership check against the session's team runs before any
// storage operation, so a guessed session id of another team yields a
// permission error, never data and never an existence hint about the
// artifact.
func (s *Service) FetchLap(ctx context.Context, ident *identity.Identity, sessionID uuid.UUID, lapNumber int) ([]Sample, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.guard.Require(ctx, sess.TeamID, ident.UserID, team.RoleMember); err != nil {
		return nil, err
	}

	key := storage.ParsedLapKey(sess.TeamID, sessionID, lapNumber)

	signed, err := s.broker.DownloadURL(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrLapNotReady
		}
		return nil, err
	}

	rows, err := s.fetch(ctx, signed.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching lap %d of session %s: %w", lapNumber, sessionID, err)
	}

	return rows, nil
}

func (s *Service) fetch(ctx context.Context, signedURL string) ([]Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		// The object vanished or the credential lapsed between stat and
		// fetch; both read as the artifact not being there yet.
		return nil, ErrLapNotReady
	default:
		return nil, fmt.Errorf("object store returned status %d", resp.StatusCode)
	}

	var rows []Sample
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding lap artifact: %w", err)
	}

	return rows, nil
}
