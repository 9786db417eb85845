package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/identity"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/storage"
	"github.com/oversteer-dev/pitwall/internal/team"
)

// --- Request helpers ---

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

func makeAuthRequest(method, path string, body []byte, params map[string]string, ident *identity.Identity) (*http.Request, *httptest.ResponseRecorder) {
	req, w := makeChiRequest(method, path, body, params)
	if ident != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), ident))
	}
	return req, w
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected an error object, body: %s", w.Body.String())
	return errObj["code"].(string)
}

func callerIdentity(id string) *identity.Identity {
	return &identity.Identity{UserID: id, Email: id + "@example.com"}
}

// --- Mock team repository ---

type mockTeamRepo struct {
	allocateFn  func(ctx context.Context, id uuid.UUID, base string) (*team.Team, error)
	addMemberFn func(ctx context.Context, m *team.Member) error
	roles       map[string]team.Role
	memberships []team.Membership
	added       []*team.Member
}

func (m *mockTeamRepo) AllocateTeam(ctx context.Context, id uuid.UUID, base string) (*team.Team, error) {
	if m.allocateFn != nil {
		return m.allocateFn(ctx, id, base)
	}
	return &team.Team{ID: id, Name: base + " 1", CreatedAt: time.Now().UTC()}, nil
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) AddMember(ctx context.Context, member *team.Member) error {
	m.added = append(m.added, member)
	if m.addMemberFn != nil {
		return m.addMemberFn(ctx, member)
	}
	return nil
}

func (m *mockTeamRepo) GetRole(ctx context.Context, teamID uuid.UUID, userID string) (team.Role, error) {
	if role, ok := m.roles[userID]; ok {
		return role, nil
	}
	return "", team.ErrNotMember
}

func (m *mockTeamRepo) ListForUser(ctx context.Context, userID string) ([]team.Membership, error) {
	return m.memberships, nil
}

// --- Mock user repository ---

type mockUserRepo struct {
	emails map[string]string // email -> user id
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *identity.User) error { return nil }

func (m *mockUserRepo) ResolveEmail(ctx context.Context, email string) (string, error) {
	if id, ok := m.emails[email]; ok {
		return id, nil
	}
	return "", identity.ErrUserNotFound
}

// --- Mock session repository ---

type mockSessionRepo struct {
	createFn       func(ctx context.Context, s *session.Session) error
	updateStatusFn func(ctx context.Context, id uuid.UUID, from []session.Status, to session.Status) error
	markParsedFn   func(ctx context.Context, id uuid.UUID, meta session.ParsedMeta, laps []session.Lap, channels []session.Channel) error
	sessions       map[uuid.UUID]*session.Session
	laps           []session.Lap
	channels       []session.Channel
	created        []*session.Session
	getByIDCalls   int
}

func (m *mockSessionRepo) Create(ctx context.Context, s *session.Session) error {
	m.created = append(m.created, s)
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	s.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.getByIDCalls++
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, session.ErrSessionNotFound
}

func (m *mockSessionRepo) ListForUser(ctx context.Context, userID string) ([]session.Session, error) {
	out := []session.Session{}
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []session.Status, to session.Status) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, from, to)
	}
	if _, ok := m.sessions[id]; !ok {
		return session.ErrSessionNotFound
	}
	return nil
}

func (m *mockSessionRepo) MarkParsed(ctx context.Context, id uuid.UUID, meta session.ParsedMeta, laps []session.Lap, channels []session.Channel) error {
	if m.markParsedFn != nil {
		return m.markParsedFn(ctx, id, meta, laps, channels)
	}
	if _, ok := m.sessions[id]; !ok {
		return session.ErrSessionNotFound
	}
	return nil
}

func (m *mockSessionRepo) ListLaps(ctx context.Context, sessionID uuid.UUID) ([]session.Lap, error) {
	return m.laps, nil
}

func (m *mockSessionRepo) ListChannels(ctx context.Context, sessionID uuid.UUID) ([]session.Channel, error) {
	return m.channels, nil
}

// --- Mock broker (implements both upload and download sides) ---

type mockBroker struct {
	downloadURLFn func(ctx context.Context, key string) (storage.SignedURL, error)
}

func (m *mockBroker) UploadURL(ctx context.Context, key string) (storage.SignedURL, error) {
	return storage.SignedURL{
		URL:       "https://store.test/put/" + key,
		ExpiresAt: time.Date(2026, 3, 14, 12, 15, 0, 0, time.UTC),
	}, nil
}

func (m *mockBroker) DownloadURL(ctx context.Context, key string) (storage.SignedURL, error) {
	if m.downloadURLFn != nil {
		return m.downloadURLFn(ctx, key)
	}
	return storage.SignedURL{}, storage.ErrObjectNotFound
}
