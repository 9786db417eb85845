package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oversteer-dev/pitwall/internal/identity"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/storage"
	"github.com/oversteer-dev/pitwall/internal/team"
)

// --- Mocks ---

type mockSessionRepo struct {
	createFn       func(ctx context.Context, s *session.Session) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*session.Session, error)
	listForUserFn  func(ctx context.Context, userID string) ([]session.Session, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, from []session.Status, to session.Status) error
	markParsedFn   func(ctx context.Context, id uuid.UUID, meta session.ParsedMeta, laps []session.Lap, channels []session.Channel) error
	created        []*session.Session
	laps           []session.Lap
	channels       []session.Channel
	getByIDCalls   int
	listLapsCalls  int
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
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, session.ErrSessionNotFound
}

func (m *mockSessionRepo) ListForUser(ctx context.Context, userID string) ([]session.Session, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return []session.Session{}, nil
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []session.Status, to session.Status) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, from, to)
	}
	return nil
}

func (m *mockSessionRepo) MarkParsed(ctx context.Context, id uuid.UUID, meta session.ParsedMeta, laps []session.Lap, channels []session.Channel) error {
	if m.markParsedFn != nil {
		return m.markParsedFn(ctx, id, meta, laps, channels)
	}
	return nil
}

func (m *mockSessionRepo) ListLaps(ctx context.Context, sessionID uuid.UUID) ([]session.Lap, error) {
	m.listLapsCalls++
	if m.laps != nil {
		return m.laps, nil
	}
	return []session.Lap{}, nil
}

func (m *mockSessionRepo) ListChannels(ctx context.Context, sessionID uuid.UUID) ([]session.Channel, error) {
	if m.channels != nil {
		return m.channels, nil
	}
	return []session.Channel{}, nil
}

// memberRepo is a team repository whose only data is a membership table.
type memberRepo struct {
	team.Repository
	roles       map[string]team.Role
	roleQueries int
}

func (r *memberRepo) GetRole(_ context.Context, _ uuid.UUID, userID string) (team.Role, error) {
	r.roleQueries++
	if role, ok := r.roles[userID]; ok {
		return role, nil
	}
	return "", team.ErrNotMember
}

type mockBroker struct {
	uploadURLFn func(ctx context.Context, key string) (storage.SignedURL, error)
	keys        []string
}

func (m *mockBroker) UploadURL(ctx context.Context, key string) (storage.SignedURL, error) {
	m.keys = append(m.keys, key)
	if m.uploadURLFn != nil {
		return m.uploadURLFn(ctx, key)
	}
	return storage.SignedURL{URL: "https://store.test/put/" + key, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func newService(repo session.Repository, roles map[string]team.Role, broker session.UploadBroker) *session.Service {
	guard := team.NewGuard(&memberRepo{roles: roles})
	return session.NewService(repo, guard, broker)
}

func ident(id string) *identity.Identity {
	return &identity.Identity{UserID: id}
}

// ===== CreateForUpload =====

func TestCreateForUpload_NonMemberForbidden(t *testing.T) {
	t.Parallel()

	repo := &mockSessionRepo{}
	broker := &mockBroker{}
	svc := newService(repo, map[string]team.Role{}, broker)

	_, err := svc.CreateForUpload(context.Background(), ident("stranger"), uuid.New())

	assert.ErrorIs(t, err, team.ErrNotMember)
	assert.Empty(t, repo.created, "no session row may exist for an unauthorized caller")
	assert.Empty(t, broker.keys, "no credential may be minted for an unauthorized caller")
}

func TestCreateForUpload_MemberGetsGrant(t *testing.T) {
	t.Parallel()

	repo := &mockSessionRepo{}
	broker := &mockBroker{}
	svc := newService(repo, map[string]team.Role{"u1": team.RoleMember}, broker)
	teamID := uuid.New()

	grant, err := svc.CreateForUpload(context.Background(), ident("u1"), teamID)

	require.NoError(t, err)
	assert.Equal(t, session.StatusUploaded, grant.Session.Status)
	assert.Equal(t, teamID, grant.Session.TeamID)
	assert.Equal(t, "u1", grant.Session.UploaderID)

	wantKey := storage.RawCaptureKey(teamID, grant.Session.ID)
	assert.Equal(t, wantKey, grant.Session.StorageKey)
	require.Len(t, broker.keys, 1)
	assert.Equal(t, wantKey, broker.keys[0], "credential must target the reserved key")
	assert.NotEmpty(t, grant.URL.URL)
}

func TestCreateForUpload_FreshIDPerCall(t *testing.T) {
	t.Parallel()

	repo := &mockSessionRepo{}
	svc := newService(repo, map[string]team.Role{"u1": team.RoleMember}, &mockBroker{})
	teamID := uuid.New()

	a, err := svc.CreateForUpload(context.Background(), ident("u1"), teamID)
	require.NoError(t, err)
	b, err := svc.CreateForUpload(context.Background(), ident("u1"), teamID)
	require.NoError(t, err)

	assert.NotEqual(t, a.Session.ID, b.Session.ID)
	assert.NotEqual(t, a.Session.StorageKey, b.Session.StorageKey)
}

func TestCreateForUpload_InsertFailureSurfaces(t *testing.T) {
	t.Parallel()

	boom := errors.New("foreign key violation")
	repo := &mockSessionRepo{createFn: func(context.Context, *session.Session) error { return boom }}
	broker := &mockBroker{}
	svc := newService(repo, map[string]team.Role{"u1": team.RoleMember}, broker)

	_, err := svc.CreateForUpload(context.Background(), ident("u1"), uuid.New())

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, broker.keys, "no credential without a committed row")
}

// ===== GetForUser =====

func TestGetForUser_OtherTeamForbidden(t *testing.T) {
	t.Parallel()

	otherTeam := uuid.New()
	sessID := uuid.New()
	repo := &mockSessionRepo{getByIDFn: func(_ context.Context, id uuid.UUID) (*session.Session, error) {
		return &session.Session{ID: id, TeamID: otherTeam, Status: session.StatusParsed}, nil
	}}
	// Caller is a member somewhere, but GetRole for this team says no.
	svc := newService(repo, map[string]team.Role{}, &mockBroker{})

	_, err := svc.GetForUser(context.Background(), ident("u1"), sessID)

	assert.ErrorIs(t, err, team.ErrNotMember)
}

func TestGetForUser_Missing(t *testing.T) {
	t.Parallel()

	svc := newService(&mockSessionRepo{}, map[string]team.Role{"u1": team.RoleMember}, &mockBroker{})

	_, err := svc.GetForUser(context.Background(), ident("u1"), uuid.New())

	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

// ===== DetailForUser =====

func TestDetailForUser_SingleSessionFetchAndRoleCheck(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	lapTime := int64(92345)
	unit := "m/s"
	repo := &mockSessionRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*session.Session, error) {
			return &session.Session{ID: id, TeamID: teamID, Status: session.StatusParsed}, nil
		},
		laps:     []session.Lap{{LapNumber: 1, LapTimeMs: &lapTime, IsValid: true, Best: true}},
		channels: []session.Channel{{Name: "Speed", Unit: &unit}},
	}
	members := &memberRepo{roles: map[string]team.Role{"u1": team.RoleMember}}
	svc := session.NewService(repo, team.NewGuard(members), &mockBroker{})

	d, err := svc.DetailForUser(context.Background(), ident("u1"), uuid.New())

	require.NoError(t, err)
	require.Len(t, d.Laps, 1)
	assert.Equal(t, 1, d.Laps[0].LapNumber)
	require.Len(t, d.Channels, 1)
	assert.Equal(t, "Speed", d.Channels[0].Name)

	assert.Equal(t, 1, repo.getByIDCalls, "session row must be fetched once")
	assert.Equal(t, 1, members.roleQueries, "membership must be checked once")
}

func TestDetailForUser_NonMemberForbidden_NoListings(t *testing.T) {
	t.Parallel()

	otherTeam := uuid.New()
	repo := &mockSessionRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*session.Session, error) {
			return &session.Session{ID: id, TeamID: otherTeam, Status: session.StatusParsed}, nil
		},
	}
	svc := newService(repo, map[string]team.Role{}, &mockBroker{})

	_, err := svc.DetailForUser(context.Background(), ident("u1"), uuid.New())

	assert.ErrorIs(t, err, team.ErrNotMember)
	assert.Zero(t, repo.listLapsCalls, "no lap listing for an unauthorized caller")
}

// ===== ApplyWorkerUpdate =====

func TestApplyWorkerUpdate_Parsing(t *testing.T) {
	t.Parallel()

	var gotFrom []session.Status
	var gotTo session.Status
	repo := &mockSessionRepo{updateStatusFn: func(_ context.Context, _ uuid.UUID, from []session.Status, to session.Status) error {
		gotFrom, gotTo = from, to
		return nil
	}}
	svc := newService(repo, nil, &mockBroker{})

	err := svc.ApplyWorkerUpdate(context.Background(), uuid.New(), session.WorkerUpdate{Status: session.StatusParsing})

	require.NoError(t, err)
	assert.Equal(t, []session.Status{session.StatusUploaded}, gotFrom)
	assert.Equal(t, session.StatusParsing, gotTo)
}

func TestApplyWorkerUpdate_Failed(t *testing.T) {
	t.Parallel()

	var gotFrom []session.Status
	repo := &mockSessionRepo{updateStatusFn: func(_ context.Context, _ uuid.UUID, from []session.Status, to session.Status) error {
		gotFrom = from
		return nil
	}}
	svc := newService(repo, nil, &mockBroker{})

	err := svc.ApplyWorkerUpdate(context.Background(), uuid.New(), session.WorkerUpdate{Status: session.StatusFailed})

	require.NoError(t, err)
	assert.ElementsMatch(t, []session.Status{session.StatusUploaded, session.StatusParsing}, gotFrom)
}

func TestApplyWorkerUpdate_Parsed(t *testing.T) {
	t.Parallel()

	track := "Silverstone"
	var gotMeta session.ParsedMeta
	var gotLaps []session.Lap
	repo := &mockSessionRepo{markParsedFn: func(_ context.Context, _ uuid.UUID, meta session.ParsedMeta, laps []session.Lap, _ []session.Channel) error {
		gotMeta, gotLaps = meta, laps
		return nil
	}}
	svc := newService(repo, nil, &mockBroker{})
	id := uuid.New()

	err := svc.ApplyWorkerUpdate(context.Background(), id, session.WorkerUpdate{
		Status: session.StatusParsed,
		Meta:   session.ParsedMeta{TrackName: &track, LapCount: 2},
		Laps: []session.Lap{
			{SessionID: id, LapNumber: 1, IsValid: true, Best: true},
			{SessionID: id, LapNumber: 2, IsValid: true},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, &track, gotMeta.TrackName)
	assert.Len(t, gotLaps, 2)
}

func TestApplyWorkerUpdate_RejectsUploadedTarget(t *testing.T) {
	t.Parallel()

	svc := newService(&mockSessionRepo{}, nil, &mockBroker{})

	err := svc.ApplyWorkerUpdate(context.Background(), uuid.New(), session.WorkerUpdate{Status: session.StatusUploaded})

	assert.Error(t, err)
}

func TestApplyWorkerUpdate_InvalidTransitionSurfaces(t *testing.T) {
	t.Parallel()

	repo := &mockSessionRepo{updateStatusFn: func(context.Context, uuid.UUID, []session.Status, session.Status) error {
		return session.ErrInvalidTransition
	}}
	svc := newService(repo, nil, &mockBroker{})

	err := svc.ApplyWorkerUpdate(context.Background(), uuid.New(), session.WorkerUpdate{Status: session.StatusParsing})

	assert.ErrorIs(t, err, session.ErrInvalidTransition)
}
