package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oversteer-dev/pitwall/internal/identity"
)

type mockUserRepo struct {
	upsertFn       func(ctx context.Context, u *identity.User) error
	resolveEmailFn func(ctx context.Context, email string) (string, error)
	upserted       []*identity.User
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *identity.User) error {
	m.upserted = append(m.upserted, u)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) ResolveEmail(ctx context.Context, email string) (string, error) {
	if m.resolveEmailFn != nil {
		return m.resolveEmailFn(ctx, email)
	}
	return "", identity.ErrUserNotFound
}

func TestServiceAuthenticate_UpsertsUser(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{}
	svc := identity.NewService(repo, testSecret)
	raw := signToken(t, validClaims("user-123"), testSecret)

	ident, err := svc.Authenticate(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "user-123", ident.UserID)
	assert.Equal(t, "driver@example.com", ident.Email)

	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "user-123", repo.upserted[0].ID)
	require.NotNil(t, repo.upserted[0].Email)
	assert.Equal(t, "driver@example.com", *repo.upserted[0].Email)
}

func TestServiceAuthenticate_Idempotent(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{}
	svc := identity.NewService(repo, testSecret)
	raw := signToken(t, validClaims("user-123"), testSecret)

	_, err := svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	// Same external id both times; the repository upsert is what keeps
	// this a single row.
	require.Len(t, repo.upserted, 2)
	assert.Equal(t, repo.upserted[0].ID, repo.upserted[1].ID)
}

func TestServiceAuthenticate_InvalidToken(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{}
	svc := identity.NewService(repo, testSecret)

	_, err := svc.Authenticate(context.Background(), "bogus")

	assert.ErrorIs(t, err, identity.ErrUnauthenticated)
	assert.Empty(t, repo.upserted)
}
