package identity

import (
	"context"
	"fmt"
)

// Service resolves session tokens to identities.
type Service struct {
	repo   Repository
	secret string
}

// NewService creates a new identity Service.
func NewService(repo Repository, secret string) *Service {
	return &Service{repo: repo, secret: secret}
}

// Authenticate verifies a raw session token and upserts the app_user row
// so that team-member lookups by email work for anyone who has signed in
// at least once. The upsert runs on every call; permissions are never
// cached between requests.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	claims, err := VerifySessionToken(rawToken, s.secret)
	if err != nil {
		return nil, err
	}

	user := &User{ID: claims.Subject}
	if claims.Email != "" {
		user.Email = &claims.Email
	}
	if claims.Name != "" {
		user.DisplayName = &claims.Name
	}

	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("recording user: %w", err)
	}

	return &Identity{
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}
