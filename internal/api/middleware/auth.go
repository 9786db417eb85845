package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/oversteer-dev/pitwall/internal/api/response"
	"github.com/oversteer-dev/pitwall/internal/identity"
)

const identityKey contextKey = "identity"

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "pitwall_session"

// Authenticator resolves a raw session token to an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*identity.Identity, error)
}

// Auth is middleware that extracts the session cookie (or a bearer token)
// and resolves it to an Identity. Requests without a valid identity get 401.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			rawToken := tokenFromRequest(r)
			if rawToken == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", requestID)
				return
			}

			ident, err := auth.Authenticate(r.Context(), rawToken)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// WithIdentity returns a context carrying the authenticated Identity.
func WithIdentity(ctx context.Context, ident *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *identity.Identity {
	if id, ok := ctx.Value(identityKey).(*identity.Identity); ok {
		return id
	}
	return nil
}
