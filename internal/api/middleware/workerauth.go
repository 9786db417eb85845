package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/oversteer-dev/pitwall/internal/api/response"
)

// WorkerAuth returns middleware gating the parsing worker's callback
// endpoints behind a shared secret header. The comparison is constant-time.
func WorkerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			got := r.Header.Get("X-Webhook-Secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid webhook secret", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
