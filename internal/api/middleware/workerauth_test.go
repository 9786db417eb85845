package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWorkerAuth_MissingSecret(t *testing.T) {
	t.Parallel()

	h := middleware.WorkerAuth("hunter2")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/sessions/x/status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkerAuth_WrongSecret(t *testing.T) {
	t.Parallel()

	h := middleware.WorkerAuth("hunter2")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/sessions/x/status", nil)
	req.Header.Set("X-Webhook-Secret", "guess")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkerAuth_CorrectSecret(t *testing.T) {
	t.Parallel()

	h := middleware.WorkerAuth("hunter2")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/sessions/x/status", nil)
	req.Header.Set("X-Webhook-Secret", "hunter2")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkerAuth_EmptyConfiguredSecretRejectsAll(t *testing.T) {
	t.Parallel()

	h := middleware.WorkerAuth("")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/sessions/x/status", nil)
	req.Header.Set("X-Webhook-Secret", "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
