package handler

import (
	"context"
	"net/http"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/api/response"
)

// DBPinger verifies the relational store is reachable.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// StorageProber verifies a bucket is reachable. It receives the
// tenant-scoped store tier; health checks never need signing credentials.
type StorageProber interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db        DBPinger
	storage   StorageProber
	rawBucket string
	version   string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, storage StorageProber, rawBucket, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		storage:   storage,
		rawBucket: rawBucket,
		version:   version,
	}
}

type healthData struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database bool   `json:"database"`
	Storage  bool   `json:"storage"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	dbOK := h.db.Ping(r.Context()) == nil

	storageOK := false
	if h.storage != nil {
		if exists, err := h.storage.BucketExists(r.Context(), h.rawBucket); err == nil && exists {
			storageOK = true
		}
	}

	status := "healthy"
	if !dbOK || !storageOK {
		status = "degraded"
	}

	data := healthData{
		Status:   status,
		Version:  h.version,
		Database: dbOK,
		Storage:  storageOK,
	}

	response.Success(w, http.StatusOK, data, requestID)
}
