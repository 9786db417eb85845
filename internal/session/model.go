package session

import (
	"time"

	"github.com/google/uuid"
)

// Status is the processing state of an uploaded capture. Legal transitions
// are uploaded -> parsing -> parsed, with failed reachable from uploaded or
// parsing. Both terminal states are final.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusParsing  Status = "parsing"
	StatusParsed   Status = "parsed"
	StatusFailed   Status = "failed"
)

// Session represents a row in the session table: one uploaded telemetry
// capture and its processing state. The id is generated application-side
// so it can be embedded in the storage key before the row is committed,
// and StorageKey is never mutated after creation.
type Session struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	UploaderID string
	StorageKey string
	Status     Status
	DriverName *string
	TrackName  *string
	CarName    *string
	LapCount   *int
	StartedAt  *time.Time
	CreatedAt  time.Time
}

// Lap is one entry of a session's lap index, written when the parsing
// worker reports completion. The lap artifact itself lives in object
// storage; this row only carries summary fields for listings.
type Lap struct {
	SessionID uuid.UUID
	LapNumber int
	LapTimeMs *int64
	IsValid   bool
	Best      bool
}

// Channel is one recorded telemetry channel of a session.
type Channel struct {
	SessionID uuid.UUID
	Name      string
	Unit      *string
}

// ParsedMeta is the capture metadata the worker extracts from a raw file.
type ParsedMeta struct {
	DriverName *string
	TrackName  *string
	CarName    *string
	StartedAt  *time.Time
	LapCount   int
}
