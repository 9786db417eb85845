// Package storage derives the tenant-partitioned object layout and brokers
// signed URLs against it.
//
// Every key is fully determined by team, session and lap identifiers. A
// caller authorized for one team can therefore never reach another team's
// prefix: there is no code path that signs a caller-supplied key.
package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// RawCaptureExt is the file extension of unprocessed binary captures.
const RawCaptureExt = "ibt"

// RawCaptureKey returns the object key of a session's raw capture within
// the raw bucket: "{teamId}/{sessionId}.ibt".
func RawCaptureKey(teamID, sessionID uuid.UUID) string {
	return fmt.Sprintf("%s/%s.%s", teamID, sessionID, RawCaptureExt)
}

// ParsedLapKey returns the object key of one parsed lap within the parsed
// bucket: "{teamId}/{sessionId}/laps/{lapNumber}.json".
func ParsedLapKey(teamID, sessionID uuid.UUID, lapNumber int) string {
	return fmt.Sprintf("%s/%s/laps/%d.json", teamID, sessionID, lapNumber)
}

// SessionMetaKey returns the object key of a session's capture metadata
// within the parsed bucket: "{teamId}/{sessionId}/meta.json". The parsing
// worker writes it alongside the per-lap artifacts.
func SessionMetaKey(teamID, sessionID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/meta.json", teamID, sessionID)
}
