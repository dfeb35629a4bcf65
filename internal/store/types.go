// Package store archives finished sessions and the identities seen in them,
// and serves cross-session face lookups through an in-memory HNSW index over
// the stored descriptors.
package store

import "time"

// StoredIdentity is a face identity persisted after a session ends. ID is
// the database row id, not the in-session track id.
type StoredIdentity struct {
	ID         int64
	SessionID  string
	TrackID    int64
	Name       string
	Descriptor []float32
	FirstSeen  time.Time
	LastSeen   time.Time
}

// SessionSummary is the list-view projection of an archived session.
type SessionSummary struct {
	ID          string
	Preset      string
	StartedAt   time.Time
	EndedAt     time.Time
	UniqueFaces int
	Summary     string
}

// Match is one gallery search hit.
type Match struct {
	Identity StoredIdentity
	Distance float64
}
