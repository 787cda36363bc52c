package entity

import "time"

// SnapshotState is the orchestrator state visible to readers.
type SnapshotState string

const (
	// SnapshotStale means no data was ever published or the last refresh failed.
	SnapshotStale SnapshotState = "stale"
	// SnapshotReady means the last refresh published a non-empty snapshot.
	SnapshotReady SnapshotState = "ready"
)

// Snapshot is an immutable, fully built token set. Readers must not modify Tokens.
type Snapshot struct {
	Tokens      []ProcessedToken
	PublishedAt time.Time
}

// Len returns the number of tokens; nil-safe.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Tokens)
}
