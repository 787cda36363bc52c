package port

import (
	"context"

	"token_screener/internal/domain/entity"
)

// SnapshotReader gives non-blocking access to the published snapshot.
type SnapshotReader interface {
	// Tokens returns the current snapshot's tokens, or an empty slice before the first publish.
	Tokens() []entity.ProcessedToken
	// Compare returns the snapshot tokens whose address is listed, in snapshot order.
	Compare(addresses []string) []entity.ProcessedToken
	State() entity.SnapshotState
	Snapshot() *entity.Snapshot
}

// Refresher runs refresh cycles.
type Refresher interface {
	// Refresh runs one cycle; force bypasses the listing cache.
	Refresh(ctx context.Context, force bool) error
}

// SnapshotService is the orchestrator as seen by the API and the scheduler.
type SnapshotService interface {
	SnapshotReader
	Refresher
}
