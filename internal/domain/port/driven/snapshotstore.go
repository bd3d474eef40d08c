package driven

import (
	"context"
	"time"
)

// BoardSnapshot is a persisted copy of the most recent successfully
// processed board for a repository, served as a stale fallback when the live
// fetch fails.
type BoardSnapshot struct {
	ID        string
	Source    string // Repository source, e.g. "github.com/alice/growth-journal".
	Payload   []byte // JSON-encoded board response.
	FetchedAt time.Time
}

// SnapshotStore defines the driven port for board snapshot persistence.
type SnapshotStore interface {
	// Put stores a snapshot, replacing any existing snapshot for the same
	// repository source.
	Put(ctx context.Context, snap BoardSnapshot) error

	// GetLatest returns the most recent snapshot for the given repository
	// source. Returns nil, nil when no snapshot exists.
	GetLatest(ctx context.Context, source string) (*BoardSnapshot, error)

	// Prune deletes snapshots older than the cutoff and returns the number
	// of rows removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
