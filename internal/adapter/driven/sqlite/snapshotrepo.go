package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/tomeboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port interface.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Put stores a snapshot, replacing any existing snapshot for the same
// repository source. One row per repository is kept; the board only ever
// needs the most recent successful fetch.
func (r *SnapshotRepo) Put(ctx context.Context, snap driven.BoardSnapshot) error {
	const query = `
		INSERT INTO board_snapshots (id, source, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source) DO UPDATE SET
			id = excluded.id,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`

	fetchedAt := snap.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query, snap.ID, snap.Source, snap.Payload, fetchedAt)
	if err != nil {
		return fmt.Errorf("put snapshot for %s: %w", snap.Source, err)
	}

	return nil
}

// GetLatest returns the most recent snapshot for the given repository
// source. Returns nil, nil if no snapshot exists.
func (r *SnapshotRepo) GetLatest(ctx context.Context, source string) (*driven.BoardSnapshot, error) {
	const query = `
		SELECT id, source, payload, fetched_at
		FROM board_snapshots
		WHERE source = ?
		ORDER BY fetched_at DESC
		LIMIT 1`

	var snap driven.BoardSnapshot
	err := r.db.Reader.QueryRowContext(ctx, query, source).Scan(&snap.ID, &snap.Source, &snap.Payload, &snap.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot for %s: %w", source, err)
	}

	return &snap, nil
}

// Prune deletes snapshots older than the cutoff and returns the number of
// rows removed.
func (r *SnapshotRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM board_snapshots WHERE fetched_at < ?`

	result, err := r.db.Writer.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rows, nil
}
