// Package manifest remembers which local files were synced to which remote
// paths, so unchanged files can be skipped without asking the server.
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Entry describes one file as it was when it was last uploaded.
type Entry struct {
	RemotePath string
	Size       int64
	MTime      time.Time
	Digest     []byte
	SyncedAt   time.Time
}

// Run summarizes one sync invocation.
type Run struct {
	ID         string
	LocalDir   string
	RemoteDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Uploaded   int
	Skipped    int
	Dirs       int
	Pretend    bool
}

type Repository interface {
	Get(ctx context.Context, remotePath string) (*Entry, error)
	PutBatch(ctx context.Context, entries []Entry) error
	Count(ctx context.Context) (int, error)
	SaveRun(ctx context.Context, r Run) error
	LastRun(ctx context.Context) (*Run, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns (nil, nil) when remotePath was never recorded.
func (r *SQLiteRepository) Get(ctx context.Context, remotePath string) (*Entry, error) {
	var (
		e               Entry
		mtime, syncedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT remote_path, size, mtime, digest, synced_at FROM synced_files WHERE remote_path = ?`,
		remotePath,
	).Scan(&e.RemotePath, &e.Size, &mtime, &e.Digest, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest entry %s: %w", remotePath, err)
	}
	e.MTime = time.Unix(0, mtime)
	e.SyncedAt = time.Unix(0, syncedAt)
	return &e, nil
}

// PutBatch stores entries atomically.
func (r *SQLiteRepository) PutBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return inTx(ctx, r.db, func(tx querier) error {
		for _, e := range entries {
			if err := put(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func put(ctx context.Context, db querier, e Entry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO synced_files (remote_path, size, mtime, digest, synced_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(remote_path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			digest = excluded.digest,
			synced_at = excluded.synced_at
	`, e.RemotePath, e.Size, e.MTime.UnixNano(), e.Digest, e.SyncedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to put manifest entry %s: %w", e.RemotePath, err)
	}
	return nil
}

// Count returns the number of files recorded.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synced_files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count manifest entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SaveRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, local_dir, remote_dir, started_at, finished_at, uploaded, skipped, dirs, pretend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.LocalDir, run.RemoteDir, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.Uploaded, run.Skipped, run.Dirs, run.Pretend)
	if err != nil {
		return fmt.Errorf("failed to save sync run %s: %w", run.ID, err)
	}
	return nil
}

// LastRun returns the most recently started run, or (nil, nil).
func (r *SQLiteRepository) LastRun(ctx context.Context) (*Run, error) {
	var (
		run               Run
		started, finished int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, local_dir, remote_dir, started_at, finished_at, uploaded, skipped, dirs, pretend
		FROM sync_runs ORDER BY started_at DESC LIMIT 1
	`).Scan(&run.ID, &run.LocalDir, &run.RemoteDir, &started, &finished,
		&run.Uploaded, &run.Skipped, &run.Dirs, &run.Pretend)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last sync run: %w", err)
	}
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)
	return &run, nil
}
