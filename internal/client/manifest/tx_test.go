package manifest

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openScratch(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE files (path TEXT PRIMARY KEY);`)
	require.NoError(t, err)
	return db
}

func rows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&n))
	return n
}

func insertPath(q querier, p string) error {
	_, err := q.ExecContext(context.Background(), `INSERT INTO files(path) VALUES (?)`, p)
	return err
}

func TestInTx(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		fn       func(q querier) error
		wantErr  error
		wantRows int
	}{
		{
			name: "commit",
			fn: func(q querier) error {
				if err := insertPath(q, "/a"); err != nil {
					return err
				}
				return insertPath(q, "/b")
			},
			wantRows: 2,
		},
		{
			name: "error rolls back",
			fn: func(q querier) error {
				_ = insertPath(q, "/a")
				return boom
			},
			wantErr: boom,
		},
		{
			name: "constraint violation rolls back",
			fn: func(q querier) error {
				_ = insertPath(q, "/a")
				return insertPath(q, "/a")
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := openScratch(t)
			err := inTx(context.Background(), db, tc.fn)
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.wantRows == 0:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantRows, rows(t, db))
		})
	}
}

func TestInTx_PanicRollsBack(t *testing.T) {
	db := openScratch(t)

	defer func() {
		require.NotNil(t, recover(), "panic must propagate")
		require.Equal(t, 0, rows(t, db))
	}()

	_ = inTx(context.Background(), db, func(q querier) error {
		require.NoError(t, insertPath(q, "/a"))
		panic("kaput")
	})
}

func TestInTx_ClosedDB(t *testing.T) {
	db := openScratch(t)
	require.NoError(t, db.Close())
	require.Error(t, inTx(context.Background(), db, func(querier) error { return nil }))
}
