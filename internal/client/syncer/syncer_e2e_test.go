package syncer_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/agileclient/internal/client/client"
	"github.com/dmitrijs2005/agileclient/internal/client/manifest"
	"github.com/dmitrijs2005/agileclient/internal/client/syncer"
	"github.com/dmitrijs2005/agileclient/internal/client/upload"
	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/dmitrijs2005/agileclient/internal/testutil/agiletest"
)

func localTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "photos")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "small.txt"), []byte("hi"), 0o600))
	big := make([]byte, 300)
	for i := range big {
		big[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "2024", "big.bin"), big, 0o600))
	return root
}

func newManifest(t *testing.T) manifest.Repository {
	t.Helper()
	db, err := manifest.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return manifest.NewSQLiteRepository(db)
}

func newSyncer(srv *agiletest.Server, opts ...syncer.Option) *syncer.Syncer {
	c := client.New(srv.URL, "user", "secret")
	opts = append([]syncer.Option{syncer.WithPieceSize(128)}, opts...)
	return syncer.New(c, upload.New(c, nil), opts...)
}

func TestSync_MirrorsTreeThenSkips(t *testing.T) {
	ctx := context.Background()
	srv := agiletest.New(t)
	root := localTree(t)

	stats, err := newSyncer(srv).Run(ctx, root, "/backup")
	require.NoError(t, err)
	require.Equal(t, 2, stats.Uploaded)
	require.Equal(t, 2, stats.Dirs)

	small, ok := srv.File("/backup/photos/small.txt")
	require.True(t, ok)
	require.Equal(t, []byte("hi"), small)
	big, ok := srv.File("/backup/photos/2024/big.bin")
	require.True(t, ok)
	require.Len(t, big, 300)

	stats, err = newSyncer(srv).Run(ctx, root, "/backup")
	require.NoError(t, err)
	require.Zero(t, stats.Uploaded)
	require.Zero(t, stats.Dirs)
	require.Equal(t, 2, stats.Skipped)
}

func TestSync_PretendChangesNothing(t *testing.T) {
	srv := agiletest.New(t)
	m := newManifest(t)

	stats, err := newSyncer(srv, syncer.WithPretend(true), syncer.WithManifest(m)).Run(context.Background(), localTree(t), "/backup")
	require.NoError(t, err)
	require.Equal(t, 2, stats.Uploaded)
	require.Equal(t, 2, stats.Dirs)
	require.False(t, srv.Exists("/backup"))
	require.Zero(t, srv.Calls("makeDir2"))

	last, err := m.LastRun(context.Background())
	require.NoError(t, err)
	require.True(t, last.Pretend)
	require.Equal(t, stats.RunID, last.ID)
	require.Nil(t, stats.Previous)
	require.Zero(t, stats.Tracked)
}

func TestSync_ChecksumModeSkipsRemoteStat(t *testing.T) {
	ctx := context.Background()
	srv := agiletest.New(t)
	m := newManifest(t)
	root := localTree(t)

	first, err := newSyncer(srv, syncer.WithManifest(m), syncer.WithChecksum(true)).Run(ctx, root, "/backup")
	require.NoError(t, err)
	require.Equal(t, 2, first.Tracked)
	n, err := m.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	statsBefore := srv.Calls("stat")
	stats, err := newSyncer(srv, syncer.WithManifest(m), syncer.WithChecksum(true)).Run(ctx, root, "/backup")
	require.NoError(t, err)
	require.Equal(t, 2, stats.Skipped)
	require.NotNil(t, stats.Previous)
	require.Equal(t, first.RunID, stats.Previous.ID)
	require.Equal(t, 2, stats.Previous.Uploaded)
	require.Equal(t, 2, stats.Tracked)
	require.Equal(t, 2, srv.Calls("stat")-statsBefore, "only the two directories are checked")

	require.NoError(t, os.WriteFile(filepath.Join(root, "small.txt"), []byte("hello"), 0o600))
	stats, err = newSyncer(srv, syncer.WithManifest(m), syncer.WithChecksum(true)).Run(ctx, root, "/backup")
	require.NoError(t, err)
	require.Equal(t, 1, stats.Skipped)
	require.Equal(t, 1, stats.Uploaded)
	data, ok := srv.File("/backup/photos/small.txt")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), data)
}

func TestSync_BadCredentials(t *testing.T) {
	srv := agiletest.New(t)
	c := client.New(srv.URL, "user", "wrong")

	_, err := syncer.New(c, upload.New(c, nil)).Run(context.Background(), localTree(t), "/backup")
	require.ErrorIs(t, err, common.ErrAuthentication)
	require.Zero(t, srv.Calls("makeDir2"))
}

func TestSync_UploadFailureSurfaces(t *testing.T) {
	srv := agiletest.New(t)
	c := client.New(srv.URL, "user", "secret", client.WithMaxTries(2))
	srv.FailUploads(common.PostRawPath, http.StatusBadGateway, http.StatusBadGateway)

	root := filepath.Join(t.TempDir(), "one")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0o600))

	_, err := syncer.New(c, upload.New(c, nil)).Run(context.Background(), root, "/backup")
	require.ErrorIs(t, err, common.ErrRetriesExhausted)
}
