// Package syncer mirrors a local directory tree into Agile storage.
//
// Directories are walked in order and created remotely when missing. Files
// are uploaded concurrently, bounded by a weighted semaphore; a file whose
// remote size already matches the local size is skipped. With a manifest
// and checksum mode enabled, files whose content digest matches the last
// recorded upload are skipped without asking the server.
package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/agileclient/internal/client/manifest"
	"github.com/dmitrijs2005/agileclient/internal/client/models"
	"github.com/dmitrijs2005/agileclient/internal/client/progress"
	"github.com/dmitrijs2005/agileclient/internal/client/session"
	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

const (
	DefaultConcurrency = 4
	manifestBatchSize  = 64
)

var ErrNotADirectory = errors.New("not a directory")

// API is the part of client.Client the syncer uses.
type API interface {
	Login(ctx context.Context) (session.Session, error)
	Stat(ctx context.Context, remotePath string) (*models.StatResult, error)
	MakeDir2(ctx context.Context, remotePath string) error
}

// Uploader is implemented by upload.SmartUpload.
type Uploader interface {
	UploadFile(ctx context.Context, localPath, remotePath string, pieceSize int64, headers map[string]string, onProgress progress.Func) (string, error)
}

// Stats summarizes a run. In pretend mode Uploaded and Dirs count what
// would have been uploaded or created. Previous and Tracked are only set
// when a manifest is configured.
type Stats struct {
	RunID    string
	Dirs     int
	Uploaded int
	Skipped  int
	Bytes    int64
	Duration time.Duration

	// Previous is the last run recorded before this one, if any.
	Previous *manifest.Run
	// Tracked is the number of files in the manifest after this run.
	Tracked int
}

type options struct {
	concurrency int
	pieceSize   int64
	pretend     bool
	checksum    bool
	manifest    manifest.Repository
	logger      logging.Logger
}

type Option func(*options)

func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func WithPieceSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.pieceSize = n
		}
	}
}

// WithPretend reports what would be done without changing anything.
func WithPretend(pretend bool) Option {
	return func(o *options) { o.pretend = pretend }
}

// WithChecksum skips files whose size and blake2b digest match the manifest.
// It has no effect without a manifest.
func WithChecksum(checksum bool) Option {
	return func(o *options) { o.checksum = checksum }
}

func WithManifest(m manifest.Repository) Option {
	return func(o *options) { o.manifest = m }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type Syncer struct {
	api      API
	uploader Uploader
	opts     options
}

func New(api API, uploader Uploader, opts ...Option) *Syncer {
	o := options{concurrency: DefaultConcurrency, pieceSize: 10 * 1024 * 1024, logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Syncer{api: api, uploader: uploader, opts: o}
}

// run holds the state of one Run call.
type run struct {
	*Syncer
	logger logging.Logger
	sem    *semaphore.Weighted

	mu      sync.Mutex
	stats   Stats
	pending []manifest.Entry
}

// Run mirrors localDir to remoteDir/<base name of localDir>. It logs in
// first and aborts if that fails. The first upload error cancels the
// remaining work and is returned.
func (s *Syncer) Run(ctx context.Context, localDir, remoteDir string) (Stats, error) {
	started := time.Now()
	r := &run{
		Syncer: s,
		sem:    semaphore.NewWeighted(int64(s.opts.concurrency)),
	}
	r.stats.RunID = uuid.NewString()
	r.logger = s.opts.logger.With("run", r.stats.RunID)

	info, err := os.Stat(localDir)
	if err != nil {
		return r.stats, fmt.Errorf("sync %s: %w", localDir, err)
	}
	if !info.IsDir() {
		return r.stats, fmt.Errorf("sync %s: %w", localDir, ErrNotADirectory)
	}

	if _, err := s.api.Login(ctx); err != nil {
		r.logger.Error(ctx, "login failed", "error", err)
		return r.stats, err
	}
	r.logger.Info(ctx, "sync started", "from", localDir, "to", remoteDir, "pretend", s.opts.pretend)
	r.loadPrevious(ctx)

	g, gctx := errgroup.WithContext(ctx)
	walkErr := r.syncDir(gctx, g, localDir, remoteDir)
	if err := g.Wait(); err != nil {
		walkErr = err
	}

	if err := r.flush(ctx); err != nil && walkErr == nil {
		walkErr = err
	}
	r.stats.Duration = time.Since(started)
	r.saveRun(ctx, localDir, remoteDir, started)
	r.countTracked(ctx)

	if walkErr != nil {
		r.logger.Error(ctx, "sync failed", "error", walkErr)
		return r.stats, walkErr
	}
	r.logger.Info(ctx, "sync finished",
		"uploaded", r.stats.Uploaded, "skipped", r.stats.Skipped, "dirs", r.stats.Dirs,
		"bytes", r.stats.Bytes, "took", r.stats.Duration)
	return r.stats, nil
}

func joinRemote(dir, name string) string {
	return strings.TrimRight(dir, "/") + "/" + name
}

func (r *run) syncDir(ctx context.Context, g *errgroup.Group, localDir, remoteParent string) error {
	remoteDir := joinRemote(remoteParent, filepath.Base(localDir))
	if err := r.ensureDir(ctx, remoteDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(localDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", localDir, err)
	}

	var subdirs []string
	for _, e := range entries {
		local := filepath.Join(localDir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, local)
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		remote := joinRemote(remoteDir, e.Name())
		g.Go(func() error {
			defer r.sem.Release(1)
			return r.syncFile(ctx, local, remote)
		})
	}

	for _, d := range subdirs {
		if err := r.syncDir(ctx, g, d, remoteDir); err != nil {
			return err
		}
	}
	return nil
}

// stat returns nil when remotePath does not exist.
func (r *run) stat(ctx context.Context, remotePath string) (*models.StatResult, error) {
	st, err := r.api.Stat(ctx, remotePath)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return st, err
}

func (r *run) ensureDir(ctx context.Context, remoteDir string) error {
	st, err := r.stat(ctx, remoteDir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", remoteDir, err)
	}
	if st != nil {
		if !st.IsDir() {
			return fmt.Errorf("%s: %w", remoteDir, ErrNotADirectory)
		}
		return nil
	}

	r.count(func(s *Stats) { s.Dirs++ })
	if r.opts.pretend {
		r.logger.Info(ctx, "would create directory", "path", remoteDir)
		return nil
	}
	if err := r.api.MakeDir2(ctx, remoteDir); err != nil {
		return fmt.Errorf("create directory %s: %w", remoteDir, err)
	}
	r.logger.Info(ctx, "created directory", "path", remoteDir)
	return nil
}

func (r *run) syncFile(ctx context.Context, localPath, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	size := info.Size()

	var digest []byte
	if r.opts.checksum && r.opts.manifest != nil {
		digest, err = fileDigest(localPath)
		if err != nil {
			return err
		}
		prev, err := r.opts.manifest.Get(ctx, remotePath)
		if err != nil {
			return err
		}
		if prev != nil && prev.Size == size && bytes.Equal(prev.Digest, digest) {
			r.logger.Debug(ctx, "skipping unchanged file", "path", remotePath)
			r.count(func(s *Stats) { s.Skipped++ })
			return nil
		}
	}

	st, err := r.stat(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", remotePath, err)
	}
	if st != nil && st.Size == size {
		r.logger.Debug(ctx, "skipping existing file", "path", remotePath, "size", size)
		r.count(func(s *Stats) { s.Skipped++ })
		return nil
	}

	if r.opts.pretend {
		r.logger.Info(ctx, "would upload file", "path", remotePath, "size", size)
		r.count(func(s *Stats) { s.Uploaded++; s.Bytes += size })
		return nil
	}

	mpID, err := r.uploader.UploadFile(ctx, localPath, remotePath, r.opts.pieceSize, nil, nil)
	if err != nil {
		r.logger.Warn(ctx, "upload failed", "path", remotePath, "code", common.CodeOf(err))
		return fmt.Errorf("upload %s: %w", localPath, err)
	}
	r.logger.Info(ctx, "uploaded file", "path", remotePath, "size", size, "mpid", mpID)
	r.count(func(s *Stats) { s.Uploaded++; s.Bytes += size })

	return r.record(ctx, manifest.Entry{
		RemotePath: remotePath,
		Size:       size,
		MTime:      info.ModTime(),
		Digest:     digest,
		SyncedAt:   time.Now(),
	})
}

func (r *run) count(fn func(*Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.stats)
}

// record queues a manifest entry and writes a batch when enough are queued.
func (r *run) record(ctx context.Context, e manifest.Entry) error {
	if r.opts.manifest == nil {
		return nil
	}
	r.mu.Lock()
	r.pending = append(r.pending, e)
	full := len(r.pending) >= manifestBatchSize
	r.mu.Unlock()

	if full {
		return r.flush(ctx)
	}
	return nil
}

func (r *run) flush(ctx context.Context) error {
	if r.opts.manifest == nil {
		return nil
	}
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if err := r.opts.manifest.PutBatch(ctx, batch); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (r *run) saveRun(ctx context.Context, localDir, remoteDir string, started time.Time) {
	if r.opts.manifest == nil {
		return
	}
	err := r.opts.manifest.SaveRun(ctx, manifest.Run{
		ID:         r.stats.RunID,
		LocalDir:   localDir,
		RemoteDir:  remoteDir,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Uploaded:   r.stats.Uploaded,
		Skipped:    r.stats.Skipped,
		Dirs:       r.stats.Dirs,
		Pretend:    r.opts.pretend,
	})
	if err != nil {
		r.logger.Warn(ctx, "failed to record sync run", "error", err)
	}
}

func (r *run) loadPrevious(ctx context.Context) {
	if r.opts.manifest == nil {
		return
	}
	prev, err := r.opts.manifest.LastRun(ctx)
	if err != nil {
		r.logger.Warn(ctx, "failed to read previous sync run", "error", err)
		return
	}
	if prev == nil {
		return
	}
	r.stats.Previous = prev
	r.logger.Info(ctx, "previous sync run", "id", prev.ID, "finished", prev.FinishedAt,
		"uploaded", prev.Uploaded, "pretend", prev.Pretend)
}

func (r *run) countTracked(ctx context.Context) {
	if r.opts.manifest == nil {
		return
	}
	n, err := r.opts.manifest.Count(ctx)
	if err != nil {
		r.logger.Warn(ctx, "failed to count manifest entries", "error", err)
		return
	}
	r.stats.Tracked = n
}

// fileDigest returns the blake2b-256 digest of the file at p.
func fileDigest(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", p, err)
	}
	return h.Sum(nil), nil
}
