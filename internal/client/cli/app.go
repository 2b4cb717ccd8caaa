package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/agileclient/internal/client/models"
	"github.com/dmitrijs2005/agileclient/internal/client/progress"
	"github.com/dmitrijs2005/agileclient/internal/client/session"
	"github.com/dmitrijs2005/agileclient/internal/client/syncer"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

// API is the subset of client.Client used by the REPL.
type API interface {
	Login(ctx context.Context) (session.Session, error)
	Logout(ctx context.Context, token string) error
	Token() string
	HomePath() string

	Stat(ctx context.Context, remotePath string) (*models.StatResult, error)
	ListDir(ctx context.Context, remotePath string, pageSize, pageOffset int, includeStat bool) (*models.ListDirResults, error)
	ListFile(ctx context.Context, remotePath string, pageSize, pageOffset int, includeStat bool) (*models.ListFileResults, error)
	ListPath(ctx context.Context, remotePath string, pageSize int, cookie string, includeStat bool) (*models.ListPathResults, error)

	MakeDir2(ctx context.Context, remotePath string) error
	MustDeleteFile(ctx context.Context, remotePath string) error
	MustDeleteDir(ctx context.Context, remotePath string) error
	Rename(ctx context.Context, fromPath, toPath string) error
	CopyFile(ctx context.Context, fromPath, toPath string) error
	SetMTime(ctx context.Context, remotePath string, mtime int64) error

	ListMultipart(ctx context.Context, pageSize, pageOffset int) (*models.MultipartResults, error)
	GetMultipartStatus(ctx context.Context, mpID string) (*models.MultipartInfo, error)
	ListMultipartPiece(ctx context.Context, mpID string, pageSize, pageOffset int) (*models.MultipartPieceResults, error)
	AbortMultipart(ctx context.Context, mpID string) error
}

type Uploader interface {
	UploadFile(ctx context.Context, localPath, remotePath string, pieceSize int64, headers map[string]string, onProgress progress.Func) (string, error)
}

type Syncer interface {
	Run(ctx context.Context, localDir, remoteDir string) (syncer.Stats, error)
}

var ErrNotLoggedIn = errors.New("not logged in, use 'login'")

type App struct {
	api       API
	uploader  Uploader
	syncer    Syncer
	logger    logging.Logger
	userName  string
	pieceSize int64
	loggedIn  bool

	in  io.Reader
	out io.Writer
}

func NewApp(api API, uploader Uploader, s Syncer, userName string, pieceSize int64, logger logging.Logger, in io.Reader, out io.Writer) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	return &App{
		api:       api,
		uploader:  uploader,
		syncer:    s,
		logger:    logger,
		userName:  userName,
		pieceSize: pieceSize,
		in:        in,
		out:       out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) getStatus() string {
	if !a.loggedIn {
		return "(offline)"
	}
	return fmt.Sprintf("(%s %s)", a.userName, a.api.HomePath())
}

// Run logs in once and then serves the REPL until EOF or exit.
func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
	if a.loggedIn {
		if err := a.Exec(ctx, "logout", nil); err != nil {
			a.logger.Warn(ctx, "logout failed", "error", err)
		}
	}
}

func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Agile storage CLI (type 'help' for commands)")

	if err := a.Exec(ctx, "login", nil); err != nil {
		fmt.Fprintln(a.out, "login failed:", err)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.in))
}

// resolve maps p onto an absolute remote path.
func (a *App) resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join("/", a.api.HomePath(), p)
}
