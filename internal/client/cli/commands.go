package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/agileclient/internal/client/progress"
)

const listPageSize = 100

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

type command struct {
	usage     string
	help      string
	minArgs   int
	maxArgs   int
	anonymous bool
	run       func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":   {usage: "login", help: "log in again", anonymous: true, run: (*App).login},
	"logout":  {usage: "logout", help: "end the session", run: (*App).logout},
	"whoami":  {usage: "whoami", help: "show user and home directory", run: (*App).whoami},
	"ls":      {usage: "ls [path]", help: "list directories and files", maxArgs: 1, run: (*App).ls},
	"lsd":     {usage: "lsd [path]", help: "list directories", maxArgs: 1, run: (*App).lsd},
	"lsf":     {usage: "lsf [path]", help: "list files with sizes", maxArgs: 1, run: (*App).lsf},
	"stat":    {usage: "stat <path>", help: "show file or directory attributes", minArgs: 1, maxArgs: 1, run: (*App).stat},
	"mkdir":   {usage: "mkdir <path>", help: "create a directory and missing parents", minArgs: 1, maxArgs: 1, run: (*App).mkdir},
	"rm":      {usage: "rm <path>", help: "delete a file", minArgs: 1, maxArgs: 1, run: (*App).rm},
	"rmdir":   {usage: "rmdir <path>", help: "delete an empty directory", minArgs: 1, maxArgs: 1, run: (*App).rmdir},
	"mv":      {usage: "mv <from> <to>", help: "rename a file or directory", minArgs: 2, maxArgs: 2, run: (*App).mv},
	"cp":      {usage: "cp <from> <to>", help: "copy a file", minArgs: 2, maxArgs: 2, run: (*App).cp},
	"touch":   {usage: "touch <path> [unix-time]", help: "set modification time", minArgs: 1, maxArgs: 2, run: (*App).touch},
	"put":     {usage: "put <local> [remote]", help: "upload a file, in pieces when large", minArgs: 1, maxArgs: 2, run: (*App).put},
	"mpls":    {usage: "mpls", help: "list multipart uploads", run: (*App).mpls},
	"mpstat":  {usage: "mpstat <mpid>", help: "show a multipart upload and its pieces", minArgs: 1, maxArgs: 1, run: (*App).mpstat},
	"mpabort": {usage: "mpabort <mpid>", help: "abort a multipart upload", minArgs: 1, maxArgs: 1, run: (*App).mpabort},
	"sync":    {usage: "sync <local-dir> <remote-dir>", help: "mirror a local directory tree", minArgs: 2, maxArgs: 2, run: (*App).sync},
}

func helpText() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(&b, "  %-30s %s\n", c.usage, c.help)
	}
	fmt.Fprintf(&b, "  %-30s %s", "exit | quit", "leave the program")
	return b.String()
}

// Exec runs one named command.
func (a *App) Exec(ctx context.Context, name string, args []string) error {
	c, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if len(args) < c.minArgs || len(args) > c.maxArgs {
		return fmt.Errorf("%w: %s", ErrUsage, c.usage)
	}
	if !c.anonymous && !a.loggedIn {
		return ErrNotLoggedIn
	}
	return c.run(a, ctx, args)
}

func (a *App) login(ctx context.Context, _ []string) error {
	s, err := a.api.Login(ctx)
	if err != nil {
		a.loggedIn = false
		return err
	}
	a.loggedIn = true
	fmt.Fprintf(a.out, "Logged in as %s, home %s\n", a.userName, s.HomePath)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	err := a.api.Logout(ctx, a.api.Token())
	a.loggedIn = false
	return err
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	fmt.Fprintf(a.out, "%s %s\n", a.userName, a.api.HomePath())
	return nil
}

func (a *App) dirArg(args []string) string {
	if len(args) == 0 {
		return a.resolve("")
	}
	return a.resolve(args[0])
}

func (a *App) ls(ctx context.Context, args []string) error {
	dir := a.dirArg(args)
	cookie := ""
	for {
		res, err := a.api.ListPath(ctx, dir, listPageSize, cookie, true)
		if err != nil {
			return err
		}
		for _, d := range res.Dirs {
			fmt.Fprintf(a.out, "%12s  %s/\n", "-", d.Name)
		}
		for _, f := range res.Files {
			fmt.Fprintf(a.out, "%12d  %s\n", f.Size, f.Name)
		}
		if res.Cookie == "" {
			return nil
		}
		cookie = res.Cookie
	}
}

func (a *App) lsd(ctx context.Context, args []string) error {
	dir := a.dirArg(args)
	offset := 0
	for {
		res, err := a.api.ListDir(ctx, dir, listPageSize, offset, false)
		if err != nil {
			return err
		}
		for _, d := range res.Dirs {
			fmt.Fprintf(a.out, "%s/\n", d.Name)
		}
		if res.Cookie == 0 {
			return nil
		}
		offset = int(res.Cookie)
	}
}

func (a *App) lsf(ctx context.Context, args []string) error {
	dir := a.dirArg(args)
	offset := 0
	for {
		res, err := a.api.ListFile(ctx, dir, listPageSize, offset, true)
		if err != nil {
			return err
		}
		for _, f := range res.Files {
			fmt.Fprintf(a.out, "%12d  %s  %s\n", f.Size, time.Unix(int64(f.Mtime), 0).UTC().Format(time.DateTime), f.Name)
		}
		if res.Cookie == 0 {
			return nil
		}
		offset = int(res.Cookie)
	}
}

func (a *App) stat(ctx context.Context, args []string) error {
	p := a.resolve(args[0])
	st, err := a.api.Stat(ctx, p)
	if err != nil {
		return err
	}
	kind := "directory"
	if st.IsFile() {
		kind = "file"
	}
	fmt.Fprintf(a.out, "path:  %s\ntype:  %s\n", p, kind)
	if st.IsFile() {
		fmt.Fprintf(a.out, "size:  %d\nsum:   %s\n", st.Size, st.Checksum)
	}
	fmt.Fprintf(a.out, "mtime: %s\nuid:   %d\ngid:   %d\n",
		time.Unix(int64(st.Mtime), 0).UTC().Format(time.DateTime), st.Uid, st.Gid)
	return nil
}

func (a *App) mkdir(ctx context.Context, args []string) error {
	return a.api.MakeDir2(ctx, a.resolve(args[0]))
}

func (a *App) rm(ctx context.Context, args []string) error {
	return a.api.MustDeleteFile(ctx, a.resolve(args[0]))
}

func (a *App) rmdir(ctx context.Context, args []string) error {
	return a.api.MustDeleteDir(ctx, a.resolve(args[0]))
}

func (a *App) mv(ctx context.Context, args []string) error {
	return a.api.Rename(ctx, a.resolve(args[0]), a.resolve(args[1]))
}

func (a *App) cp(ctx context.Context, args []string) error {
	return a.api.CopyFile(ctx, a.resolve(args[0]), a.resolve(args[1]))
}

func (a *App) touch(ctx context.Context, args []string) error {
	mtime := time.Now().Unix()
	if len(args) == 2 {
		if _, err := fmt.Sscan(args[1], &mtime); err != nil {
			return fmt.Errorf("%w: touch <path> [unix-time]", ErrUsage)
		}
	}
	return a.api.SetMTime(ctx, a.resolve(args[0]), mtime)
}

func (a *App) put(ctx context.Context, args []string) error {
	local := args[0]
	remote := filepath.Base(local)
	if len(args) == 2 {
		remote = args[1]
	}
	remote = a.resolve(remote)

	mpID, err := a.uploader.UploadFile(ctx, local, remote, a.pieceSize, nil, a.progressPrinter(remote))
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}
	if mpID != "" {
		fmt.Fprintf(a.out, "Uploaded %s (multipart %s)\n", remote, mpID)
	} else {
		fmt.Fprintf(a.out, "Uploaded %s\n", remote)
	}
	return nil
}

// progressPrinter redraws a percentage line whenever it changes.
func (a *App) progressPrinter(name string) progress.Func {
	last := int64(-1)
	return func(e progress.Event) {
		if e.TotalBytes <= 0 {
			return
		}
		pct := e.BytesReadSoFar * 100 / e.TotalBytes
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(a.out, "\r%s: %3d%%", name, pct)
	}
}

func (a *App) mpls(ctx context.Context, _ []string) error {
	offset := 0
	for {
		res, err := a.api.ListMultipart(ctx, listPageSize, offset)
		if err != nil {
			return err
		}
		for _, m := range res.Multiparts {
			fmt.Fprintf(a.out, "%s  state=%d  %s\n", m.MpID, m.State, m.Path)
		}
		if res.Cookie == 0 {
			return nil
		}
		offset = res.Cookie
	}
}

func (a *App) mpstat(ctx context.Context, args []string) error {
	mpID := args[0]
	info, err := a.api.GetMultipartStatus(ctx, mpID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "path:   %s\nstate:  %d\nerror:  %d\npieces: %d\n", info.Path, info.State, info.Error, info.NumPieces)

	offset := 0
	for {
		res, err := a.api.ListMultipartPiece(ctx, mpID, listPageSize, offset)
		if err != nil {
			return err
		}
		for _, p := range res.Pieces {
			fmt.Fprintf(a.out, "  #%d state=%d error=%d\n", p.Number, p.State, p.Error)
		}
		if res.Cookie == 0 {
			return nil
		}
		offset = res.Cookie
	}
}

func (a *App) mpabort(ctx context.Context, args []string) error {
	return a.api.AbortMultipart(ctx, args[0])
}

func (a *App) sync(ctx context.Context, args []string) error {
	if a.syncer == nil {
		return errors.New("sync is not configured")
	}
	stats, err := a.syncer.Run(ctx, args[0], a.resolve(args[1]))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %d files (%d bytes), skipped %d, created %d directories in %s\n",
		stats.Uploaded, stats.Bytes, stats.Skipped, stats.Dirs, stats.Duration.Round(time.Millisecond))
	return nil
}
