package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/agileclient/internal/client/session"
)

// fakeSessions caches its token until Invalidate, like session.Manager.
// logins counts Login calls; issued counts tokens actually handed out.
type fakeSessions struct {
	logins      int
	invalidates int
	issued      int
	current     string
	loginErr    error
}

func (f *fakeSessions) Login(ctx context.Context) (session.Session, error) {
	if f.loginErr != nil {
		return session.Session{}, f.loginErr
	}
	f.logins++
	if f.current == "" {
		f.issued++
		f.current = fmt.Sprintf("tok-%d", f.issued)
	}
	return session.Session{Token: f.current}, nil
}

func (f *fakeSessions) Invalidate() {
	f.invalidates++
	f.current = ""
}

type rpcReply struct {
	result string
	err    error
}

type fakeRPC struct {
	replies []rpcReply
	calls   int

	methods []string
	args    [][]any
}

func (f *fakeRPC) Invoke(ctx context.Context, method string, args []any) (json.RawMessage, error) {
	i := f.calls
	f.calls++
	f.methods = append(f.methods, method)
	f.args = append(f.args, args)
	if i >= len(f.replies) {
		return nil, fmt.Errorf("unexpected call %d", i)
	}
	r := f.replies[i]
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.result), nil
}

type postReply struct {
	// consume is how many body bytes the fake reads before answering.
	consume int
	header  http.Header
	err     error
}

type fakePoster struct {
	replies []postReply
	calls   int

	tokens    []string
	positions []int64
	bodies    [][]byte
}

func (f *fakePoster) Post(ctx context.Context, url, token string, body io.ReadSeeker, tag string, headers map[string]string) (http.Header, error) {
	i := f.calls
	f.calls++
	f.tokens = append(f.tokens, token)

	pos, _ := body.Seek(0, io.SeekCurrent)
	f.positions = append(f.positions, pos)

	if i >= len(f.replies) {
		return nil, fmt.Errorf("unexpected call %d", i)
	}
	r := f.replies[i]

	var buf []byte
	if r.consume < 0 {
		buf, _ = io.ReadAll(body)
	} else {
		buf = make([]byte, r.consume)
		n, _ := io.ReadFull(body, buf)
		buf = buf[:n]
	}
	f.bodies = append(f.bodies, buf)

	return r.header, r.err
}
