package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/dmitrijs2005/agileclient/internal/client/retry"
	"github.com/dmitrijs2005/agileclient/internal/client/session"
)

/*************
 * Fake collaborators
 *************/

type fakeRPC struct {
	// inputs captured
	lastMethod string
	lastArgs   []any
	lastCodeOf retry.CodeGetter

	// outputs preset
	result string
	err    error
}

func (f *fakeRPC) Invoke(ctx context.Context, method string, args retry.ArgMaker, codeOf retry.CodeGetter) (json.RawMessage, error) {
	f.lastMethod = method
	f.lastArgs = args("tok")
	f.lastCodeOf = codeOf
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.result), nil
}

type fakeHTTP struct {
	lastURL     string
	lastTag     string
	lastHeaders map[string]string
	lastBody    []byte

	respHeader http.Header
	err        error
}

func (f *fakeHTTP) Invoke(ctx context.Context, url string, body io.ReadSeeker, tag string, headers map[string]string) (http.Header, error) {
	f.lastURL = url
	f.lastTag = tag
	f.lastHeaders = headers
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, body)
	f.lastBody = buf.Bytes()
	return f.respHeader, f.err
}

type fakeSessions struct {
	current     *session.Session
	invalidates int
	logins      int
}

func (f *fakeSessions) Login(ctx context.Context) (session.Session, error) {
	f.logins++
	if f.current == nil {
		f.current = &session.Session{Token: "fresh", HomePath: "/home"}
	}
	return *f.current, nil
}

func (f *fakeSessions) Invalidate() {
	f.invalidates++
	f.current = nil
}

func (f *fakeSessions) Current() (session.Session, bool) {
	if f.current == nil {
		return session.Session{}, false
	}
	return *f.current, true
}

func newTestClient() (*Client, *fakeRPC, *fakeHTTP, *fakeSessions) {
	rpc := &fakeRPC{result: "0"}
	h := &fakeHTTP{respHeader: http.Header{"X-Agile-Status": []string{"0"}}}
	s := &fakeSessions{}
	return NewWithCollaborators("http://agile.test/", rpc, h, s), rpc, h, s
}
