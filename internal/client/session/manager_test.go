package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	mu sync.Mutex

	results []json.RawMessage
	errs    []error

	calls      int
	lastMethod string
	lastArgs   []any
}

func (f *fakeInvoker) Invoke(ctx context.Context, method string, args []any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.lastMethod = method
	f.lastArgs = args

	var res json.RawMessage
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

const goodLogin = `["tok-1", {"uid": 10, "gid": 20, "path": "/home/u"}]`

func TestLogin_DecodesAndCaches(t *testing.T) {
	f := &fakeInvoker{results: []json.RawMessage{json.RawMessage(goodLogin)}}
	m := NewManager("user", "secret", f, nil)

	s, err := m.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, Session{Token: "tok-1", UID: 10, GID: 20, HomePath: "/home/u"}, s)
	require.Equal(t, "login", f.lastMethod)
	require.Equal(t, []any{"user", "secret", true}, f.lastArgs)

	s2, err := m.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, s, s2)
	require.Equal(t, 1, f.calls)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := &fakeInvoker{results: []json.RawMessage{json.RawMessage(`[null, null]`)}}
	m := NewManager("user", "wrong", f, nil)

	_, err := m.Login(context.Background())
	require.ErrorIs(t, err, common.ErrAuthentication)
	require.ErrorIs(t, err, errBadCredentials)

	_, ok := m.Current()
	require.False(t, ok)
}

func TestLogin_TransportFailureIsAuthenticationFailure(t *testing.T) {
	boom := errors.New("connection refused")
	f := &fakeInvoker{errs: []error{boom}}
	m := NewManager("user", "secret", f, nil)

	_, err := m.Login(context.Background())
	require.ErrorIs(t, err, common.ErrAuthentication)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, f.calls)
}

func TestLogin_MalformedResults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"object", `{"token": "x"}`},
		{"one element", `["x"]`},
		{"missing identity", `["x", null]`},
		{"missing token", `[null, {"uid": 1, "gid": 1, "path": "/"}]`},
		{"missing uid", `["x", {"gid": 1, "path": "/"}]`},
		{"wrong types", `[1, {"uid": "a", "gid": 1, "path": "/"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeInvoker{results: []json.RawMessage{json.RawMessage(tt.raw)}}
			m := NewManager("user", "secret", f, nil)
			_, err := m.Login(context.Background())
			require.ErrorIs(t, err, common.ErrAuthentication)
		})
	}
}

func TestInvalidate_ForcesFreshLogin(t *testing.T) {
	f := &fakeInvoker{results: []json.RawMessage{
		json.RawMessage(goodLogin),
		json.RawMessage(`["tok-2", {"uid": 10, "gid": 20, "path": "/home/u"}]`),
	}}
	m := NewManager("user", "secret", f, nil)

	s1, err := m.Login(context.Background())
	require.NoError(t, err)

	m.Invalidate()
	m.Invalidate()
	_, ok := m.Current()
	require.False(t, ok)

	s2, err := m.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", s1.Token)
	require.Equal(t, "tok-2", s2.Token)
	require.Equal(t, 2, f.calls)
}

func TestCurrent_DoesNotLogin(t *testing.T) {
	f := &fakeInvoker{results: []json.RawMessage{json.RawMessage(goodLogin)}}
	m := NewManager("user", "secret", f, nil)

	_, ok := m.Current()
	require.False(t, ok)
	require.Equal(t, 0, f.calls)

	_, err := m.Login(context.Background())
	require.NoError(t, err)

	s, ok := m.Current()
	require.True(t, ok)
	require.Equal(t, "tok-1", s.Token)
}

func TestLogin_ConcurrentCallersAllGetASession(t *testing.T) {
	results := make([]json.RawMessage, 16)
	for i := range results {
		results[i] = json.RawMessage(goodLogin)
	}
	f := &fakeInvoker{results: results}
	m := NewManager("user", "secret", f, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Login(context.Background())
			if err != nil || s.Token != "tok-1" {
				t.Errorf("unexpected login result: %+v, %v", s, err)
			}
		}()
	}
	wg.Wait()
}
