package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

// Invoker is the one-shot JSON-RPC call used to log in.
type Invoker interface {
	Invoke(ctx context.Context, method string, args []any) (json.RawMessage, error)
}

// Manager returns a cached Session or performs a fresh login.
//
// The cache is shared by every operation of a client. Concurrent callers may
// race to invalidate and repopulate it; that is harmless because login is
// idempotent and a caller holding a stale token simply logs in again.
type Manager struct {
	user     string
	password string
	rpc      Invoker
	logger   logging.Logger

	current atomic.Pointer[Session]
}

func NewManager(user, password string, rpc Invoker, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{user: user, password: password, rpc: rpc, logger: logger}
}

// Login returns the cached session, logging in first if there is none.
// Failures are wrapped in common.ErrAuthentication and are never retried here.
func (m *Manager) Login(ctx context.Context) (Session, error) {
	if s := m.current.Load(); s != nil {
		return *s, nil
	}

	raw, err := m.rpc.Invoke(ctx, "login", []any{m.user, m.password, true})
	if err != nil {
		return Session{}, fmt.Errorf("%w: user %q: %w", common.ErrAuthentication, m.user, err)
	}
	s, err := decodeLogin(raw)
	if err != nil {
		return Session{}, fmt.Errorf("%w: user %q: %w", common.ErrAuthentication, m.user, err)
	}

	m.current.Store(&s)
	m.logger.Debug(ctx, "logged in", "user", m.user, "uid", s.UID, "path", s.HomePath)
	return s, nil
}

// Invalidate drops the cached session. It is safe to call repeatedly.
func (m *Manager) Invalidate() {
	m.current.Store(nil)
}

// Current peeks at the cached session without logging in.
func (m *Manager) Current() (Session, bool) {
	s := m.current.Load()
	if s == nil {
		return Session{}, false
	}
	return *s, true
}
