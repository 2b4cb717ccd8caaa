package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/agileclient/internal/client/retry"
	"github.com/dmitrijs2005/agileclient/internal/client/session"
	"github.com/dmitrijs2005/agileclient/internal/client/transport"
	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

// DefaultTimeout applies to every HTTP request when no client is injected.
const DefaultTimeout = 30 * time.Second

// RPCInvoker is the resilient JSON-RPC call, implemented by retry.RPC.
type RPCInvoker interface {
	Invoke(ctx context.Context, method string, args retry.ArgMaker, codeOf retry.CodeGetter) (json.RawMessage, error)
}

// HTTPInvoker is the resilient upload POST, implemented by retry.HTTP.
type HTTPInvoker interface {
	Invoke(ctx context.Context, url string, body io.ReadSeeker, tag string, headers map[string]string) (http.Header, error)
}

// LoginManager is implemented by session.Manager.
type LoginManager interface {
	Login(ctx context.Context) (session.Session, error)
	Invalidate()
	Current() (session.Session, bool)
}

type urls struct {
	rpc        string
	postRaw    string
	postForm   string
	mpCreate   string
	mpPiece    string
	mpComplete string
}

func newURLs(apiURL string) urls {
	base := strings.TrimRight(apiURL, "/")
	return urls{
		rpc:        base + common.RPCPath,
		postRaw:    base + common.PostRawPath,
		postForm:   base + common.PostFormPath,
		mpCreate:   base + common.MultipartCreatePath,
		mpPiece:    base + common.MultipartPiecePath,
		mpComplete: base + common.MultipartCompletePath,
	}
}

// Client talks to one Agile API endpoint as one user.
type Client struct {
	urls     urls
	rpc      RPCInvoker
	http     HTTPInvoker
	sessions LoginManager
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	maxTries   int
	logger     logging.Logger
}

type Option func(*options)

// WithHTTPClient replaces the HTTP client used by both transports. The
// timeout option is ignored when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithMaxTries(n int) Option {
	return func(o *options) { o.maxTries = n }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New wires the transports, the login manager and both retry loops for
// apiURL.
func New(apiURL, user, password string, opts ...Option) *Client {
	o := options{timeout: DefaultTimeout, maxTries: retry.DefaultMaxTries, logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}

	u := newURLs(apiURL)
	rpcTransport := transport.NewJSONRPC(u.rpc, hc)
	sessions := session.NewManager(user, password, rpcTransport, o.logger)
	retryOpts := []retry.Option{retry.WithMaxTries(o.maxTries), retry.WithLogger(o.logger)}

	return &Client{
		urls:     u,
		rpc:      retry.NewRPC(rpcTransport, sessions, retryOpts...),
		http:     retry.NewHTTP(transport.NewHTTP(hc), sessions, retryOpts...),
		sessions: sessions,
	}
}

// NewWithCollaborators builds a Client from already constructed retry loops
// and login manager.
func NewWithCollaborators(apiURL string, rpc RPCInvoker, http HTTPInvoker, sessions LoginManager) *Client {
	return &Client{urls: newURLs(apiURL), rpc: rpc, http: http, sessions: sessions}
}

// Login forces a fresh login and returns the new session.
func (c *Client) Login(ctx context.Context) (session.Session, error) {
	c.sessions.Invalidate()
	return c.sessions.Login(ctx)
}

// Logout expires token on the server. The token is sent as given, not taken
// from the current session.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.rpc.Invoke(ctx, "logout", retry.RawArgs(token), retry.ScalarCode)
	return err
}

// Token returns the token of the current session, or "" before login.
func (c *Client) Token() string {
	s, ok := c.sessions.Current()
	if !ok {
		return ""
	}
	return s.Token
}

// HomePath returns the Agile path of the logged in user, or "" before login.
func (c *Client) HomePath() string {
	s, ok := c.sessions.Current()
	if !ok {
		return ""
	}
	return s.HomePath
}

// ExecRawJSON invokes an arbitrary method with the session token prepended
// to args. codeOf decides which results count as success.
func (c *Client) ExecRawJSON(ctx context.Context, method string, codeOf retry.CodeGetter, args ...any) (json.RawMessage, error) {
	return c.rpc.Invoke(ctx, method, retry.TokenArgs(args...), codeOf)
}

// execCode invokes a method whose whole result is a status code.
func (c *Client) execCode(ctx context.Context, method string, args ...any) error {
	_, err := c.ExecRawJSON(ctx, method, retry.ScalarCode, args...)
	return err
}

// execDict invokes a method returning an object with a "code" member and
// decodes it into out.
func (c *Client) execDict(ctx context.Context, out any, method string, args ...any) error {
	raw, err := c.ExecRawJSON(ctx, method, retry.DictCode, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return decodeError(err, "%s %v: decode result", method, args)
	}
	return nil
}
