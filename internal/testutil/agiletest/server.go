// Package agiletest runs an in-memory Agile API on an httptest server.
//
// It speaks the JSON-RPC and upload endpoints well enough for end-to-end
// tests of the client: logins issue signed tokens, ExpireTokens makes every
// outstanding token stale, and FailUploads injects HTTP failures on the
// upload endpoints.
package agiletest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

// Status codes the fake returns besides the ones in package common.
const (
	CodeExists   = -2
	CodeNotEmpty = -3
	CodeBadArgs  = -4
)

const (
	testUID = 1000
	testGID = 1000
)

type multipart struct {
	path    string
	created int64
	state   int
	pieces  map[int][]byte
}

// Multipart states reported by getMultipartStatus and listMultipart.
const (
	StateOpen      = 1
	StateCompleted = 2
	StateAborted   = 3
)

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	user       string
	password   string
	home       string
	secret     []byte
	generation int

	files      tree
	multiparts map[string]*multipart
	mpOrder    []string

	failUploads map[string][]int
	logins      int
	calls       map[string]int
}

type Option func(*Server)

func WithCredentials(user, password string) Option {
	return func(s *Server) { s.user, s.password = user, password }
}

// WithHome sets the path reported by login. It is created on start.
func WithHome(p string) Option {
	return func(s *Server) { s.home = clean(p) }
}

// New starts a server that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		user:        "user",
		password:    "secret",
		home:        "/",
		secret:      []byte("agiletest-signing-key"),
		files:       newTree(),
		multiparts:  map[string]*multipart{},
		calls:       map[string]int{},
		failUploads: map[string][]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.files.mkdirAll(s.home)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+common.RPCPath, s.handleRPC)
	mux.HandleFunc("POST "+common.PostRawPath, s.handlePostRaw)
	mux.HandleFunc("POST "+common.MultipartCreatePath, s.handleMultipartCreate)
	mux.HandleFunc("POST "+common.MultipartPiecePath, s.handleMultipartPiece)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// ExpireTokens invalidates every token issued so far.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// FailUploads makes the next requests to the upload endpoint at urlPath
// answer with the given HTTP statuses, one per request, before normal
// service resumes.
func (s *Server) FailUploads(urlPath string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUploads[urlPath] = append(s.failUploads[urlPath], statuses...)
}

// Logins returns how many successful logins were served.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Calls returns how many times an RPC method or upload path was hit.
func (s *Server) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// File returns the content stored at p.
func (s *Server) File(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.files.get(p)
	if !ok || n.dir {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// Exists reports whether p is a file or directory.
func (s *Server) Exists(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files.get(p)
	return ok
}

// PutFile stores data at p, creating parent directories.
func (s *Server) PutFile(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files.mkdirAll(parent(p))
	s.files.putFile(p, append([]byte(nil), data...))
}

// MkdirAll creates p and its parents.
func (s *Server) MkdirAll(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files.mkdirAll(p)
}

// Pieces returns the piece numbers received for mpID in ascending order.
func (s *Server) Pieces(mpID string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.multiparts[mpID]
	if !ok {
		return nil
	}
	return sortedPieces(mp)
}

// tokenValid reports whether raw was signed by s in the current generation.
func (s *Server) tokenValid(raw string) bool {
	_, err := parseToken(raw, s.generation, s.secret)
	return err == nil
}
