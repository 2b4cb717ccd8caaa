package agiletest

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

// admit reads the whole request body, applies injected failures and checks
// the token. It returns false when the response has already been written.
func (s *Server) admit(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	s.calls[r.URL.Path]++

	if queue := s.failUploads[r.URL.Path]; len(queue) > 0 {
		st := queue[0]
		s.failUploads[r.URL.Path] = queue[1:]
		w.Header().Set(common.StatusHeader, strconv.Itoa(common.CodeUnknownError))
		w.WriteHeader(st)
		return nil, false
	}
	if !s.tokenValid(r.Header.Get(common.AuthorizationHeader)) {
		writeStatus(w, common.CodeExpiredToken)
		return nil, false
	}
	return body, true
}

func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set(common.StatusHeader, strconv.Itoa(code))
	w.WriteHeader(http.StatusOK)
}

func targetPath(r *http.Request) string {
	return path.Join(clean(r.Header.Get(common.DirectoryHeader)), r.Header.Get(common.BasenameHeader))
}

func (s *Server) handlePostRaw(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.admit(w, r)
	if !ok {
		return
	}
	target := targetPath(r)
	if !s.files.isDir(parent(target)) {
		writeStatus(w, common.CodeDirNotFound)
		return
	}
	s.files.putFile(target, body)
	n, _ := s.files.get(target)

	w.Header().Set(common.PathHeader, clean(target))
	w.Header().Set(common.SizeHeader, strconv.Itoa(len(body)))
	w.Header().Set(common.ChecksumHeader, n.checksum())
	writeStatus(w, common.CodeSuccess)
}

func (s *Server) handleMultipartCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admit(w, r); !ok {
		return
	}
	target := targetPath(r)
	if !s.files.isDir(parent(target)) {
		writeStatus(w, common.CodeDirNotFound)
		return
	}
	id := uuid.NewString()
	s.multiparts[id] = &multipart{
		path:    clean(target),
		created: time.Now().Unix(),
		state:   StateOpen,
		pieces:  map[int][]byte{},
	}
	s.mpOrder = append(s.mpOrder, id)

	w.Header().Set(common.MultipartHeader, id)
	w.Header().Set(common.PathHeader, clean(target))
	writeStatus(w, common.CodeSuccess)
}

func (s *Server) handleMultipartPiece(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.admit(w, r)
	if !ok {
		return
	}
	mp, found := s.multiparts[r.Header.Get(common.MultipartHeader)]
	if !found || mp.state != StateOpen {
		writeStatus(w, common.CodeNotFound)
		return
	}
	number, err := strconv.Atoi(r.Header.Get(common.PartHeader))
	if err != nil || number < 1 {
		writeStatus(w, CodeBadArgs)
		return
	}
	mp.pieces[number] = body

	n := node{data: body}
	w.Header().Set(common.SizeHeader, strconv.Itoa(len(body)))
	w.Header().Set(common.ChecksumHeader, n.checksum())
	writeStatus(w, common.CodeSuccess)
}
