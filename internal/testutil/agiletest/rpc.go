package agiletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result"`
	Error  any             `json:"error"`
}

// params reads positional RPC parameters.
type params []json.RawMessage

func (p params) str(i int) string {
	var s string
	if i < len(p) {
		_ = json.Unmarshal(p[i], &s)
	}
	return s
}

func (p params) num(i int) int {
	var n int
	if i < len(p) {
		_ = json.Unmarshal(p[i], &n)
	}
	return n
}

func (p params) flag(i int) bool {
	var b bool
	if i < len(p) {
		_ = json.Unmarshal(p[i], &b)
	}
	return b
}

type dict map[string]any

func status(c int) dict { return dict{"code": c} }

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	result, rpcErr := s.dispatch(req.Method, params(req.Params))
	s.mu.Unlock()

	resp := rpcResponse{ID: req.ID, Result: result}
	if rpcErr != "" {
		resp.Error = dict{"code": -32601, "message": rpcErr}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// dispatch runs one RPC method with s.mu held. A non-empty second value is
// reported in the JSON-RPC error member.
func (s *Server) dispatch(method string, p params) (any, string) {
	switch method {
	case "login":
		return s.login(p), ""
	case "logout":
		return 0, ""
	}

	scalar, ok := scalarMethods[method]
	if ok {
		if !s.tokenValid(p.str(0)) {
			return common.CodeExpiredToken, ""
		}
		return scalar(s, p[1:]), ""
	}
	object, ok := dictMethods[method]
	if ok {
		if !s.tokenValid(p.str(0)) {
			return status(common.CodeExpiredToken), ""
		}
		return object(s, p[1:]), ""
	}
	return nil, fmt.Sprintf("method %q not found", method)
}

func (s *Server) login(p params) any {
	if p.str(0) != s.user || p.str(1) != s.password {
		return []any{nil, nil}
	}
	token, err := issueToken(s.user, s.generation, s.secret)
	if err != nil {
		return []any{nil, nil}
	}
	s.logins++
	return []any{token, dict{"uid": testUID, "gid": testGID, "path": s.home}}
}

var scalarMethods = map[string]func(*Server, params) int{
	"makeDir":          (*Server).makeDir,
	"makeDir2":         (*Server).makeDir2,
	"deleteDir":        (*Server).deleteDir,
	"deleteFile":       (*Server).deleteFile,
	"deleteObject":     (*Server).deleteObject,
	"copyFile":         (*Server).copyFile,
	"rename":           (*Server).rename,
	"setMTime":         (*Server).setMTime,
	"abortMultipart":   (*Server).abortMultipart,
	"restartMultipart": (*Server).restartMultipart,
}

var dictMethods = map[string]func(*Server, params) dict{
	"stat":               (*Server).stat,
	"listDir":            (*Server).listDir,
	"listFile":           (*Server).listFile,
	"listPath":           (*Server).listPath,
	"completeMultipart":  (*Server).completeMultipart,
	"getMultipartStatus": (*Server).getMultipartStatus,
	"listMultipart":      (*Server).listMultipart,
	"listMultipartPiece": (*Server).listMultipartPiece,
}

func parent(p string) string { return path.Dir(clean(p)) }

func (s *Server) makeDir(p params) int {
	target := p.str(0)
	if _, ok := s.files.get(target); ok {
		return CodeExists
	}
	if !s.files.isDir(parent(target)) {
		return common.CodeDirNotFound
	}
	s.files.mkdir(target)
	return common.CodeSuccess
}

func (s *Server) makeDir2(p params) int {
	if !s.files.mkdirAll(p.str(0)) {
		return CodeExists
	}
	return common.CodeSuccess
}

func (s *Server) deleteDir(p params) int {
	target := p.str(0)
	if !s.files.isDir(target) || clean(target) == "/" {
		return common.CodeDirNotFound
	}
	if len(s.files.subtree(target)) > 1 {
		return CodeNotEmpty
	}
	s.files.remove(target)
	return common.CodeSuccess
}

func (s *Server) deleteFile(p params) int {
	n, ok := s.files.get(p.str(0))
	if !ok || n.dir {
		return common.CodeFileNotFound
	}
	s.files.remove(p.str(0))
	return common.CodeSuccess
}

func (s *Server) deleteObject(p params) int {
	target := p.str(0)
	if _, ok := s.files.get(target); !ok || clean(target) == "/" {
		return common.CodeNotFound
	}
	s.files.remove(target)
	return common.CodeSuccess
}

func (s *Server) copyFile(p params) int {
	from, to := p.str(0), p.str(1)
	n, ok := s.files.get(from)
	if !ok || n.dir {
		return common.CodeFileNotFound
	}
	if !s.files.isDir(parent(to)) {
		return common.CodeDirNotFound
	}
	s.files.putFile(to, append([]byte(nil), n.data...))
	return common.CodeSuccess
}

func (s *Server) rename(p params) int {
	from, to := p.str(0), p.str(1)
	if _, ok := s.files.get(from); !ok || clean(from) == "/" {
		return common.CodeNotFound
	}
	if _, ok := s.files.get(to); ok {
		return CodeExists
	}
	if !s.files.isDir(parent(to)) {
		return common.CodeDirNotFound
	}
	s.files.move(from, to)
	return common.CodeSuccess
}

func (s *Server) setMTime(p params) int {
	n, ok := s.files.get(p.str(0))
	if !ok {
		return common.CodeNotFound
	}
	n.mtime = int64(p.num(1))
	return common.CodeSuccess
}

func (s *Server) stat(p params) dict {
	n, ok := s.files.get(p.str(0))
	if !ok {
		return status(common.CodeNotFound)
	}
	out := dict{
		"code":  common.CodeSuccess,
		"ctime": n.ctime,
		"mtime": n.mtime,
		"gid":   testGID,
		"uid":   testUID,
		"type":  1,
	}
	if !n.dir {
		out["type"] = 2
		out["size"] = len(n.data)
		out["checksum"] = n.checksum()
	}
	return out
}

func page(names []string, size, offset int) ([]string, int) {
	if offset >= len(names) {
		return nil, 0
	}
	if size <= 0 || offset+size >= len(names) {
		return names[offset:], 0
	}
	return names[offset : offset+size], offset + size
}

func (s *Server) dirEntry(dir, name string, includeStat bool) dict {
	e := dict{"name": name}
	if includeStat {
		n, _ := s.files.get(path.Join(dir, name))
		e["stat"] = dict{"ctime": n.ctime, "mtime": n.mtime, "gid": testGID, "uid": testUID}
	}
	return e
}

func (s *Server) listDir(p params) dict {
	dir := p.str(0)
	if !s.files.isDir(dir) {
		return status(common.CodeDirNotFound)
	}
	names, cookie := page(s.files.children(dir, true), p.num(1), p.num(2))
	list := make([]dict, 0, len(names))
	for _, name := range names {
		list = append(list, s.dirEntry(dir, name, p.flag(3)))
	}
	return dict{"code": common.CodeSuccess, "cookie": cookie, "list": list}
}

func (s *Server) listFile(p params) dict {
	dir := p.str(0)
	if !s.files.isDir(dir) {
		return status(common.CodeDirNotFound)
	}
	names, cookie := page(s.files.children(dir, false), p.num(1), p.num(2))
	list := make([]dict, 0, len(names))
	for _, name := range names {
		e := dict{"name": name, "type": 2}
		if p.flag(3) {
			n, _ := s.files.get(path.Join(dir, name))
			e["stat"] = dict{
				"checksum": n.checksum(), "ctime": n.ctime, "gid": testGID,
				"mimetype": "application/octet-stream", "mtime": n.mtime,
				"size": len(n.data), "uid": testUID,
			}
		}
		list = append(list, e)
	}
	return dict{"code": common.CodeSuccess, "cookie": cookie, "list": list}
}

// listPath pages over directories first, then files. The cookie is the
// decimal offset of the next entry, or null when the listing is complete.
func (s *Server) listPath(p params) dict {
	dir := p.str(0)
	if !s.files.isDir(dir) {
		return status(common.CodeDirNotFound)
	}
	offset, _ := strconv.Atoi(p.str(2))
	dirNames := s.files.children(dir, true)
	all := append(append([]string(nil), dirNames...), s.files.children(dir, false)...)
	names, next := page(all, p.num(1), offset)

	dirs := []dict{}
	files := []dict{}
	for i, name := range names {
		if offset+i < len(dirNames) {
			dirs = append(dirs, s.dirEntry(dir, name, p.flag(3)))
			continue
		}
		e := dict{"name": name}
		if p.flag(3) {
			n, _ := s.files.get(path.Join(dir, name))
			e["stat"] = dict{
				"hash": n.checksum(), "ctime": n.ctime, "ctype": 1, "gid": testGID,
				"mtime": n.mtime, "size": len(n.data), "uid": testUID,
			}
		}
		files = append(files, e)
	}
	var cookie any
	if next > 0 {
		cookie = strconv.Itoa(next)
	}
	return dict{"code": common.CodeSuccess, "cookie": cookie, "dirs": dirs, "files": files}
}

func sortedPieces(mp *multipart) []int {
	out := make([]int, 0, len(mp.pieces))
	for n := range mp.pieces {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (s *Server) completeMultipart(p params) dict {
	mp, ok := s.multiparts[p.str(0)]
	if !ok || mp.state != StateOpen {
		return status(common.CodeNotFound)
	}
	if !s.files.isDir(parent(mp.path)) {
		return status(common.CodeDirNotFound)
	}
	numbers := sortedPieces(mp)
	var data []byte
	for i, n := range numbers {
		if n != i+1 {
			return status(CodeBadArgs)
		}
		data = append(data, mp.pieces[n]...)
	}
	s.files.putFile(mp.path, data)
	mp.state = StateCompleted
	return dict{"code": common.CodeSuccess, "numpieces": len(numbers)}
}

func (s *Server) getMultipartStatus(p params) dict {
	mp, ok := s.multiparts[p.str(0)]
	if !ok {
		return status(common.CodeNotFound)
	}
	return dict{
		"code": common.CodeSuccess, "created": mp.created, "mtime": mp.created,
		"numpieces": len(mp.pieces), "state": mp.state, "content_type": "application/octet-stream",
		"error": 0, "path": mp.path,
	}
}

func (s *Server) listMultipart(p params) dict {
	ids, cookie := page(s.mpOrder, p.num(1), p.num(0))
	list := make([]dict, 0, len(ids))
	for _, id := range ids {
		mp := s.multiparts[id]
		list = append(list, dict{
			"error": 0, "gid": testGID, "mpid": id, "mtime": mp.created,
			"path": mp.path, "state": mp.state, "uid": testUID,
		})
	}
	return dict{"code": common.CodeSuccess, "cookie": cookie, "multipart": list}
}

func (s *Server) listMultipartPiece(p params) dict {
	mp, ok := s.multiparts[p.str(0)]
	if !ok {
		return status(common.CodeNotFound)
	}
	numbers := sortedPieces(mp)
	strs := make([]string, len(numbers))
	for i, n := range numbers {
		strs[i] = strconv.Itoa(n)
	}
	window, cookie := page(strs, p.num(2), p.num(1))
	list := make([]dict, 0, len(window))
	for _, n := range window {
		num, _ := strconv.Atoi(n)
		list = append(list, dict{"error": 0, "number": num, "state": StateCompleted})
	}
	return dict{"code": common.CodeSuccess, "cookie": cookie, "pieces": list}
}

func (s *Server) abortMultipart(p params) int {
	mp, ok := s.multiparts[p.str(0)]
	if !ok {
		return common.CodeNotFound
	}
	mp.state = StateAborted
	return common.CodeSuccess
}

func (s *Server) restartMultipart(p params) int {
	mp, ok := s.multiparts[p.str(0)]
	if !ok {
		return common.CodeNotFound
	}
	mp.state = StateOpen
	mp.pieces = map[int][]byte{}
	mp.created = time.Now().Unix()
	return common.CodeSuccess
}
