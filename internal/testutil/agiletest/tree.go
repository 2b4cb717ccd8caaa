package agiletest

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"sort"
	"strings"
	"time"
)

type node struct {
	dir   bool
	data  []byte
	ctime int64
	mtime int64
}

func (n *node) checksum() string {
	sum := sha256.Sum256(n.data)
	return hex.EncodeToString(sum[:])
}

// tree is a flat map of cleaned absolute paths. The root always exists.
type tree map[string]*node

func newTree() tree {
	now := time.Now().Unix()
	return tree{"/": {dir: true, ctime: now, mtime: now}}
}

func clean(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

func (t tree) get(p string) (*node, bool) {
	n, ok := t[clean(p)]
	return n, ok
}

func (t tree) isDir(p string) bool {
	n, ok := t.get(p)
	return ok && n.dir
}

func (t tree) mkdir(p string) {
	now := time.Now().Unix()
	t[clean(p)] = &node{dir: true, ctime: now, mtime: now}
}

// mkdirAll creates p and any missing parents. It fails if a component is a
// file.
func (t tree) mkdirAll(p string) bool {
	p = clean(p)
	if n, ok := t[p]; ok {
		return n.dir
	}
	if !t.mkdirAll(path.Dir(p)) {
		return false
	}
	t.mkdir(p)
	return true
}

func (t tree) putFile(p string, data []byte) {
	now := time.Now().Unix()
	t[clean(p)] = &node{data: data, ctime: now, mtime: now}
}

// children returns the direct children of dir sorted by name.
func (t tree) children(dir string, dirs bool) []string {
	dir = clean(dir)
	var out []string
	for p, n := range t {
		if p == "/" || path.Dir(p) != dir || n.dir != dirs {
			continue
		}
		out = append(out, path.Base(p))
	}
	sort.Strings(out)
	return out
}

// subtree returns p and every path below it.
func (t tree) subtree(p string) []string {
	p = clean(p)
	prefix := strings.TrimSuffix(p, "/") + "/"
	var out []string
	for k := range t {
		if k == p || strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (t tree) remove(p string) {
	for _, k := range t.subtree(p) {
		delete(t, k)
	}
}

func (t tree) move(from, to string) {
	from, to = clean(from), clean(to)
	for _, k := range t.subtree(from) {
		t[to+strings.TrimPrefix(k, from)] = t[k]
		delete(t, k)
	}
}
