// Package progress carries byte-transfer notifications from the HTTP
// transport to whoever started an upload.
//
// A callback is attached to the context of one call with WithFunc, the same
// way net/http/httptrace attaches a ClientTrace, so there is no long-lived
// subscription to manage.
package progress

import (
	"context"
	"io"
)

// BlockSize is the copy granularity of request bodies. One Event fires per
// block, independent of piece size.
const BlockSize = 32 * 1024

// Event describes one block read from an upload body.
type Event struct {
	Tag             string
	BytesInThisRead int64
	BytesReadSoFar  int64
	TotalBytes      int64
}

type Func func(Event)

type ctxKey struct{}

// WithFunc returns a copy of ctx that delivers progress events to fn.
func WithFunc(ctx context.Context, fn Func) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, fn)
}

// FromContext returns the callback attached to ctx, or nil.
func FromContext(ctx context.Context) Func {
	fn, _ := ctx.Value(ctxKey{}).(Func)
	return fn
}

// Reader reports every successful Read of the wrapped reader. Reads are
// capped at BlockSize.
type Reader struct {
	r     io.Reader
	fn    Func
	tag   string
	total int64
	read  int64
}

func NewReader(r io.Reader, total int64, tag string, fn Func) *Reader {
	return &Reader{r: r, fn: fn, tag: tag, total: total}
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) > BlockSize {
		p = p[:BlockSize]
	}
	n, err := r.r.Read(p)
	if n > 0 {
		r.read += int64(n)
		if r.fn != nil {
			r.fn(Event{Tag: r.tag, BytesInThisRead: int64(n), BytesReadSoFar: r.read, TotalBytes: r.total})
		}
	}
	return n, err
}

// Copy copies src to dst in BlockSize blocks and reports each block to fn.
func Copy(dst io.Writer, src io.Reader, total int64, tag string, fn Func) (int64, error) {
	buf := make([]byte, BlockSize)
	return io.CopyBuffer(onlyWriter{dst}, NewReader(src, total, tag, fn), buf)
}

// onlyWriter hides ReaderFrom so io.CopyBuffer really uses the block buffer.
type onlyWriter struct {
	io.Writer
}
