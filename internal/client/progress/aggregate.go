package progress

// Aggregator turns per-request events into whole-upload events when one
// logical upload is split over several HTTP requests.
//
// The reported BytesReadSoFar never decreases and never exceeds the total,
// even when a request is replayed after a failure and its own counter starts
// again from zero.
type Aggregator struct {
	tag     string
	total   int64
	base    int64
	emitted int64
	fn      Func
}

func NewAggregator(tag string, total int64, fn Func) *Aggregator {
	return &Aggregator{tag: tag, total: total, fn: fn}
}

// Func returns the callback to attach to each request of the upload.
func (a *Aggregator) Func() Func {
	if a.fn == nil {
		return nil
	}
	return a.observe
}

// Advance records that n more bytes were fully uploaded by a finished request.
func (a *Aggregator) Advance(n int64) {
	a.base += n
}

func (a *Aggregator) observe(ev Event) {
	so := a.base + ev.BytesReadSoFar
	if so > a.total {
		so = a.total
	}
	if so < a.emitted {
		so = a.emitted
	}
	a.emitted = so
	a.fn(Event{Tag: a.tag, BytesInThisRead: ev.BytesInThisRead, BytesReadSoFar: so, TotalBytes: a.total})
}
