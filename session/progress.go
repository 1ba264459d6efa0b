package session

import (
	"io"
	"sync/atomic"
)

// Progress reports how much of a body has been transferred.
type Progress struct {
	// Completed is the number of bytes transferred so far.
	Completed int64
	// Total is the expected number of bytes, or -1 if unknown.
	Total int64
}

// Fraction returns the completed fraction in [0, 1], or 0 if Total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Completed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// progressReader reports every successful read to fn.
type progressReader struct {
	r     io.Reader
	total int64
	done  atomic.Int64
	fn    func(Progress)
}

// withProgress wraps r so that fn observes each read. A nil fn returns r unchanged.
func withProgress(r io.Reader, total int64, fn func(Progress)) io.Reader {
	if fn == nil || r == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.fn(Progress{Completed: p.done.Add(int64(n)), Total: p.total})
	}
	return n, err
}
