package uploader

import (
	"io"
	"sync"
)

// progressReader reports the share of the request body the transport has
// consumed. Reports only go up and 100 is sent at most once.
type progressReader struct {
	r     io.Reader
	total int64
	fn    func(int)

	mu   sync.Mutex
	read int64
	last int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 || err == io.EOF {
		p.mu.Lock()
		p.read += int64(n)
		pct := 100
		if p.total > 0 && err != io.EOF {
			pct = int(p.read * 100 / p.total)
		}
		p.emit(pct)
		p.mu.Unlock()
	}
	return n, err
}

// finish reports 100 if the transport never hit EOF on the body.
func (p *progressReader) finish() {
	p.mu.Lock()
	p.emit(100)
	p.mu.Unlock()
}

func (p *progressReader) emit(pct int) {
	if p.fn == nil || pct <= p.last {
		return
	}
	if pct > 100 {
		pct = 100
	}
	p.last = pct
	p.fn(pct)
}
