package imgread

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// Source is the byte stream a Reader consumes. Sequential reads should be
// buffered; seeking is needed to sniff the format and to let decoders
// re-read headers.
type Source interface {
	io.Reader
	io.Seeker
}

var (
	errWhence         = errors.New("imgread: invalid whence")
	errNegativeOffset = errors.New("imgread: negative position")
)

// bufferedSource adds a read buffer in front of a seeker while keeping
// positions exact.
type bufferedSource struct {
	rs  io.ReadSeeker
	br  *bufio.Reader
	pos int64
}

// NewBufferedSource wraps rs with a read buffer of size bytes (the bufio
// default when size <= 0). Seeks within the buffered window do not reach
// rs.
func NewBufferedSource(rs io.ReadSeeker, size int) (Source, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 4096
	}
	return &bufferedSource{rs: rs, br: bufio.NewReaderSize(rs, size), pos: pos}, nil
}

func (s *bufferedSource) Read(p []byte) (int, error) {
	n, err := s.br.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *bufferedSource) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		if offset == 0 {
			return s.pos, nil
		}
		target = s.pos + offset
	case io.SeekEnd:
		n, err := s.rs.Seek(offset, io.SeekEnd)
		if err != nil {
			return s.pos, err
		}
		s.br.Reset(s.rs)
		s.pos = n
		return n, nil
	default:
		return s.pos, errWhence
	}
	if target < 0 {
		return s.pos, errNegativeOffset
	}

	if d := target - s.pos; d >= 0 && d <= int64(s.br.Buffered()) {
		n, err := s.br.Discard(int(d))
		s.pos += int64(n)
		return s.pos, err
	}

	n, err := s.rs.Seek(target, io.SeekStart)
	if err != nil {
		return s.pos, err
	}
	s.br.Reset(s.rs)
	s.pos = n
	return n, nil
}

// contextSource fails reads and seeks once its context is done.
type contextSource struct {
	ctx context.Context
	src Source
}

// NewContextSource returns a Source that checks ctx before every read and
// seek. It is how the context-aware Reader operations observe
// cancellation; a blocked read is only interrupted if src itself honors
// the context. A context that can never be cancelled returns src as is.
func NewContextSource(ctx context.Context, src Source) Source {
	if ctx.Done() == nil {
		return src
	}
	return &contextSource{ctx: ctx, src: src}
}

func (c *contextSource) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.src.Read(p)
}

func (c *contextSource) Seek(offset int64, whence int) (int64, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.src.Seek(offset, whence)
}

// trackingSource remembers the first failure of the source it wraps so
// that decoder errors caused by I/O can be told apart from malformed data.
type trackingSource struct {
	src Source
	op  string
	err error
}

func (t *trackingSource) record(op string, err error) {
	if err != nil && err != io.EOF && t.err == nil {
		t.op, t.err = op, err
	}
}

func (t *trackingSource) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	t.record("read", err)
	return n, err
}

func (t *trackingSource) Seek(offset int64, whence int) (int64, error) {
	n, err := t.src.Seek(offset, whence)
	t.record("seek", err)
	return n, err
}
