package formats

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"sync"

	"imgread/limits"
)

// Decoder is the capability set every format provides. A Decoder owns its
// source and is used for exactly one call.
type Decoder interface {
	// Header reads the image header and checks the dimensions against
	// the decoder's limits.
	Header() (*Header, error)

	// Decode checks dimensions and buffer size against the limits, then
	// decodes the full image.
	Decode() (image.Image, error)
}

// Constructor builds a Decoder reading from the current position of r.
type Constructor func(r io.ReadSeeker, l limits.Limits) Decoder

// parseFunc reads a header starting at the current position of r.
type parseFunc func(r io.ReadSeeker) (*Header, error)

// decodeFunc decodes the image starting at the current position of r.
// It runs only after h passed the limits check.
type decodeFunc func(r io.Reader, h *Header, l limits.Limits) (image.Image, error)

// decoder wires a header parser and a pixel decoder to a source.
type decoder struct {
	r      io.ReadSeeker
	limits limits.Limits
	parse  parseFunc
	decode decodeFunc
}

func newDecoder(r io.ReadSeeker, l limits.Limits, parse parseFunc, decode decodeFunc) *decoder {
	return &decoder{r: r, limits: l, parse: parse, decode: decode}
}

func (d *decoder) Header() (*Header, error) {
	h, _, err := d.header()
	if err != nil {
		return nil, err
	}
	if err := d.limits.CheckInts(h.Width, h.Height, 0); err != nil {
		return nil, err
	}
	return h, nil
}

func (d *decoder) Decode() (image.Image, error) {
	h, start, err := d.header()
	if err != nil {
		return nil, err
	}
	if err := d.limits.CheckInts(h.Width, h.Height, h.BytesPerPixel); err != nil {
		return nil, err
	}
	if _, err := d.r.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	return d.decode(d.r, h, d.limits)
}

// header parses the header and returns the offset the image starts at.
func (d *decoder) header() (*Header, int64, error) {
	start, err := d.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, err
	}
	h, err := d.parse(d.r)
	if err != nil {
		return nil, 0, err
	}
	if h.Width <= 0 || h.Height <= 0 {
		return nil, 0, fmt.Errorf("%w: image bounds invalid (%d x %d)", ErrInvalidData, h.Width, h.Height)
	}
	return h, start, nil
}

var bytePool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 64*1024)
	},
}

func borrowBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}
	buf := bytePool.Get().([]byte)
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	return buf[:size]
}

func releaseBuffer(buf []byte) {
	if buf == nil {
		return
	}
	bytePool.Put(buf[:cap(buf)])
}

// readAll reads r to EOF, failing once more than the allocation ceiling
// has been read.
func readAll(r io.Reader, l limits.Limits) ([]byte, error) {
	if l.Unlimited() {
		return io.ReadAll(r)
	}
	max := l.Effective().MaxAlloc
	if max >= math.MaxInt64 {
		return io.ReadAll(r)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, err
	}
	if err := l.CheckBytes(uint64(n)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// skip discards n bytes, seeking when possible.
func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(n, io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}
