package imgread

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"

	"github.com/sirupsen/logrus"

	"imgread/formats"
	"imgread/limits"
)

type readerState uint8

const (
	stateReady readerState = iota
	// statePoisoned: a sniff failed after the source may have moved. The
	// position of src is unknown.
	statePoisoned
	// stateConsumed: src was handed to a decoder or returned by IntoInner.
	stateConsumed
)

// Reader binds a byte source to an optional format and a limits policy,
// and dispatches exactly one terminal operation (Dimensions, Header or
// Decode) to the decoder of that format.
//
// A Reader is not safe for concurrent use. Each Reader owns its source.
//
// If WithGuessedFormat fails, the source may have been left anywhere; the
// Reader is then poisoned and every operation except IntoInner returns a
// *SourceError wrapping ErrPositionLost. IntoInner still hands the source
// back so the caller can seek it to a known absolute offset.
//
// A call after the Reader was consumed returns ErrConsumed. That is a
// usage error and belongs to none of the error kinds a decode reports.
type Reader struct {
	src    Source
	format Format
	limits limits.Limits
	state  readerState
	log    logrus.FieldLogger
}

// NewReader returns a Reader with no format and the default limits.
func NewReader(src Source) *Reader {
	return &Reader{
		src:    src,
		limits: limits.Default(),
		log:    logger,
	}
}

// NewReaderWithFormat returns a Reader for a source of known format.
func NewReaderWithFormat(src Source, f Format) *Reader {
	r := NewReader(src)
	r.format = f
	return r
}

// FromBytes returns a Reader over an in-memory image.
func FromBytes(data []byte) *Reader {
	return NewReader(bytes.NewReader(data))
}

// Format returns the format the Reader will dispatch to, if determined.
func (r *Reader) Format() (Format, bool) {
	return r.format, r.format != FormatUnknown
}

// SetFormat sets the format. Setting FormatUnknown clears it.
func (r *Reader) SetFormat(f Format) {
	r.format = f
}

// ClearFormat forgets the format.
func (r *Reader) ClearFormat() {
	r.format = FormatUnknown
}

// Limits returns the policy the next terminal operation will apply.
func (r *Reader) Limits() limits.Limits {
	return r.limits
}

// SetLimits replaces the limits policy.
func (r *Reader) SetLimits(l limits.Limits) {
	r.limits = l
	r.log.WithFields(logrus.Fields{
		"max_width":  l.Effective().MaxWidth,
		"max_height": l.Effective().MaxHeight,
		"max_alloc":  l.Effective().MaxAlloc,
	}).Debug("limits overridden")
}

// NoLimits disables every resource check. Only use it for trusted input.
func (r *Reader) NoLimits() {
	r.limits = limits.None()
	r.log.Warn("decoding limits disabled")
}

// Poisoned reports whether a failed sniff left the source position
// unknown.
func (r *Reader) Poisoned() bool {
	return r.state == statePoisoned
}

// WithGuessedFormat sniffs the format from the bytes at the current
// position of the source and restores the position afterwards. If a
// signature matches, it replaces the current format; otherwise the format
// is left unchanged. The Reader is returned for chaining.
//
// A read or seek failure returns a *SourceError and poisons the Reader.
func (r *Reader) WithGuessedFormat() (*Reader, error) {
	return r, r.guess(r.src)
}

// WithGuessedFormatContext is WithGuessedFormat observing ctx at every read
// and seek. Cancellation mid-sniff poisons the Reader like any other read
// failure.
func (r *Reader) WithGuessedFormatContext(ctx context.Context) (*Reader, error) {
	return r, r.guess(NewContextSource(ctx, r.src))
}

func (r *Reader) guess(src Source) error {
	if err := r.usable(); err != nil {
		return err
	}

	start, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		// Nothing was read, the position is intact.
		return &SourceError{Op: "seek", Err: err}
	}

	var buf [SniffLen]byte
	n, err := io.ReadFull(src, buf[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return r.poison("read", start, err)
	}
	if _, err := src.Seek(start, io.SeekStart); err != nil {
		return r.poison("seek", start, err)
	}

	f, ok := GuessFormat(buf[:n])
	log := r.log.WithFields(logrus.Fields{"offset": start, "format": f.String()})
	if !ok {
		log.Debug("no signature matched, format unchanged")
		return nil
	}
	r.format = f
	log.Debug("format sniffed")
	return nil
}

func (r *Reader) poison(op string, offset int64, err error) error {
	r.state = statePoisoned
	r.log.WithFields(logrus.Fields{"offset": offset, "op": op}).
		WithError(err).Warn("sniff failed, source position lost")
	return &SourceError{Op: op, Err: err}
}

// usable fails for poisoned and consumed Readers.
func (r *Reader) usable() error {
	switch r.state {
	case statePoisoned:
		return &SourceError{Op: "seek", Err: ErrPositionLost}
	case stateConsumed:
		return ErrConsumed
	}
	return nil
}

// Dimensions reads the image dimensions without decoding pixels. It
// consumes the Reader.
func (r *Reader) Dimensions() (width, height int, err error) {
	return r.DimensionsContext(context.Background())
}

// DimensionsContext is Dimensions observing ctx at every source access.
func (r *Reader) DimensionsContext(ctx context.Context) (width, height int, err error) {
	h, err := r.HeaderContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return h.Width, h.Height, nil
}

// Header reads the image header: dimensions, bit depth, colour space and
// metadata where the format carries it. It consumes the Reader.
func (r *Reader) Header() (*formats.Header, error) {
	return r.HeaderContext(context.Background())
}

// HeaderContext is Header observing ctx at every source access.
func (r *Reader) HeaderContext(ctx context.Context) (*formats.Header, error) {
	d, t, err := r.dispatch(ctx)
	if err != nil {
		return nil, err
	}
	h, err := d.Header()
	if err != nil {
		return nil, r.classify(err, t)
	}
	r.log.WithFields(logrus.Fields{
		"format": r.format.String(),
		"width":  h.Width,
		"height": h.Height,
	}).Debug("header read")
	return h, nil
}

// Decode decodes the full image. It consumes the Reader.
func (r *Reader) Decode() (image.Image, error) {
	return r.DecodeContext(context.Background())
}

// DecodeContext is Decode observing ctx at every source access. Decoders
// that buffer the whole stream first only observe ctx while buffering.
func (r *Reader) DecodeContext(ctx context.Context) (image.Image, error) {
	d, t, err := r.dispatch(ctx)
	if err != nil {
		return nil, err
	}
	img, err := d.Decode()
	if err != nil {
		return nil, r.classify(err, t)
	}
	b := img.Bounds()
	r.log.WithFields(logrus.Fields{
		"format": r.format.String(),
		"width":  b.Dx(),
		"height": b.Dy(),
	}).Debug("image decoded")
	return img, nil
}

// IntoInner returns the source without decoding. It consumes the Reader
// and works on a poisoned Reader, whose source position is unknown.
func (r *Reader) IntoInner() (Source, error) {
	if r.state == stateConsumed {
		return nil, ErrConsumed
	}
	src := r.src
	r.src = nil
	r.state = stateConsumed
	return src, nil
}

// dispatch consumes the Reader and builds the decoder for its format.
func (r *Reader) dispatch(ctx context.Context) (formats.Decoder, *trackingSource, error) {
	if err := r.usable(); err != nil {
		return nil, nil, err
	}
	src := r.src
	r.src = nil
	r.state = stateConsumed

	newDecoder, ok := decoderFor(r.format)
	if !ok {
		recognized := sniffOnly[r.format]
		r.log.WithFields(logrus.Fields{
			"format":     r.format.String(),
			"recognized": recognized,
		}).Debug("no decoder")
		return nil, nil, &UnsupportedFormatError{Format: r.format, Recognized: recognized}
	}
	t := &trackingSource{src: NewContextSource(ctx, src)}
	r.log.WithField("format", r.format.String()).Debug("dispatching to decoder")
	return newDecoder(t, r.limits), t, nil
}

// classify tags a decoder failure with one of the error kinds.
func (r *Reader) classify(err error, t *trackingSource) error {
	if t.err != nil {
		return &SourceError{Op: t.op, Err: t.err}
	}
	if errors.Is(err, limits.ErrExceeded) {
		return err
	}
	return &DecodeError{Format: r.format, Err: err}
}
