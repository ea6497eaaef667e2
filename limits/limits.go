// Package limits holds the resource bounds a decoder consults before it
// accepts image dimensions or allocates a pixel buffer.
package limits

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

const (
	// DefaultMaxWidth and DefaultMaxHeight cap each dimension.
	DefaultMaxWidth  uint32 = 65535
	DefaultMaxHeight uint32 = 65535

	// DefaultMaxAlloc caps a single decoded buffer at 512 MiB.
	DefaultMaxAlloc uint64 = 512 << 20
)

// ErrExceeded is matched by every error returned from a failed check.
var ErrExceeded = errors.New("limits: exceeded")

// Kind names the bound that was violated.
type Kind string

const (
	KindWidth  Kind = "width"
	KindHeight Kind = "height"
	KindAlloc  Kind = "allocation"
)

// Error reports which bound a value crossed.
type Error struct {
	Kind  Kind
	Value uint64
	Max   uint64
	// Overflow is set when the requested size does not fit in 64 bits.
	Overflow bool
}

func (e *Error) Error() string {
	if e.Overflow {
		return fmt.Sprintf("limits: %s overflows 64 bits (max %d)", e.Kind, e.Max)
	}
	return fmt.Sprintf("limits: %s %d exceeds max %d", e.Kind, e.Value, e.Max)
}

// Is makes errors.Is(err, ErrExceeded) hold.
func (e *Error) Is(target error) bool {
	return target == ErrExceeded
}

// Limits bounds what a decoder may accept. A zero field falls back to the
// default for that field, so the zero value is the default policy. The
// only way to disable checking is None.
type Limits struct {
	MaxWidth  uint32
	MaxHeight uint32
	MaxAlloc  uint64

	unlimited bool
}

// Default returns the conservative policy used when nothing is configured.
func Default() Limits {
	return Limits{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		MaxAlloc:  DefaultMaxAlloc,
	}
}

// None returns a policy that accepts everything. Callers must opt in to it
// explicitly.
func None() Limits {
	return Limits{
		MaxWidth:  math.MaxUint32,
		MaxHeight: math.MaxUint32,
		MaxAlloc:  math.MaxUint64,
		unlimited: true,
	}
}

// Unlimited reports whether l was built by None.
func (l Limits) Unlimited() bool {
	return l.unlimited
}

func (l Limits) maxWidth() uint32 {
	if l.MaxWidth == 0 {
		return DefaultMaxWidth
	}
	return l.MaxWidth
}

func (l Limits) maxHeight() uint32 {
	if l.MaxHeight == 0 {
		return DefaultMaxHeight
	}
	return l.MaxHeight
}

func (l Limits) maxAlloc() uint64 {
	if l.MaxAlloc == 0 {
		return DefaultMaxAlloc
	}
	return l.MaxAlloc
}

// Effective returns l with defaults substituted for zero fields.
func (l Limits) Effective() Limits {
	if l.unlimited {
		return l
	}
	return Limits{
		MaxWidth:  l.maxWidth(),
		MaxHeight: l.maxHeight(),
		MaxAlloc:  l.maxAlloc(),
	}
}

// CheckDimensions fails when either dimension is larger than its bound.
func (l Limits) CheckDimensions(width, height uint32) error {
	if l.unlimited {
		return nil
	}
	if max := l.maxWidth(); width > max {
		return &Error{Kind: KindWidth, Value: uint64(width), Max: uint64(max)}
	}
	if max := l.maxHeight(); height > max {
		return &Error{Kind: KindHeight, Value: uint64(height), Max: uint64(max)}
	}
	return nil
}

// CheckAlloc fails when width*height*bytesPerPixel is larger than the
// allocation ceiling. The product is computed in 64 bits; a product that
// does not fit in 64 bits always fails.
func (l Limits) CheckAlloc(width, height uint32, bytesPerPixel uint64) error {
	size, ok := BufferSize(width, height, bytesPerPixel)
	if l.unlimited {
		if !ok {
			return &Error{Kind: KindAlloc, Max: math.MaxUint64, Overflow: true}
		}
		return nil
	}
	max := l.maxAlloc()
	if !ok {
		return &Error{Kind: KindAlloc, Max: max, Overflow: true}
	}
	if size > max {
		return &Error{Kind: KindAlloc, Value: size, Max: max}
	}
	return nil
}

// CheckBytes fails when a raw reservation of n bytes is larger than the
// allocation ceiling.
func (l Limits) CheckBytes(n uint64) error {
	if l.unlimited {
		return nil
	}
	if max := l.maxAlloc(); n > max {
		return &Error{Kind: KindAlloc, Value: n, Max: max}
	}
	return nil
}

// Check runs CheckDimensions then CheckAlloc.
func (l Limits) Check(width, height uint32, bytesPerPixel uint64) error {
	if err := l.CheckDimensions(width, height); err != nil {
		return err
	}
	return l.CheckAlloc(width, height, bytesPerPixel)
}

// CheckInts is Check for callers holding int dimensions. Negative values
// are rejected as an oversized width or height.
func (l Limits) CheckInts(width, height, bytesPerPixel int) error {
	if width < 0 || int64(width) > math.MaxUint32 {
		return &Error{Kind: KindWidth, Value: uint64(math.MaxUint64), Max: uint64(l.maxWidth())}
	}
	if height < 0 || int64(height) > math.MaxUint32 {
		return &Error{Kind: KindHeight, Value: uint64(math.MaxUint64), Max: uint64(l.maxHeight())}
	}
	if bytesPerPixel < 0 {
		bytesPerPixel = 0
	}
	return l.Check(uint32(width), uint32(height), uint64(bytesPerPixel))
}

// BufferSize returns width*height*bytesPerPixel and whether it fits in 64
// bits.
func BufferSize(width, height uint32, bytesPerPixel uint64) (uint64, bool) {
	pixels := uint64(width) * uint64(height)
	hi, lo := bits.Mul64(pixels, bytesPerPixel)
	return lo, hi == 0
}
