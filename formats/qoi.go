package formats

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/xfmoulet/qoi"

	"imgread/limits"
)

const qoiHeaderSize = 14

// NewQOI returns a QOI decoder backed by xfmoulet/qoi.
func NewQOI(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parseQOI, func(r io.Reader, _ *Header, _ limits.Limits) (image.Image, error) {
		return qoi.Decode(r)
	})
}

// parseQOI reads the fixed 14-byte header: magic, width, height,
// channels and colour space.
func parseQOI(r io.ReadSeeker) (*Header, error) {
	var hdr [qoiHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to read QOI header: %w", err)
	}
	if string(hdr[0:4]) != "qoif" {
		return nil, fmt.Errorf("%w: invalid QOI file", ErrInvalidData)
	}

	h := &Header{
		Width:         int(binary.BigEndian.Uint32(hdr[4:8])),
		Height:        int(binary.BigEndian.Uint32(hdr[8:12])),
		BitDepth:      8,
		BytesPerPixel: 4,
	}

	channels := hdr[12]
	switch channels {
	case 3:
		h.ColorSpace = ColorSpaceRGB
	case 4:
		h.ColorSpace = ColorSpaceRGBA
	default:
		return nil, fmt.Errorf("%w: QOI channel count %d", ErrInvalidData, channels)
	}
	h.setAdditional("Channels", int(channels))

	switch hdr[13] {
	case 0:
		h.setAdditional("Transfer", "sRGB")
	case 1:
		h.setAdditional("Transfer", "linear")
	default:
		return nil, fmt.Errorf("%w: QOI colour space %d", ErrInvalidData, hdr[13])
	}
	return h, nil
}
