package formats

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"

	"imgread/limits"
)

// NewFarbfeld returns a farbfeld decoder. The raster is big-endian RGBA
// with 16 bits per channel, which is the memory layout of image.NRGBA64.
func NewFarbfeld(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parseFarbfeld, decodeFarbfeld)
}

func parseFarbfeld(r io.ReadSeeker) (*Header, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to read farbfeld header: %w", err)
	}
	if string(hdr[0:8]) != "farbfeld" {
		return nil, fmt.Errorf("%w: invalid farbfeld file", ErrInvalidData)
	}
	return &Header{
		Width:         int(binary.BigEndian.Uint32(hdr[8:12])),
		Height:        int(binary.BigEndian.Uint32(hdr[12:16])),
		BitDepth:      16,
		ColorSpace:    ColorSpaceRGBA,
		BytesPerPixel: 8,
	}, nil
}

func decodeFarbfeld(r io.Reader, h *Header, _ limits.Limits) (image.Image, error) {
	// Reached with limits.None as well, so the buffer size is checked here.
	if h.Width > math.MaxInt/8/h.Height {
		return nil, fmt.Errorf("%w: farbfeld image too large (%d x %d)", ErrInvalidData, h.Width, h.Height)
	}
	if err := skip(r, 16); err != nil {
		return nil, err
	}
	img := image.NewNRGBA64(image.Rect(0, 0, h.Width, h.Height))
	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return nil, fmt.Errorf("failed to read farbfeld raster: %w", err)
	}
	return img, nil
}
