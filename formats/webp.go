package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"

	"imgread/limits"
)

// NewWebP returns a WebP decoder backed by chai2010/webp.
func NewWebP(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parseWebP, decodeWebP)
}

func decodeWebP(r io.Reader, _ *Header, l limits.Limits) (image.Image, error) {
	data, err := readAll(r, l)
	if err != nil {
		return nil, err
	}
	return webp.Decode(bytes.NewReader(data))
}

// parseWebP reads the RIFF header and the first chunk.
func parseWebP(r io.ReadSeeker) (*Header, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("failed to read WebP header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" {
		return nil, fmt.Errorf("%w: missing RIFF signature", ErrInvalidData)
	}
	if string(riff[8:12]) != "WEBP" {
		return nil, fmt.Errorf("%w: missing WEBP signature", ErrInvalidData)
	}

	// Chunk FourCC and size.
	var chunk [8]byte
	if _, err := io.ReadFull(r, chunk[:]); err != nil {
		return nil, fmt.Errorf("failed to read WebP chunk header: %w", err)
	}

	h := &Header{BitDepth: 8, BytesPerPixel: 4}
	var (
		hasAlpha     bool
		hasAnimation bool
		err          error
	)

	switch string(chunk[0:4]) {
	case "VP8 ":
		err = parseVP8(r, h)
	case "VP8L":
		err = parseVP8L(r, h)
		hasAlpha = true
	case "VP8X":
		hasAnimation, hasAlpha, err = parseVP8X(r, h)
	default:
		return nil, fmt.Errorf("%w: unknown WebP chunk %q", ErrInvalidData, chunk[0:4])
	}
	if err != nil {
		return nil, err
	}

	h.ColorSpace = ColorSpaceRGB
	if hasAlpha {
		h.ColorSpace = ColorSpaceRGBA
	}
	h.setAdditional("HasAnimation", hasAnimation)
	h.setAdditional("HasAlpha", hasAlpha)

	return h, nil
}

// parseVP8 reads the frame header of a lossy bitstream.
func parseVP8(r io.Reader, h *Header) error {
	// 3 bytes frame tag, 3 bytes start code, 2+2 bytes dimensions.
	var frame [10]byte
	if _, err := io.ReadFull(r, frame[:]); err != nil {
		return fmt.Errorf("failed to read VP8 frame header: %w", err)
	}
	if frame[3] != 0x9D || frame[4] != 0x01 || frame[5] != 0x2A {
		return fmt.Errorf("%w: invalid VP8 start code", ErrInvalidData)
	}

	// 14-bit dimensions, upper two bits are scaling.
	h.Width = int(binary.LittleEndian.Uint16(frame[6:8]) & 0x3FFF)
	h.Height = int(binary.LittleEndian.Uint16(frame[8:10]) & 0x3FFF)
	return nil
}

// parseVP8L reads the header of a lossless bitstream.
func parseVP8L(r io.Reader, h *Header) error {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("failed to read VP8L header: %w", err)
	}
	if header[0] != 0x2F {
		return fmt.Errorf("%w: invalid VP8L signature", ErrInvalidData)
	}

	bits := binary.LittleEndian.Uint32(header[1:5])
	h.Width = int(bits&0x3FFF) + 1
	h.Height = int((bits>>14)&0x3FFF) + 1
	return nil
}

// parseVP8X reads the extended header. It reports animation and alpha.
func parseVP8X(r io.Reader, h *Header) (bool, bool, error) {
	// 1 byte flags, 3 reserved, 3 bytes width-1, 3 bytes height-1.
	var header [10]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return false, false, fmt.Errorf("failed to read VP8X header: %w", err)
	}

	flags := header[0]
	h.Width = int(uint32(header[4])|uint32(header[5])<<8|uint32(header[6])<<16) + 1
	h.Height = int(uint32(header[7])|uint32(header[8])<<8|uint32(header[9])<<16) + 1

	h.HasICCProfile = flags&0x20 != 0
	h.setAdditional("EXIF", flags&0x08 != 0)
	h.setAdditional("XMP", flags&0x04 != 0)

	return flags&0x02 != 0, flags&0x10 != 0, nil
}
