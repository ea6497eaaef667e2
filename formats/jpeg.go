package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/gen2brain/jpegn"

	"imgread/limits"
)

// NewJPEG returns a JPEG decoder backed by jpegn. The encoded stream is
// buffered in memory, bounded by the allocation ceiling.
func NewJPEG(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parseJPEG, decodeJPEG)
}

func decodeJPEG(r io.Reader, _ *Header, l limits.Limits) (image.Image, error) {
	data, err := readAll(r, l)
	if err != nil {
		return nil, err
	}
	return jpegn.Decode(bytes.NewReader(data))
}

// parseJPEG scans segments until the first SOF marker.
func parseJPEG(r io.ReadSeeker) (*Header, error) {
	var soi [2]byte
	if _, err := io.ReadFull(r, soi[:]); err != nil {
		return nil, fmt.Errorf("failed to read JPEG header: %w", err)
	}
	if soi[0] != 0xFF || soi[1] != 0xD8 {
		return nil, fmt.Errorf("%w: invalid JPEG file", ErrInvalidData)
	}

	h := &Header{}

	for {
		var marker [2]byte
		if _, err := io.ReadFull(r, marker[:]); err != nil {
			return nil, fmt.Errorf("failed to read JPEG marker: %w", err)
		}
		if marker[0] != 0xFF {
			return nil, fmt.Errorf("%w: expected marker, got 0x%02X", ErrInvalidData, marker[0])
		}

		markerType := marker[1]

		// Skip fill bytes (0xFF)
		for markerType == 0xFF {
			var b [1]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, fmt.Errorf("failed to read JPEG marker: %w", err)
			}
			markerType = b[0]
		}

		switch {
		case markerType == 0xD9 || markerType == 0xDA:
			return nil, fmt.Errorf("%w: no SOF marker before scan data", ErrInvalidData)
		case markerType >= 0xD0 && markerType <= 0xD7, markerType == 0x01:
			// Standalone markers carry no length.
			continue
		}

		var lengthBytes [2]byte
		if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
			return nil, fmt.Errorf("failed to read JPEG segment length: %w", err)
		}
		length := int(binary.BigEndian.Uint16(lengthBytes[:])) - 2
		if length < 0 {
			return nil, fmt.Errorf("%w: JPEG segment length %d", ErrInvalidData, length+2)
		}

		switch markerType {
		case 0xE1: // APP1 (EXIF)
			segment := borrowBuffer(length)
			if _, err := io.ReadFull(r, segment); err != nil {
				releaseBuffer(segment)
				return nil, fmt.Errorf("failed to read APP1 segment: %w", err)
			}
			if len(segment) >= 6 && string(segment[0:6]) == "Exif\x00\x00" {
				if exif, err := parseTIFF(segment[6:]); err == nil {
					h.mergeEXIF(exif)
				}
			}
			releaseBuffer(segment)

		case 0xE2: // APP2 (ICC Profile)
			segment := borrowBuffer(length)
			if _, err := io.ReadFull(r, segment); err != nil {
				releaseBuffer(segment)
				return nil, fmt.Errorf("failed to read APP2 segment: %w", err)
			}
			if len(segment) >= 11 && string(segment[0:11]) == "ICC_PROFILE" {
				h.HasICCProfile = true
			}
			releaseBuffer(segment)

		case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7, 0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
			if length < 6 {
				return nil, fmt.Errorf("%w: SOF segment too short", ErrInvalidData)
			}
			var sof [6]byte
			if _, err := io.ReadFull(r, sof[:]); err != nil {
				return nil, fmt.Errorf("failed to read SOF segment: %w", err)
			}
			parseSOF(sof, markerType, h)
			return h, nil

		default:
			if err := skip(r, int64(length)); err != nil {
				return nil, err
			}
		}
	}
}

func parseSOF(sof [6]byte, markerType byte, h *Header) {
	precision := int(sof[0])
	h.Height = int(binary.BigEndian.Uint16(sof[1:3]))
	h.Width = int(binary.BigEndian.Uint16(sof[3:5]))
	components := int(sof[5])

	h.BitDepth = precision
	h.setAdditional("Components", components)
	progressive := markerType == 0xC2 || markerType == 0xC6 || markerType == 0xCA || markerType == 0xCE
	h.setAdditional("Progressive", progressive)

	switch components {
	case 1:
		h.ColorSpace = ColorSpaceGrayscale
		h.BytesPerPixel = 1
	case 3:
		h.ColorSpace = ColorSpaceYCbCr
		h.BytesPerPixel = 4
	case 4:
		h.ColorSpace = ColorSpaceCMYK
		h.BytesPerPixel = 4
	default:
		h.ColorSpace = ColorSpaceUnknown
		h.BytesPerPixel = 4
	}
	if progressive {
		// Progressive decoding keeps one int32 coefficient per sample of
		// every component until the last scan.
		h.BytesPerPixel += 4 * max(components, 1)
	}
}
