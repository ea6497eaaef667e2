package formats

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"

	"imgread/limits"
)

var pngSignature = [...]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// maxMetadataChunk bounds the ancillary chunks the header parser buffers.
const maxMetadataChunk = 16 << 20

// NewPNG returns a PNG decoder backed by image/png.
func NewPNG(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parsePNG, func(r io.Reader, _ *Header, _ limits.Limits) (image.Image, error) {
		return png.Decode(r)
	})
}

// parsePNG walks the chunks up to the first IDAT.
func parsePNG(r io.ReadSeeker) (*Header, error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, fmt.Errorf("failed to read PNG signature: %w", err)
	}
	if sig != pngSignature {
		return nil, fmt.Errorf("%w: invalid PNG file", ErrInvalidData)
	}

	h := &Header{}
	seenIHDR := false
	var ihdr [13]byte
	transparent := false

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if seenIHDR {
				break
			}
			return nil, fmt.Errorf("failed to read PNG chunk: %w", err)
		}
		length := int64(binary.BigEndian.Uint32(chunk[0:4]))
		chunkType := string(chunk[4:8])

		if !seenIHDR && chunkType != "IHDR" {
			return nil, fmt.Errorf("%w: first PNG chunk is %q, want IHDR", ErrInvalidData, chunkType)
		}
		if chunkType == "IDAT" || chunkType == "IEND" {
			break
		}

		switch chunkType {
		case "IHDR":
			if length != 13 {
				return nil, fmt.Errorf("%w: IHDR length %d", ErrInvalidData, length)
			}
			if _, err := io.ReadFull(r, ihdr[:]); err != nil {
				return nil, fmt.Errorf("failed to read IHDR: %w", err)
			}
			parseIHDR(ihdr[:], h)
			seenIHDR = true
			length = 0

		case "iCCP":
			h.HasICCProfile = true

		case "tRNS":
			transparent = true

		case "eXIf":
			if length > 0 && length <= maxMetadataChunk {
				data := borrowBuffer(int(length))
				if _, err := io.ReadFull(r, data); err != nil {
					releaseBuffer(data)
					return nil, fmt.Errorf("failed to read eXIf chunk: %w", err)
				}
				if exif, err := parseTIFF(data); err == nil {
					h.mergeEXIF(exif)
				}
				releaseBuffer(data)
				length = 0
			}
		}

		// Skip remaining chunk data and the CRC.
		if err := skip(r, length+4); err != nil {
			return nil, err
		}
	}

	if !seenIHDR {
		return nil, fmt.Errorf("%w: missing IHDR", ErrInvalidData)
	}
	h.BytesPerPixel = pngBytesPerPixel(int(ihdr[9]), int(ihdr[8]), transparent, ihdr[12] != 0)
	return h, nil
}

func parseIHDR(ihdr []byte, h *Header) {
	h.Width = int(binary.BigEndian.Uint32(ihdr[0:4]))
	h.Height = int(binary.BigEndian.Uint32(ihdr[4:8]))
	bitDepth := int(ihdr[8])
	colorType := int(ihdr[9])

	h.BitDepth = bitDepth
	h.setAdditional("ColorType", colorType)
	h.setAdditional("CompressionMethod", int(ihdr[10]))
	h.setAdditional("FilterMethod", int(ihdr[11]))
	h.setAdditional("InterlaceMethod", int(ihdr[12]))

	switch colorType {
	case 0:
		h.ColorSpace = ColorSpaceGrayscale
	case 2:
		h.ColorSpace = ColorSpaceRGB
	case 3:
		h.ColorSpace = ColorSpaceIndexed
	case 4:
		h.ColorSpace = ColorSpaceGrayscaleAlpha
	case 6:
		h.ColorSpace = ColorSpaceRGBA
	default:
		h.ColorSpace = ColorSpaceUnknown
	}
}

// pngBytesPerPixel is the per-pixel size of what image/png allocates:
// Gray/Gray16, Paletted, RGBA/RGBA64, or NRGBA/NRGBA64 once a tRNS chunk
// makes gray or truecolour images transparent. Interlaced images also hold
// one sub-image per pass before the final one is assembled.
func pngBytesPerPixel(colorType, bitDepth int, transparent, interlaced bool) int {
	wide := bitDepth == 16
	bpp := 4
	switch {
	case colorType == 3:
		bpp = 1
	case colorType == 0 && !transparent:
		bpp = 1
		if wide {
			bpp = 2
		}
	case wide:
		bpp = 8
	}
	if interlaced {
		bpp *= 2
	}
	return bpp
}
