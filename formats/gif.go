package formats

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/gif"
	"io"

	"imgread/limits"
)

// NewGIF returns a GIF decoder backed by image/gif. Decode yields the
// first frame.
func NewGIF(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parseGIF, func(r io.Reader, _ *Header, _ limits.Limits) (image.Image, error) {
		return gif.Decode(r)
	})
}

// parseGIF reads the signature and logical screen descriptor.
func parseGIF(r io.ReadSeeker) (*Header, error) {
	var sig [6]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, fmt.Errorf("failed to read GIF signature: %w", err)
	}

	// GIF87a or GIF89a
	if string(sig[0:3]) != "GIF" || sig[3] != '8' || (sig[4] != '7' && sig[4] != '9') || sig[5] != 'a' {
		return nil, fmt.Errorf("%w: invalid GIF file", ErrInvalidData)
	}

	h := &Header{}
	h.setAdditional("Version", string(sig[3:6]))

	var lsd [7]byte
	if _, err := io.ReadFull(r, lsd[:]); err != nil {
		return nil, fmt.Errorf("failed to read GIF logical screen descriptor: %w", err)
	}

	h.Width = int(binary.LittleEndian.Uint16(lsd[0:2]))
	h.Height = int(binary.LittleEndian.Uint16(lsd[2:4]))

	packed := lsd[4]
	globalColorTable := packed&0x80 != 0
	colorResolution := int((packed>>4)&0x07) + 1

	h.ColorSpace = ColorSpaceIndexed
	h.BitDepth = colorResolution
	h.BytesPerPixel = 1
	h.setAdditional("GlobalColorTable", globalColorTable)
	h.setAdditional("GlobalColorTableSize", 1<<(int(packed&0x07)+1))
	h.setAdditional("BackgroundColorIndex", int(lsd[5]))

	return h, nil
}
