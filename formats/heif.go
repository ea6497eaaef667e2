package formats

import (
	"fmt"
	"image"
	"io"

	"github.com/strukturag/libheif/go/heif"

	"imgread/limits"
)

// heifDecoder decodes HEIF and AVIF through libheif. libheif parses from
// memory, so the encoded file is buffered first, bounded by the
// allocation ceiling.
type heifDecoder struct {
	r      io.ReadSeeker
	limits limits.Limits
}

// NewHEIF returns a decoder for HEIF and AVIF files.
func NewHEIF(r io.ReadSeeker, l limits.Limits) Decoder {
	return &heifDecoder{r: r, limits: l}
}

func (d *heifDecoder) open() (*heif.ImageHandle, *Header, error) {
	data, err := readAll(d.r, d.limits)
	if err != nil {
		return nil, nil, err
	}
	ctx, err := heif.NewContext()
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.ReadFromMemory(data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	handle, err := ctx.GetPrimaryImageHandle()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	h := &Header{
		Width:         handle.GetWidth(),
		Height:        handle.GetHeight(),
		BitDepth:      8,
		ColorSpace:    ColorSpaceYCbCr,
		BytesPerPixel: 4,
	}
	hasAlpha := handle.HasAlphaChannel()
	if hasAlpha {
		h.ColorSpace = ColorSpaceRGBA
	}
	h.setAdditional("HasAlpha", hasAlpha)
	if h.Width <= 0 || h.Height <= 0 {
		return nil, nil, fmt.Errorf("%w: image bounds invalid (%d x %d)", ErrInvalidData, h.Width, h.Height)
	}
	return handle, h, nil
}

func (d *heifDecoder) Header() (*Header, error) {
	_, h, err := d.open()
	if err != nil {
		return nil, err
	}
	if err := d.limits.CheckInts(h.Width, h.Height, 0); err != nil {
		return nil, err
	}
	return h, nil
}

func (d *heifDecoder) Decode() (image.Image, error) {
	handle, h, err := d.open()
	if err != nil {
		return nil, err
	}
	if err := d.limits.CheckInts(h.Width, h.Height, h.BytesPerPixel); err != nil {
		return nil, err
	}
	img, err := handle.DecodeImage(heif.ColorspaceUndefined, heif.ChromaUndefined, nil)
	if err != nil {
		return nil, err
	}
	return img.GetImage()
}
