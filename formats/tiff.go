package formats

import (
	"image"
	"image/color"
	"io"

	"golang.org/x/image/tiff"

	"imgread/limits"
)

// NewTIFF returns a TIFF decoder backed by x/image/tiff.
func NewTIFF(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parseTIFFHeader, func(r io.Reader, _ *Header, _ limits.Limits) (image.Image, error) {
		return tiff.Decode(r)
	})
}

func parseTIFFHeader(r io.ReadSeeker) (*Header, error) {
	cfg, err := tiff.DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	h := &Header{Width: cfg.Width, Height: cfg.Height}
	describeModel(cfg.ColorModel, h)
	return h, nil
}

// describeModel fills the color fields of h from the model a library
// decoder reports.
func describeModel(m color.Model, h *Header) {
	switch m {
	case color.GrayModel:
		h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceGrayscale, 8, 1
	case color.Gray16Model:
		h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceGrayscale, 16, 2
	case color.RGBAModel, color.NRGBAModel:
		h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceRGBA, 8, 4
	case color.RGBA64Model, color.NRGBA64Model:
		h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceRGBA, 16, 8
	case color.CMYKModel:
		h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceCMYK, 8, 4
	case color.YCbCrModel:
		h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceYCbCr, 8, 3
	default:
		if _, ok := m.(color.Palette); ok {
			h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceIndexed, 8, 1
			return
		}
		h.ColorSpace, h.BitDepth, h.BytesPerPixel = ColorSpaceUnknown, 8, 4
	}
}
