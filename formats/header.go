package formats

// ColorSpace captures the color representation used by an image.
type ColorSpace string

const (
	ColorSpaceUnknown        ColorSpace = "Unknown"
	ColorSpaceRGB            ColorSpace = "RGB"
	ColorSpaceRGBA           ColorSpace = "RGBA"
	ColorSpaceCMYK           ColorSpace = "CMYK"
	ColorSpaceYCbCr          ColorSpace = "YCbCr"
	ColorSpaceGrayscale      ColorSpace = "Grayscale"
	ColorSpaceGrayscaleAlpha ColorSpace = "GrayscaleAlpha"
	ColorSpaceIndexed        ColorSpace = "Indexed"
)

// Header is what a decoder learns about an image without decoding its
// pixels.
type Header struct {
	Width  int
	Height int

	// BitDepth is the number of bits per sample as stored in the file.
	BitDepth   int
	ColorSpace ColorSpace

	// BytesPerPixel is the size of one pixel in the buffer Decode
	// allocates. It feeds the allocation check.
	BytesPerPixel int

	HasICCProfile bool
	EXIF          map[string]interface{}

	// Format-specific values, keyed by field name.
	Additional map[string]interface{}
}

// setAdditional stores a value lazily in the Additional map.
func (h *Header) setAdditional(key string, value interface{}) {
	if h.Additional == nil {
		h.Additional = make(map[string]interface{})
	}
	h.Additional[key] = value
}

// mergeEXIF merges EXIF tags lazily to avoid upfront allocations.
func (h *Header) mergeEXIF(values map[string]interface{}) {
	if len(values) == 0 {
		return
	}
	if h.EXIF == nil {
		h.EXIF = make(map[string]interface{}, len(values))
	}
	for k, v := range values {
		h.EXIF[k] = v
	}
}
