package imgread

import "imgread/formats"

// sniffOnly lists the formats the sniffer recognizes but no decoder
// handles. Terminal operations on them fail with UnsupportedFormatError.
var sniffOnly = map[Format]bool{
	FormatICO:     true,
	FormatHDR:     true,
	FormatOpenEXR: true,
	FormatDDS:     true,
	FormatTGA:     true,
}

// decoderFor maps a format to its decoder constructor.
func decoderFor(f Format) (formats.Constructor, bool) {
	switch f {
	case FormatPNG:
		return formats.NewPNG, true
	case FormatJPEG:
		return formats.NewJPEG, true
	case FormatGIF:
		return formats.NewGIF, true
	case FormatWebP:
		return formats.NewWebP, true
	case FormatBMP:
		return formats.NewBMP, true
	case FormatTIFF:
		return formats.NewTIFF, true
	case FormatPNM:
		return formats.NewPNM, true
	case FormatQOI:
		return formats.NewQOI, true
	case FormatFarbfeld:
		return formats.NewFarbfeld, true
	case FormatHEIF, FormatAVIF:
		return formats.NewHEIF, true
	}
	return nil, false
}

// CanDecode reports whether a decoder is registered for f.
func CanDecode(f Format) bool {
	_, ok := decoderFor(f)
	return ok
}
