package imgread

import "sort"

// SniffLen is the number of leading bytes GuessFormat needs at most.
const SniffLen = 16

// magic is a byte string expected at a fixed offset.
type magic struct {
	offset int
	bytes  string
}

// signature is one rule of the sniffer. All parts must match, then test,
// when set, must accept the prefix.
type signature struct {
	format Format
	parts  []magic
	test   func(prefix []byte) bool
}

func (s *signature) specificity() int {
	n := 0
	for _, p := range s.parts {
		n += len(p.bytes)
	}
	return n
}

func (s *signature) matches(prefix []byte) bool {
	for _, p := range s.parts {
		end := p.offset + len(p.bytes)
		if len(prefix) < end || string(prefix[p.offset:end]) != p.bytes {
			return false
		}
	}
	return s.test == nil || s.test(prefix)
}

func at0(b string) []magic { return []magic{{0, b}} }

func ftyp(brand string) []magic { return []magic{{4, "ftyp" + brand}} }

// pnmSeparator requires whitespace after a Netpbm magic so that text
// starting with "P1" is not taken for an image.
func pnmSeparator(prefix []byte) bool {
	if len(prefix) < 3 {
		return false
	}
	switch prefix[2] {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// signatures is sorted most specific first by init.
var signatures = []signature{
	{format: FormatPNG, parts: at0("\x89PNG\r\n\x1a\n")},
	{format: FormatJPEG, parts: at0("\xff\xd8\xff")},
	{format: FormatGIF, parts: at0("GIF89a")},
	{format: FormatGIF, parts: at0("GIF87a")},
	{format: FormatWebP, parts: []magic{{0, "RIFF"}, {8, "WEBP"}}},
	{format: FormatTIFF, parts: at0("II*\x00")},
	{format: FormatTIFF, parts: at0("MM\x00*")},
	{format: FormatDDS, parts: at0("DDS ")},
	{format: FormatBMP, parts: at0("BM")},
	{format: FormatICO, parts: at0("\x00\x00\x01\x00")},
	{format: FormatHDR, parts: at0("#?RADIANCE")},
	{format: FormatHDR, parts: at0("#?RGBE")},
	{format: FormatPNM, parts: at0("P1"), test: pnmSeparator},
	{format: FormatPNM, parts: at0("P2"), test: pnmSeparator},
	{format: FormatPNM, parts: at0("P3"), test: pnmSeparator},
	{format: FormatPNM, parts: at0("P4"), test: pnmSeparator},
	{format: FormatPNM, parts: at0("P5"), test: pnmSeparator},
	{format: FormatPNM, parts: at0("P6"), test: pnmSeparator},
	{format: FormatPNM, parts: at0("P7"), test: pnmSeparator},
	{format: FormatFarbfeld, parts: at0("farbfeld")},
	{format: FormatAVIF, parts: ftyp("avif")},
	{format: FormatAVIF, parts: ftyp("avis")},
	{format: FormatHEIF, parts: ftyp("heic")},
	{format: FormatHEIF, parts: ftyp("heix")},
	{format: FormatHEIF, parts: ftyp("hevc")},
	{format: FormatHEIF, parts: ftyp("hevx")},
	{format: FormatHEIF, parts: ftyp("heim")},
	{format: FormatHEIF, parts: ftyp("heis")},
	{format: FormatHEIF, parts: ftyp("mif1")},
	{format: FormatHEIF, parts: ftyp("msf1")},
	{format: FormatOpenEXR, parts: at0("\x76\x2f\x31\x01")},
	{format: FormatQOI, parts: at0("qoif")},
}

func init() {
	sort.SliceStable(signatures, func(i, j int) bool {
		return signatures[i].specificity() > signatures[j].specificity()
	})
}

// GuessFormat identifies a format from the leading bytes of a stream. It
// needs at most SniffLen bytes and returns false when no signature
// matches completely.
func GuessFormat(prefix []byte) (Format, bool) {
	if len(prefix) > SniffLen {
		prefix = prefix[:SniffLen]
	}
	for i := range signatures {
		if signatures[i].matches(prefix) {
			return signatures[i].format, true
		}
	}
	return FormatUnknown, false
}
