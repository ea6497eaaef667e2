package imgread

import (
	"path/filepath"
	"strings"
)

// Format represents a container format the registry knows about.
type Format string

const (
	FormatUnknown  Format = ""
	FormatPNG      Format = "PNG"
	FormatJPEG     Format = "JPEG"
	FormatGIF      Format = "GIF"
	FormatWebP     Format = "WebP"
	FormatBMP      Format = "BMP"
	FormatTIFF     Format = "TIFF"
	FormatPNM      Format = "PNM"
	FormatHEIF     Format = "HEIF"
	FormatAVIF     Format = "AVIF"
	FormatICO      Format = "ICO"
	FormatQOI      Format = "QOI"
	FormatFarbfeld Format = "Farbfeld"
	FormatHDR      Format = "HDR"
	FormatOpenEXR  Format = "OpenEXR"
	FormatDDS      Format = "DDS"
	FormatTGA      Format = "TGA"
)

// formatInfo holds the static facts about a format.
type formatInfo struct {
	extensions []string
	mimeTypes  []string
}

// registry lists every known format in declaration order. The first
// extension and MIME type are canonical.
var registry = []struct {
	format Format
	info   formatInfo
}{
	{FormatPNG, formatInfo{[]string{"png"}, []string{"image/png"}}},
	{FormatJPEG, formatInfo{[]string{"jpg", "jpeg", "jpe", "jfif"}, []string{"image/jpeg"}}},
	{FormatGIF, formatInfo{[]string{"gif"}, []string{"image/gif"}}},
	{FormatWebP, formatInfo{[]string{"webp"}, []string{"image/webp"}}},
	{FormatBMP, formatInfo{[]string{"bmp", "dib"}, []string{"image/bmp", "image/x-bmp"}}},
	{FormatTIFF, formatInfo{[]string{"tiff", "tif"}, []string{"image/tiff"}}},
	{FormatPNM, formatInfo{[]string{"pnm", "pbm", "pgm", "ppm", "pam"}, []string{
		"image/x-portable-anymap", "image/x-portable-bitmap", "image/x-portable-graymap", "image/x-portable-pixmap",
	}}},
	{FormatHEIF, formatInfo{[]string{"heic", "heif", "hif"}, []string{"image/heic", "image/heif"}}},
	{FormatAVIF, formatInfo{[]string{"avif"}, []string{"image/avif"}}},
	{FormatICO, formatInfo{[]string{"ico"}, []string{"image/x-icon", "image/vnd.microsoft.icon"}}},
	{FormatQOI, formatInfo{[]string{"qoi"}, []string{"image/x-qoi"}}},
	{FormatFarbfeld, formatInfo{[]string{"ff"}, nil}},
	{FormatHDR, formatInfo{[]string{"hdr"}, []string{"image/vnd.radiance"}}},
	{FormatOpenEXR, formatInfo{[]string{"exr"}, []string{"image/x-exr"}}},
	{FormatDDS, formatInfo{[]string{"dds"}, []string{"image/vnd-ms.dds"}}},
	{FormatTGA, formatInfo{[]string{"tga", "icb", "vda", "vst"}, []string{"image/x-targa", "image/x-tga"}}},
}

var (
	byExtension = make(map[string]Format)
	byMimeType  = make(map[string]Format)
	infoByFmt   = make(map[Format]formatInfo)
)

func init() {
	for _, entry := range registry {
		infoByFmt[entry.format] = entry.info
		for _, ext := range entry.info.extensions {
			byExtension[ext] = entry.format
		}
		for _, mt := range entry.info.mimeTypes {
			byMimeType[mt] = entry.format
		}
	}
}

// Formats returns every known format in declaration order.
func Formats() []Format {
	out := make([]Format, len(registry))
	for i, entry := range registry {
		out[i] = entry.format
	}
	return out
}

// String returns the format name, or "unknown".
func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// Extensions returns the file extensions of f without the leading dot.
func (f Format) Extensions() []string {
	return append([]string(nil), infoByFmt[f].extensions...)
}

// MimeType returns the canonical MIME type of f.
func (f Format) MimeType() string {
	if mt := infoByFmt[f].mimeTypes; len(mt) > 0 {
		return mt[0]
	}
	return "application/octet-stream"
}

// FormatFromExtension looks up an extension, with or without its leading
// dot. The lookup is case-insensitive.
func FormatFromExtension(ext string) (Format, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	f, ok := byExtension[ext]
	return f, ok
}

// FormatFromPath guesses the format from the extension of path. It does
// no I/O.
func FormatFromPath(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return FormatUnknown, false
	}
	return FormatFromExtension(ext)
}

// FormatFromMimeType maps a MIME type, ignoring parameters and case.
func FormatFromMimeType(mimeType string) (Format, bool) {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	f, ok := byMimeType[strings.ToLower(strings.TrimSpace(mimeType))]
	return f, ok
}
