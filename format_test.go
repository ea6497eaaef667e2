package imgread

import "testing"

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		ok       bool
	}{
		{"photo.jpg", FormatJPEG, true},
		{"photo.JPEG", FormatJPEG, true},
		{"/tmp/dir.png/image.Png", FormatPNG, true},
		{"anim.gif", FormatGIF, true},
		{"pic.webp", FormatWebP, true},
		{"old.bmp", FormatBMP, true},
		{"scan.tif", FormatTIFF, true},
		{"scan.tiff", FormatTIFF, true},
		{"bits.pbm", FormatPNM, true},
		{"gray.pgm", FormatPNM, true},
		{"color.ppm", FormatPNM, true},
		{"phone.HEIC", FormatHEIF, true},
		{"web.avif", FormatAVIF, true},
		{"favicon.ico", FormatICO, true},
		{"image.qoi", FormatQOI, true},
		{"image.ff", FormatFarbfeld, true},
		{"sky.hdr", FormatHDR, true},
		{"render.exr", FormatOpenEXR, true},
		{"texture.dds", FormatDDS, true},
		{"sprite.tga", FormatTGA, true},
		{"archive.tar.gz", FormatUnknown, false},
		{"noextension", FormatUnknown, false},
		{"trailingdot.", FormatUnknown, false},
		{"", FormatUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FormatFromPath(tt.path)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("FormatFromPath(%q) = %v, %v, want %v, %v", tt.path, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

// Every format is reachable from each of its own extensions.
func TestFormatExtensionsRoundTrip(t *testing.T) {
	for _, f := range Formats() {
		exts := f.Extensions()
		if len(exts) == 0 {
			t.Errorf("%s has no extensions", f)
		}
		for _, ext := range exts {
			got, ok := FormatFromPath("file." + ext)
			if !ok || got != f {
				t.Errorf("FormatFromPath(file.%s) = %v, %v, want %v", ext, got, ok, f)
			}
			if got, ok := FormatFromExtension("." + ext); !ok || got != f {
				t.Errorf("FormatFromExtension(.%s) = %v, %v, want %v", ext, got, ok, f)
			}
		}
	}
}

func TestFormatFromMimeType(t *testing.T) {
	tests := []struct {
		mime     string
		expected Format
		ok       bool
	}{
		{"image/png", FormatPNG, true},
		{"IMAGE/JPEG", FormatJPEG, true},
		{"image/webp; q=0.9", FormatWebP, true},
		{"image/heic", FormatHEIF, true},
		{"text/plain", FormatUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			got, ok := FormatFromMimeType(tt.mime)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("FormatFromMimeType(%q) = %v, %v, want %v, %v", tt.mime, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestFormatString(t *testing.T) {
	if got := FormatUnknown.String(); got != "unknown" {
		t.Errorf("FormatUnknown.String() = %q, want unknown", got)
	}
	if got := FormatWebP.String(); got != "WebP" {
		t.Errorf("FormatWebP.String() = %q, want WebP", got)
	}
	if got := FormatPNG.MimeType(); got != "image/png" {
		t.Errorf("FormatPNG.MimeType() = %q", got)
	}
	if got := FormatFarbfeld.MimeType(); got != "application/octet-stream" {
		t.Errorf("FormatFarbfeld.MimeType() = %q", got)
	}
}

// Every format either has a decoder or is explicitly sniff-only.
func TestDecoderRegistry(t *testing.T) {
	seen := make(map[Format]bool)
	for _, f := range Formats() {
		if seen[f] {
			t.Errorf("%s listed twice", f)
		}
		seen[f] = true
		if CanDecode(f) == sniffOnly[f] {
			t.Errorf("%s: CanDecode = %v, sniff-only = %v", f, CanDecode(f), sniffOnly[f])
		}
	}
	for f := range sniffOnly {
		if !seen[f] {
			t.Errorf("sniff-only %s is not a known format", f)
		}
	}
	if CanDecode(FormatUnknown) {
		t.Error("CanDecode(FormatUnknown) = true")
	}
}
