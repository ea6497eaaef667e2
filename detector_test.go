package imgread

import "testing"

// TestGuessFormat tests format detection via magic bytes
func TestGuessFormat(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected Format
		ok       bool
	}{
		{"PNG", "\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR", FormatPNG, true},
		{"JPEG", "\xff\xd8\xff\xe0\x00\x10JFIF", FormatJPEG, true},
		{"JPEG EXIF", "\xff\xd8\xff\xe1", FormatJPEG, true},
		{"GIF87a", "GIF87a", FormatGIF, true},
		{"GIF89a", "GIF89a\x01\x00", FormatGIF, true},
		{"WebP", "RIFF\x00\x00\x00\x00WEBPVP8 ", FormatWebP, true},
		{"RIFF without WEBP", "RIFF\x00\x00\x00\x00WAVEfmt ", FormatUnknown, false},
		{"TIFF little endian", "II*\x00\x08\x00\x00\x00", FormatTIFF, true},
		{"TIFF big endian", "MM\x00*\x00\x00\x00\x08", FormatTIFF, true},
		{"BMP", "BM\x00\x00", FormatBMP, true},
		{"DDS", "DDS \x7c\x00\x00\x00", FormatDDS, true},
		{"ICO", "\x00\x00\x01\x00\x01\x00", FormatICO, true},
		{"Radiance", "#?RADIANCE\n", FormatHDR, true},
		{"RGBE", "#?RGBE\n", FormatHDR, true},
		{"PBM plain", "P1\n2 2\n", FormatPNM, true},
		{"PGM plain", "P2 2 2", FormatPNM, true},
		{"PPM plain", "P3\t2 2", FormatPNM, true},
		{"PBM raw", "P4\n8 1\n", FormatPNM, true},
		{"PGM raw", "P5\r\n", FormatPNM, true},
		{"PPM raw", "P6\n", FormatPNM, true},
		{"PAM", "P7\nWIDTH 1\n", FormatPNM, true},
		{"PNM without separator", "P1x", FormatUnknown, false},
		{"PNM magic only", "P6", FormatUnknown, false},
		{"farbfeld", "farbfeld\x00\x00\x00\x01", FormatFarbfeld, true},
		{"AVIF", "\x00\x00\x00\x1cftypavif", FormatAVIF, true},
		{"AVIF sequence", "\x00\x00\x00\x1cftypavis", FormatAVIF, true},
		{"HEIC", "\x00\x00\x00\x18ftypheic", FormatHEIF, true},
		{"HEIF mif1", "\x00\x00\x00\x18ftypmif1", FormatHEIF, true},
		{"unknown ftyp brand", "\x00\x00\x00\x18ftypisom", FormatUnknown, false},
		{"OpenEXR", "\x76\x2f\x31\x01\x02\x00\x00\x00", FormatOpenEXR, true},
		{"QOI", "qoif\x00\x00\x00\x01", FormatQOI, true},
		{"Unknown", "\x00\x00\x00\x00", FormatUnknown, false},
		{"Empty", "", FormatUnknown, false},
		// A box size of 256 looks like an ICO header; the ftyp brand is
		// more specific and wins.
		{"HEIC sized like ICO", "\x00\x00\x01\x00ftypheic", FormatHEIF, true},
		// Bytes past SniffLen are ignored.
		{"beyond sniff window", "\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x89PNG", FormatUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GuessFormat([]byte(tt.prefix))
			if got != tt.expected || ok != tt.ok {
				t.Errorf("GuessFormat() = %v, %v, want %v, %v", got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestGuessFormat_ShortPrefixes(t *testing.T) {
	shortest := SniffLen
	for _, s := range signatures {
		end := 0
		for _, p := range s.parts {
			if e := p.offset + len(p.bytes); e > end {
				end = e
			}
		}
		if end < shortest {
			shortest = end
		}
	}
	if shortest != 2 {
		t.Fatalf("shortest signature = %d bytes, want 2", shortest)
	}

	if f, ok := GuessFormat(nil); ok {
		t.Errorf("GuessFormat(nil) = %v, want no match", f)
	}
	for b := 0; b < 256; b++ {
		if f, ok := GuessFormat([]byte{byte(b)}); ok {
			t.Errorf("GuessFormat(%#x) = %v, want no match", b, f)
		}
	}
}

func TestGuessFormat_Truncated(t *testing.T) {
	// Every strict prefix of a signature must fail rather than guess.
	full := []byte("\x89PNG\r\n\x1a\n")
	for i := 0; i < len(full); i++ {
		if f, ok := GuessFormat(full[:i]); ok {
			t.Errorf("GuessFormat(%q) = %v, want no match", full[:i], f)
		}
	}
}

func TestSignatureOrder(t *testing.T) {
	for i := 1; i < len(signatures); i++ {
		if signatures[i-1].specificity() < signatures[i].specificity() {
			t.Fatalf("signature %d (%s) is less specific than %d (%s)",
				i-1, signatures[i-1].format, i, signatures[i].format)
		}
	}
}

func TestGuessFormat_Fixtures(t *testing.T) {
	for _, f := range []Format{FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF, FormatWebP, FormatPNM, FormatQOI, FormatFarbfeld} {
		t.Run(f.String(), func(t *testing.T) {
			data := encodeFixture(t, f, 8, 8)
			got, ok := GuessFormat(data[:SniffLen])
			if !ok || got != f {
				t.Errorf("GuessFormat() = %v, %v, want %v", got, ok, f)
			}
		})
	}
}

// BenchmarkGuessFormat benchmarks format detection
func BenchmarkGuessFormat(b *testing.B) {
	prefix := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00")
	for i := 0; i < b.N; i++ {
		GuessFormat(prefix)
	}
}
