package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"

	"imgread/limits"
)

// createPackedBMP builds an uncompressed BMP with a palette. rows are the
// packed rows in file order, without padding.
func createPackedBMP(bpp uint16, width, height int32, palette []color.RGBA, rows [][]byte) []byte {
	stride := (int(width)*int(bpp) + 31) / 32 * 4
	dataOffset := 14 + 40 + len(palette)*4

	var buf bytes.Buffer
	le := binary.LittleEndian

	// File header
	buf.WriteString("BM")
	binary.Write(&buf, le, uint32(dataOffset+stride*len(rows)))
	binary.Write(&buf, le, uint32(0))
	binary.Write(&buf, le, uint32(dataOffset))

	// BITMAPINFOHEADER
	binary.Write(&buf, le, uint32(40))
	binary.Write(&buf, le, width)
	binary.Write(&buf, le, height)
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, bpp)
	binary.Write(&buf, le, uint32(0)) // BI_RGB
	binary.Write(&buf, le, uint32(0))
	binary.Write(&buf, le, int32(2835))
	binary.Write(&buf, le, int32(2835))
	binary.Write(&buf, le, uint32(len(palette)))
	binary.Write(&buf, le, uint32(0))

	for _, c := range palette {
		buf.Write([]byte{c.B, c.G, c.R, 0})
	}
	for _, row := range rows {
		padded := make([]byte, stride)
		copy(padded, row)
		buf.Write(padded)
	}
	return buf.Bytes()
}

var (
	black = color.RGBA{0, 0, 0, 0xFF}
	white = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	red   = color.RGBA{0xFF, 0, 0, 0xFF}
	green = color.RGBA{0, 0xFF, 0, 0xFF}
	blue  = color.RGBA{0, 0, 0xFF, 0xFF}
)

func decodeBMPFixture(t *testing.T, data []byte) *image.RGBA {
	t.Helper()
	img, err := NewBMP(bytes.NewReader(data), limits.Default()).Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("Decode() returned %T, want *image.RGBA", img)
	}
	return rgba
}

func checkPixels(t *testing.T, img *image.RGBA, want [][]color.RGBA) {
	t.Helper()
	if b := img.Bounds(); b.Dy() != len(want) || b.Dx() != len(want[0]) {
		t.Fatalf("bounds = %v, want %dx%d", b, len(want[0]), len(want))
	}
	for y, row := range want {
		for x, c := range row {
			if got := img.RGBAAt(x, y); got != c {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

func TestBMP_1Bit(t *testing.T) {
	// 10 pixels per row; bottom-up, so the first file row is y=1.
	data := createPackedBMP(1, 10, 2, []color.RGBA{black, white}, [][]byte{
		{0b00000111, 0b11000000},
		{0b10101010, 0b10000000},
	})

	h, err := NewBMP(bytes.NewReader(data), limits.Default()).Header()
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	if h.Width != 10 || h.Height != 2 || h.BitDepth != 1 || h.ColorSpace != ColorSpaceIndexed {
		t.Errorf("Header = %+v", h)
	}

	img := decodeBMPFixture(t, data)
	b, w := black, white
	checkPixels(t, img, [][]color.RGBA{
		{w, b, w, b, w, b, w, b, w, b},
		{b, b, b, b, b, w, w, w, w, w},
	})
}

func TestBMP_2Bit(t *testing.T) {
	gray := func(v uint8) color.RGBA { return color.RGBA{v, v, v, 0xFF} }
	palette := []color.RGBA{gray(0), gray(85), gray(170), gray(255)}
	data := createPackedBMP(2, 5, 1, palette, [][]byte{
		{0b11100100, 0b11000000},
	})

	img := decodeBMPFixture(t, data)
	checkPixels(t, img, [][]color.RGBA{
		{gray(255), gray(170), gray(85), gray(0), gray(255)},
	})
}

func TestBMP_4BitTopDown(t *testing.T) {
	// Three palette entries; index 5 is past the palette.
	data := createPackedBMP(4, 3, -2, []color.RGBA{red, green, blue}, [][]byte{
		{0x01, 0x20},
		{0x21, 0x50},
	})

	img := decodeBMPFixture(t, data)
	checkPixels(t, img, [][]color.RGBA{
		{red, green, blue},
		{blue, green, black},
	})
}

func TestBMP_PackedTruncated(t *testing.T) {
	data := createPackedBMP(1, 10, 2, []color.RGBA{black, white}, [][]byte{{0xFF, 0xC0}, {0x00, 0x00}})
	_, err := NewBMP(bytes.NewReader(data[:len(data)-5]), limits.Default()).Decode()
	if err == nil {
		t.Fatal("Decode() of truncated BMP succeeded")
	}
}

func TestBMP_PackedRespectsLimits(t *testing.T) {
	data := createPackedBMP(1, 10, 2, []color.RGBA{black, white}, [][]byte{{0}, {0}})
	_, err := NewBMP(bytes.NewReader(data), limits.Limits{MaxAlloc: 79}).Decode()
	if !errors.Is(err, limits.ErrExceeded) {
		t.Errorf("Decode() error = %v, want limits exceeded", err)
	}
}
