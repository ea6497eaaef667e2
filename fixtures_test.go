package imgread

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/chai2010/webp"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// gradient returns a small RGBA image with distinct pixels.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 0x80, 0xFF})
		}
	}
	return img
}

func encodeFixture(t testing.TB, f Format, w, h int) []byte {
	t.Helper()
	img := gradient(w, h)
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case FormatGIF:
		err = gif.Encode(&buf, img, nil)
	case FormatBMP:
		err = bmp.Encode(&buf, img)
	case FormatTIFF:
		err = tiff.Encode(&buf, img, nil)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
	case FormatPNM:
		fmt.Fprintf(&buf, "P5\n%d %d\n255\n", w, h)
		buf.Write(bytes.Repeat([]byte{0x7F}, w*h))
	case FormatQOI:
		err = qoi.Encode(&buf, img)
	case FormatFarbfeld:
		buf.WriteString("farbfeld")
		binary.Write(&buf, binary.BigEndian, [2]uint32{uint32(w), uint32(h)})
		for i := 0; i < len(img.Pix); i++ {
			buf.Write([]byte{img.Pix[i], img.Pix[i]})
		}
	default:
		t.Fatalf("no fixture encoder for %s", f)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", f, err)
	}
	return buf.Bytes()
}

var errBroken = errors.New("broken source")

// faultySource fails the Nth read or seek (1-based). Zero disables the
// fault.
type faultySource struct {
	*bytes.Reader
	failRead  int
	failSeek  int
	reads     int
	seeks     int
	onRead    func()
	readLimit int
}

func newFaultySource(data []byte) *faultySource {
	return &faultySource{Reader: bytes.NewReader(data)}
}

func (s *faultySource) Read(p []byte) (int, error) {
	s.reads++
	if s.failRead != 0 && s.reads >= s.failRead {
		return 0, errBroken
	}
	if s.readLimit > 0 && len(p) > s.readLimit {
		p = p[:s.readLimit]
	}
	n, err := s.Reader.Read(p)
	if s.onRead != nil {
		s.onRead()
	}
	return n, err
}

func (s *faultySource) Seek(offset int64, whence int) (int64, error) {
	s.seeks++
	if s.failSeek != 0 && s.seeks >= s.failSeek {
		return 0, errBroken
	}
	return s.Reader.Seek(offset, whence)
}

func position(t testing.TB, s io.Seeker) int64 {
	t.Helper()
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	return pos
}
