package formats

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"

	"imgread/limits"
	"imgread/packed"
)

// pnmHeader describes a Netpbm P1-P6 file.
type pnmHeader struct {
	kind   byte // '1'..'6'
	width  int
	height int
	maxval int
}

func (p *pnmHeader) binary() bool { return p.kind >= '4' }

func (p *pnmHeader) channels() int {
	if p.kind == '3' || p.kind == '6' {
		return 3
	}
	return 1
}

// NewPNM returns a decoder for PBM, PGM and PPM files, plain and raw.
func NewPNM(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parsePNM, decodePNM)
}

func parsePNM(r io.ReadSeeker) (*Header, error) {
	p, err := readPNMHeader(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}

	h := &Header{Width: p.width, Height: p.height}
	h.setAdditional("Magic", "P"+string(p.kind))
	h.setAdditional("MaxVal", p.maxval)

	wide := p.maxval > 0xFF
	switch p.channels() {
	case 1:
		h.ColorSpace, h.BytesPerPixel = ColorSpaceGrayscale, 1
		if wide {
			h.BytesPerPixel = 2
		}
	case 3:
		h.ColorSpace, h.BytesPerPixel = ColorSpaceRGB, 4
		if wide {
			h.BytesPerPixel = 8
		}
	}
	h.BitDepth = 8
	switch {
	case p.kind == '1' || p.kind == '4':
		h.BitDepth = 1
	case wide:
		h.BitDepth = 16
	}
	return h, nil
}

func readPNMHeader(br *bufio.Reader) (*pnmHeader, error) {
	var magic [2]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read PNM magic: %w", err)
	}
	if magic[0] == 'P' && magic[1] == '7' {
		return nil, fmt.Errorf("%w: PAM (P7) files", ErrUnsupported)
	}
	if magic[0] != 'P' || magic[1] < '1' || magic[1] > '6' {
		return nil, fmt.Errorf("%w: invalid PNM magic %q", ErrInvalidData, magic[:])
	}

	p := &pnmHeader{kind: magic[1], maxval: 1}
	var err error
	if p.width, err = readPNMInt(br); err != nil {
		return nil, fmt.Errorf("failed to read PNM width: %w", err)
	}
	if p.height, err = readPNMInt(br); err != nil {
		return nil, fmt.Errorf("failed to read PNM height: %w", err)
	}
	if p.kind != '1' && p.kind != '4' {
		if p.maxval, err = readPNMInt(br); err != nil {
			return nil, fmt.Errorf("failed to read PNM maxval: %w", err)
		}
		if p.maxval < 1 || p.maxval > 0xFFFF {
			return nil, fmt.Errorf("%w: PNM maxval %d", ErrInvalidData, p.maxval)
		}
	}

	// Exactly one whitespace byte separates a binary raster from the header.
	if p.binary() {
		c, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("failed to read PNM raster: %w", err)
		}
		if !isPNMSpace(c) {
			return nil, fmt.Errorf("%w: missing whitespace before PNM raster", ErrInvalidData)
		}
	}
	return p, nil
}

func isPNMSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// readPNMInt reads a decimal token, skipping whitespace and comments.
func readPNMInt(br *bufio.Reader) (int, error) {
	var c byte
	var err error
	for {
		if c, err = br.ReadByte(); err != nil {
			return 0, err
		}
		if c == '#' {
			if _, err = br.ReadSlice('\n'); err != nil && err != bufio.ErrBufferFull {
				return 0, err
			}
			continue
		}
		if !isPNMSpace(c) {
			break
		}
	}

	if c < '0' || c > '9' {
		return 0, fmt.Errorf("%w: unexpected byte %q in PNM header", ErrInvalidData, c)
	}
	n := 0
	for {
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0, fmt.Errorf("%w: PNM value too large", ErrInvalidData)
		}
		c, err = br.ReadByte()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		if c < '0' || c > '9' {
			// The separator belongs to whoever reads next.
			_ = br.UnreadByte()
			return n, nil
		}
	}
}

func decodePNM(r io.Reader, _ *Header, l limits.Limits) (image.Image, error) {
	br := bufio.NewReader(r)
	p, err := readPNMHeader(br)
	if err != nil {
		return nil, err
	}

	switch p.kind {
	case '4':
		return decodePBM(br, p, l)
	case '1':
		return decodePlainPBM(br, p)
	}
	return decodeGrayOrRGB(br, p)
}

// decodePBM expands the row-padded 1-bit raster. A set bit is black.
func decodePBM(r io.Reader, p *pnmHeader, l limits.Limits) (image.Image, error) {
	rowBytes := packed.RowBytes(1, uint32(p.width))
	size := rowBytes * uint64(p.height)
	if err := l.CheckBytes(size); err != nil {
		return nil, err
	}
	raster := make([]byte, size)
	if _, err := io.ReadFull(r, raster); err != nil {
		return nil, fmt.Errorf("failed to read PBM raster: %w", err)
	}

	pix := packed.ExpandBits(1, uint32(p.width), raster)
	for i := range pix {
		pix[i] = 0xFF - pix[i]
	}
	return &image.Gray{
		Pix:    pix,
		Stride: p.width,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}, nil
}

func decodePlainPBM(br *bufio.Reader, p *pnmHeader) (image.Image, error) {
	img := image.NewGray(image.Rect(0, 0, p.width, p.height))
	for i := range img.Pix {
		// Plain PBM digits need no separators.
		var c byte
		var err error
		for {
			if c, err = br.ReadByte(); err != nil {
				return nil, fmt.Errorf("failed to read PBM sample %d: %w", i, err)
			}
			if c == '#' {
				if _, err = br.ReadSlice('\n'); err != nil && err != bufio.ErrBufferFull {
					return nil, err
				}
				continue
			}
			if !isPNMSpace(c) {
				break
			}
		}
		switch c {
		case '0':
			img.Pix[i] = 0xFF
		case '1':
			img.Pix[i] = 0
		default:
			return nil, fmt.Errorf("%w: PBM sample %q", ErrInvalidData, c)
		}
	}
	return img, nil
}

// decodeGrayOrRGB handles P2, P3, P5 and P6.
func decodeGrayOrRGB(br *bufio.Reader, p *pnmHeader) (image.Image, error) {
	rect := image.Rect(0, 0, p.width, p.height)
	wide := p.maxval > 0xFF
	channels := p.channels()

	next := func() (int, error) {
		if !p.binary() {
			return readPNMInt(br)
		}
		if !wide {
			b, err := br.ReadByte()
			return int(b), err
		}
		var b [2]byte
		_, err := io.ReadFull(br, b[:])
		return int(b[0])<<8 | int(b[1]), err
	}
	scale := func(v int) (uint16, error) {
		if v > p.maxval {
			return 0, fmt.Errorf("%w: PNM sample %d above maxval %d", ErrInvalidData, v, p.maxval)
		}
		return uint16(v * 0xFFFF / p.maxval), nil
	}

	var (
		gray   *image.Gray
		gray16 *image.Gray16
		rgba   *image.RGBA
		rgba64 *image.RGBA64
	)
	switch {
	case channels == 1 && !wide:
		gray = image.NewGray(rect)
	case channels == 1:
		gray16 = image.NewGray16(rect)
	case !wide:
		rgba = image.NewRGBA(rect)
	default:
		rgba64 = image.NewRGBA64(rect)
	}

	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			var s [3]uint16
			for c := 0; c < channels; c++ {
				v, err := next()
				if err != nil {
					return nil, fmt.Errorf("failed to read PNM sample at (%d, %d): %w", x, y, err)
				}
				if s[c], err = scale(v); err != nil {
					return nil, err
				}
			}
			switch {
			case gray != nil:
				gray.SetGray(x, y, color.Gray{Y: uint8(s[0] >> 8)})
			case gray16 != nil:
				gray16.SetGray16(x, y, color.Gray16{Y: s[0]})
			case rgba != nil:
				rgba.SetRGBA(x, y, color.RGBA{R: uint8(s[0] >> 8), G: uint8(s[1] >> 8), B: uint8(s[2] >> 8), A: 0xFF})
			default:
				rgba64.SetRGBA64(x, y, color.RGBA64{R: s[0], G: s[1], B: s[2], A: 0xFFFF})
			}
		}
	}

	switch {
	case gray != nil:
		return gray, nil
	case gray16 != nil:
		return gray16, nil
	case rgba != nil:
		return rgba, nil
	}
	return rgba64, nil
}
