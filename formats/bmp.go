package formats

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/bmp"

	"imgread/limits"
	"imgread/packed"
)

var compressionNames = map[uint32]string{
	0: "BI_RGB",
	1: "BI_RLE8",
	2: "BI_RLE4",
	3: "BI_BITFIELDS",
	4: "BI_JPEG",
	5: "BI_PNG",
}

// bmpInfo is the part of the file and DIB headers the decoder needs.
type bmpInfo struct {
	dataOffset   uint32
	dibSize      uint32
	width        int32
	height       int32
	bitsPerPixel uint16
	compression  uint32
	colorsUsed   uint32
	planes       uint16
}

func (b *bmpInfo) topDown() bool {
	return b.height < 0
}

func (b *bmpInfo) absHeight() int {
	if b.height < 0 {
		return -int(b.height)
	}
	return int(b.height)
}

// NewBMP returns a BMP decoder. 8, 24 and 32 bit images go through
// x/image/bmp; uncompressed 1, 2 and 4 bit images are unpacked here.
func NewBMP(r io.ReadSeeker, l limits.Limits) Decoder {
	return newDecoder(r, l, parseBMP, decodeBMP)
}

// readBMPInfo reads the file header and the DIB header.
func readBMPInfo(r io.Reader) (*bmpInfo, error) {
	var fileHeader [14]byte
	if _, err := io.ReadFull(r, fileHeader[:]); err != nil {
		return nil, fmt.Errorf("failed to read BMP file header: %w", err)
	}
	if fileHeader[0] != 'B' || fileHeader[1] != 'M' {
		return nil, fmt.Errorf("%w: invalid BMP file", ErrInvalidData)
	}

	info := &bmpInfo{dataOffset: binary.LittleEndian.Uint32(fileHeader[10:14])}

	var dibSizeBytes [4]byte
	if _, err := io.ReadFull(r, dibSizeBytes[:]); err != nil {
		return nil, fmt.Errorf("failed to read DIB header size: %w", err)
	}
	info.dibSize = binary.LittleEndian.Uint32(dibSizeBytes[:])

	switch {
	case info.dibSize >= 40:
		// BITMAPINFOHEADER or a later extension of it.
		var dib [36]byte
		if _, err := io.ReadFull(r, dib[:]); err != nil {
			return nil, fmt.Errorf("failed to read DIB header: %w", err)
		}
		info.width = int32(binary.LittleEndian.Uint32(dib[0:4]))
		info.height = int32(binary.LittleEndian.Uint32(dib[4:8]))
		info.planes = binary.LittleEndian.Uint16(dib[8:10])
		info.bitsPerPixel = binary.LittleEndian.Uint16(dib[10:12])
		info.compression = binary.LittleEndian.Uint32(dib[12:16])
		info.colorsUsed = binary.LittleEndian.Uint32(dib[28:32])

	case info.dibSize == 12:
		// BITMAPCOREHEADER
		var dib [8]byte
		if _, err := io.ReadFull(r, dib[:]); err != nil {
			return nil, fmt.Errorf("failed to read DIB header: %w", err)
		}
		info.width = int32(binary.LittleEndian.Uint16(dib[0:2]))
		info.height = int32(binary.LittleEndian.Uint16(dib[2:4]))
		info.planes = binary.LittleEndian.Uint16(dib[4:6])
		info.bitsPerPixel = binary.LittleEndian.Uint16(dib[6:8])

	default:
		return nil, fmt.Errorf("%w: unsupported DIB header size: %d", ErrInvalidData, info.dibSize)
	}
	return info, nil
}

func parseBMP(r io.ReadSeeker) (*Header, error) {
	info, err := readBMPInfo(r)
	if err != nil {
		return nil, err
	}

	h := &Header{
		Width:    int(info.width),
		Height:   info.absHeight(),
		BitDepth: int(info.bitsPerPixel),
	}
	h.setAdditional("TopDown", info.topDown())
	h.setAdditional("Planes", info.planes)
	h.setAdditional("DataOffset", info.dataOffset)
	h.setAdditional("ColorsUsed", info.colorsUsed)
	if name, ok := compressionNames[info.compression]; ok {
		h.setAdditional("CompressionName", name)
	}

	switch info.bitsPerPixel {
	case 1, 2, 4:
		// Unpacked to RGBA.
		h.ColorSpace = ColorSpaceIndexed
		h.BytesPerPixel = 4
	case 8:
		h.ColorSpace = ColorSpaceIndexed
		h.BytesPerPixel = 1
	case 16, 24:
		h.ColorSpace = ColorSpaceRGB
		h.BytesPerPixel = 4
	case 32:
		h.ColorSpace = ColorSpaceRGBA
		h.BytesPerPixel = 4
	default:
		h.ColorSpace = ColorSpaceUnknown
		h.BytesPerPixel = 4
	}
	return h, nil
}

func decodeBMP(r io.Reader, _ *Header, _ limits.Limits) (image.Image, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return bmp.Decode(r)
	}
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	info, err := readBMPInfo(rs)
	if err != nil {
		return nil, err
	}

	switch info.bitsPerPixel {
	case 1, 2, 4:
		if info.compression != 0 {
			return nil, fmt.Errorf("%w: compressed %d-bit BMP", ErrUnsupported, info.bitsPerPixel)
		}
		return decodePackedBMP(rs, start, info)
	}

	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	return bmp.Decode(rs)
}

// decodePackedBMP reads a palette and 1, 2 or 4 bit rows. Each row is read
// into the leading bytes of its RGBA row and expanded in place.
func decodePackedBMP(r io.ReadSeeker, start int64, info *bmpInfo) (image.Image, error) {
	if info.width <= 0 {
		return nil, fmt.Errorf("%w: BMP width %d", ErrInvalidData, info.width)
	}
	depth := uint8(info.bitsPerPixel)

	entries := int(info.colorsUsed)
	if entries == 0 || entries > 1<<depth {
		entries = 1 << depth
	}
	entrySize := 4
	if info.dibSize == 12 {
		entrySize = 3
	}

	if _, err := r.Seek(start+14+int64(info.dibSize), io.SeekStart); err != nil {
		return nil, err
	}
	raw := make([]byte, entries*entrySize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read BMP palette: %w", err)
	}
	palette := make([]color.RGBA, 1<<depth)
	for i := 0; i < entries; i++ {
		p := raw[i*entrySize:]
		palette[i] = color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xFF}
	}
	// Indices past the palette map to opaque black.
	for i := entries; i < len(palette); i++ {
		palette[i] = color.RGBA{A: 0xFF}
	}

	if _, err := r.Seek(start+int64(info.dataOffset), io.SeekStart); err != nil {
		return nil, err
	}

	width, height := int(info.width), info.absHeight()
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	packedLen := int(packed.RowBytes(depth, uint32(width)))
	stride := (width*int(depth) + 31) / 32 * 4

	expand := func(sample uint8, out []byte) {
		c := palette[sample]
		out[0], out[1], out[2], out[3] = c.R, c.G, c.B, c.A
	}

	for i := 0; i < height; i++ {
		y := height - 1 - i
		if info.topDown() {
			y = i
		}
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		if _, err := io.ReadFull(r, row[:packedLen]); err != nil {
			return nil, fmt.Errorf("failed to read BMP row %d: %w", i, err)
		}
		if err := skip(r, int64(stride-packedLen)); err != nil {
			return nil, err
		}
		if err := packed.ExpandPacked(row, 4, depth, expand); err != nil {
			return nil, err
		}
	}
	return img, nil
}
