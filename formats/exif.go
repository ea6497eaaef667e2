package formats

import (
	"encoding/binary"
	"fmt"
)

// EXIF tags that point at nested IFDs.
const (
	exifTagExifIFD = 0x8769
	exifTagGPSIFD  = 0x8825
)

// exifTagNames maps the tags we surface to their names.
var exifTagNames = map[uint16]string{
	0x010F: "Make",
	0x0110: "Model",
	0x0112: "Orientation",
	0x011A: "XResolution",
	0x011B: "YResolution",
	0x0128: "ResolutionUnit",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013B: "Artist",
	0x8298: "Copyright",
	0x829A: "ExposureTime",
	0x829D: "FNumber",
	0x8827: "ISO",
	0x9003: "DateTimeOriginal",
	0x9004: "DateTimeDigitized",
	0xA002: "PixelXDimension",
	0xA003: "PixelYDimension",
}

// EXIF data types
const (
	exifTypeByte      = 1
	exifTypeASCII     = 2
	exifTypeShort     = 3
	exifTypeLong      = 4
	exifTypeRational  = 5
	exifTypeUndefined = 7
	exifTypeSLong     = 9
	exifTypeSRational = 10
)

const maxIFDDepth = 4

// Orientation returns the EXIF orientation (1-8), or 1 when absent.
func (h *Header) Orientation() int {
	if h == nil || h.EXIF == nil {
		return 1
	}
	if v, ok := h.EXIF["Orientation"].(uint16); ok && v >= 1 && v <= 8 {
		return int(v)
	}
	return 1
}

// parseTIFF parses the TIFF structure carried by an EXIF payload.
func parseTIFF(data []byte) (map[string]interface{}, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: insufficient data for TIFF header", ErrInvalidData)
	}

	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: invalid TIFF byte order", ErrInvalidData)
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, fmt.Errorf("%w: invalid TIFF magic number", ErrInvalidData)
	}

	offset := int(order.Uint32(data[4:8]))
	if offset >= len(data) {
		return nil, fmt.Errorf("%w: IFD offset out of bounds", ErrInvalidData)
	}

	exif := make(map[string]interface{})
	parseIFD(data, offset, order, exif, 0)
	return exif, nil
}

// parseIFD collects the known tags of one Image File Directory and follows
// the EXIF and GPS sub-IFD pointers.
func parseIFD(data []byte, offset int, order binary.ByteOrder, exif map[string]interface{}, depth int) {
	if depth > maxIFDDepth || offset < 0 || offset+2 > len(data) {
		return
	}
	entries := int(order.Uint16(data[offset : offset+2]))
	offset += 2

	for i := 0; i < entries && offset+12 <= len(data); i, offset = i+1, offset+12 {
		entry := data[offset : offset+12]
		tag := order.Uint16(entry[0:2])
		dataType := order.Uint16(entry[2:4])
		count := order.Uint32(entry[4:8])

		if tag == exifTagExifIFD || tag == exifTagGPSIFD {
			parseIFD(data, int(order.Uint32(entry[8:12])), order, exif, depth+1)
			continue
		}
		name, ok := exifTagNames[tag]
		if !ok {
			continue
		}

		size := uint64(exifTypeSize(dataType)) * uint64(count)
		var raw []byte
		if size <= 4 {
			raw = entry[8:12]
		} else {
			at := uint64(order.Uint32(entry[8:12]))
			if at+size > uint64(len(data)) {
				continue
			}
			raw = data[at : at+size]
		}
		if v := readTagValue(raw, dataType, count, order); v != nil {
			exif[name] = v
		}
	}
}

// exifTypeSize returns the size in bytes of an EXIF data type
func exifTypeSize(dataType uint16) int {
	switch dataType {
	case exifTypeShort:
		return 2
	case exifTypeLong, exifTypeSLong:
		return 4
	case exifTypeRational, exifTypeSRational:
		return 8
	default:
		return 1
	}
}

func readTagValue(data []byte, dataType uint16, count uint32, order binary.ByteOrder) interface{} {
	n := int(count)
	switch dataType {
	case exifTypeByte, exifTypeUndefined:
		if n == 1 {
			return data[0]
		}
		return append([]byte(nil), data[:min(n, len(data))]...)

	case exifTypeASCII:
		s := data[:min(n, len(data))]
		for len(s) > 0 && s[len(s)-1] == 0 {
			s = s[:len(s)-1]
		}
		return string(s)

	case exifTypeShort:
		if n == 1 {
			return order.Uint16(data[0:2])
		}
		vals := make([]uint16, min(n, len(data)/2))
		for i := range vals {
			vals[i] = order.Uint16(data[i*2:])
		}
		return vals

	case exifTypeLong, exifTypeSLong:
		if n == 1 {
			v := order.Uint32(data[0:4])
			if dataType == exifTypeSLong {
				return int32(v)
			}
			return v
		}
		vals := make([]uint32, min(n, len(data)/4))
		for i := range vals {
			vals[i] = order.Uint32(data[i*4:])
		}
		return vals

	case exifTypeRational, exifTypeSRational:
		if n != 1 || len(data) < 8 {
			return nil
		}
		num, den := order.Uint32(data[0:4]), order.Uint32(data[4:8])
		if den == 0 {
			return float64(0)
		}
		if dataType == exifTypeSRational {
			return float64(int32(num)) / float64(int32(den))
		}
		return float64(num) / float64(den)
	}
	return nil
}
