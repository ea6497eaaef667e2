package formats

import (
	"errors"
	"testing"
)

func TestParseTIFF(t *testing.T) {
	exif, err := parseTIFF(createEXIF())
	if err != nil {
		t.Fatalf("parseTIFF() error = %v", err)
	}
	if exif["Orientation"] != uint16(6) {
		t.Errorf("Orientation = %v (%T), want 6", exif["Orientation"], exif["Orientation"])
	}
	if exif["Make"] != "Canon" {
		t.Errorf("Make = %v, want Canon", exif["Make"])
	}
}

func TestParseTIFF_BigEndianSubIFD(t *testing.T) {
	data := []byte{
		'M', 'M', 0x00, 0x2A,
		0x00, 0x00, 0x00, 0x08,
		0x00, 0x01, // 1 entry
		0x87, 0x69, 0x00, 0x04, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x1A, // EXIF IFD at 26
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x01, // 1 entry
		0x88, 0x27, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x01, 0x90, 0x00, 0x00, // ISO 400
		0x00, 0x00, 0x00, 0x00,
	}
	exif, err := parseTIFF(data)
	if err != nil {
		t.Fatalf("parseTIFF() error = %v", err)
	}
	if exif["ISO"] != uint16(400) {
		t.Errorf("ISO = %v, want 400", exif["ISO"])
	}
}

func TestParseTIFF_Invalid(t *testing.T) {
	tests := map[string][]byte{
		"short":      {'I', 'I'},
		"byte order": {'X', 'X', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00},
		"magic":      {'I', 'I', 0x2B, 0x00, 0x08, 0x00, 0x00, 0x00},
		"ifd offset": {'I', 'I', 0x2A, 0x00, 0xFF, 0x00, 0x00, 0x00},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseTIFF(data); !errors.Is(err, ErrInvalidData) {
				t.Errorf("parseTIFF() error = %v, want ErrInvalidData", err)
			}
		})
	}
}

func TestParseTIFF_SelfReferencingIFD(t *testing.T) {
	// The EXIF pointer loops back to the root IFD; depth is bounded.
	data := []byte{
		'I', 'I', 0x2A, 0x00,
		0x08, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x69, 0x87, 0x04, 0x00, 0x01, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	if _, err := parseTIFF(data); err != nil {
		t.Errorf("parseTIFF() error = %v", err)
	}
}

func TestOrientation_Default(t *testing.T) {
	var h *Header
	if h.Orientation() != 1 {
		t.Errorf("nil Header Orientation() = %d, want 1", h.Orientation())
	}
	h = &Header{EXIF: map[string]interface{}{"Orientation": uint16(9)}}
	if h.Orientation() != 1 {
		t.Errorf("out of range Orientation() = %d, want 1", h.Orientation())
	}
}
