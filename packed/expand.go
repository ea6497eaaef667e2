// Package packed unpacks sub-byte pixel samples into one byte per channel.
package packed

import "errors"

// ErrInvalidLayout is returned by ExpandPacked when the buffer cannot hold
// the requested expansion.
var ErrInvalidLayout = errors.New("packed: invalid layout")

// validDepth reports whether samples of bitDepth bits tile a byte.
func validDepth(bitDepth uint8) bool {
	switch bitDepth {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// RowBytes returns the encoded width of a row of rowSize samples, rounded
// up to a whole byte.
func RowBytes(bitDepth uint8, rowSize uint32) uint64 {
	return (uint64(rowSize)*uint64(bitDepth) + 7) / 8
}

// PaddingSamples returns how many samples of each encoded row exist only
// to reach the next byte boundary.
func PaddingSamples(bitDepth uint8, rowSize uint32) uint32 {
	if bitDepth == 0 {
		return 0
	}
	rem := uint32((uint64(rowSize) * uint64(bitDepth)) % 8)
	if rem == 0 {
		return 0
	}
	return (8 - rem) / uint32(bitDepth)
}

// ExpandPacked expands packed samples in place. buf holds len(buf)/channels
// pixels of channels bytes each; the leading bytes of buf hold the same
// number of samples packed bitDepth bits apiece, most significant first.
// fn is called once per pixel with the sample and the output slot.
//
// Pixels are visited from the last to the first. An output slot never
// starts before the packed byte of its own sample, so every packed byte is
// read before it is overwritten.
func ExpandPacked(buf []byte, channels int, bitDepth uint8, fn func(sample uint8, out []byte)) error {
	if channels < 1 || !validDepth(bitDepth) || len(buf)%channels != 0 {
		return ErrInvalidLayout
	}
	n := len(buf) / channels
	if n == 0 {
		return nil
	}
	perByte := 8 / int(bitDepth)
	mask := byte(1<<bitDepth - 1)

	for i := n - 1; i >= 0; i-- {
		b := buf[i/perByte]
		shift := uint(8 - int(bitDepth)*(i%perByte+1))
		sample := (b >> shift) & mask
		j := i * channels
		fn(sample, buf[j:j+channels])
	}
	return nil
}

// ExpandBits expands rows of packed 1, 2 or 4 bit samples into one byte per
// sample scaled to [0, 255]. Each row of rowSize samples is padded to a
// byte boundary in buf; the padding samples are dropped. It returns nil for
// any other bit depth.
func ExpandBits(bitDepth uint8, rowSize uint32, buf []byte) []byte {
	switch bitDepth {
	case 1, 2, 4:
	default:
		return nil
	}
	if rowSize == 0 {
		return []byte{}
	}

	mask := byte(1<<bitDepth - 1)
	scale := 255 / mask
	rowLen := uint64(rowSize) + uint64(PaddingSamples(bitDepth, rowSize))
	perByte := 8 / uint64(bitDepth)

	total := uint64(len(buf)) * perByte
	rows := total / rowLen
	out := make([]byte, 0, rows*uint64(rowSize)+uint64(rowSize))

	var i uint64
	for _, v := range buf {
		for shift := int(8 - bitDepth); shift >= 0; shift -= int(bitDepth) {
			if i%rowLen < uint64(rowSize) {
				out = append(out, (v>>uint(shift)&mask)*scale)
			}
			i++
		}
	}
	return out
}
