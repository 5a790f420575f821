package jpegseg

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrNoFrame = errors.New("no SOF segment before first SOS")

// Frame is the Start-Of-Frame header of an image.
type Frame struct {
	Code       byte
	Precision  int
	Height     int
	Width      int
	Components int
}

func isSOF(c byte) bool {
	return c >= SOF0 && c <= SOFF && c != DHT && c != JPG && c != DAC
}

// Progressive reports a progressive DCT frame (SOF2, SOF6, SOF10, SOF14).
func (f Frame) Progressive() bool {
	return f.Code == SOF2 || f.Code == SOF0+6 || f.Code == SOF0+10 || f.Code == SOF0+14
}

// Arithmetic reports an arithmetic-coded frame (SOF9 and up).
func (f Frame) Arithmetic() bool {
	return f.Code >= SOF9
}

// SpliceSafe reports whether the frame matches the layout ScanHeaderLength
// assumes: non-differential sequential Huffman coding with three components.
func (f Frame) SpliceSafe() bool {
	return (f.Code == SOF0 || f.Code == SOF1) && f.Components == 3
}

func (f Frame) String() string {
	return fmt.Sprintf("%s %dx%d, %d components, %d-bit", markerName(f.Code), f.Width, f.Height, f.Components, f.Precision)
}

// InspectFrame returns the first SOFn segment found before the first SOS.
func InspectFrame(buf []byte) (Frame, error) {
	s := NewScanner(buf)
	for m, ok := s.Next(); ok; m, ok = s.Next() {
		code := byte(m.Code)
		if code == SOS {
			break
		}
		if !isSOF(code) {
			continue
		}
		p := m.Payload(buf)
		if len(p) < 6 {
			return Frame{}, fmt.Errorf("%s at offset %d: short segment", m.Name(), m.Offset)
		}
		return Frame{
			Code:       code,
			Precision:  int(p[0]),
			Height:     int(binary.BigEndian.Uint16(p[1:3])),
			Width:      int(binary.BigEndian.Uint16(p[3:5])),
			Components: int(p[5]),
		}, nil
	}
	return Frame{}, ErrNoFrame
}
