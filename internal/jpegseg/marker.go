// Package jpegseg walks the marker structure of a JPEG byte stream and
// performs the byte-level surgery used by the header repair: EXIF
// stripping, locating the last Start-Of-Scan, cutting the reference
// header and the corrupted tail, and splicing them back together.
//
// Nothing in this package decodes entropy-coded data. All functions take
// and return plain byte slices and never modify their input.
package jpegseg

import "fmt"

// Marker codes, second byte only. The full code is 0xFF00 | code.
const (
	TEM  = 0x01
	SOF0 = 0xC0 // Baseline DCT
	SOF1 = 0xC1 // Extended sequential DCT
	SOF2 = 0xC2 // Progressive DCT
	SOF3 = 0xC3 // Lossless
	DHT  = 0xC4
	JPG  = 0xC8
	SOF9 = 0xC9 // Extended sequential, arithmetic
	DAC  = 0xCC
	SOFF = 0xCF
	RST0 = 0xD0
	RST7 = 0xD7
	SOI  = 0xD8
	EOI  = 0xD9
	SOS  = 0xDA
	DQT  = 0xDB
	DNL  = 0xDC
	DRI  = 0xDD
	DHP  = 0xDE
	EXP  = 0xDF
	APP0 = 0xE0
	APP1 = 0xE1 // EXIF / XMP
	APPF = 0xEF
	JPG0 = 0xF0
	COM  = 0xFE
)

// Marker is one marker found by the Scanner. Offset is the index of the
// 0xFF byte. Length is the big-endian segment length, which counts its own
// two bytes; it is only meaningful when HasLength is set (SOI and EOI carry
// none).
type Marker struct {
	Code      uint16
	Length    int
	HasLength bool
	Offset    int

	// Truncated is set when the buffer ends before the declared segment
	// does, or before the length field itself. A truncated marker is always
	// the last one a Scanner yields.
	Truncated bool
}

// Is reports whether m has the given second code byte.
func (m Marker) Is(code byte) bool {
	return m.Code == 0xFF00|uint16(code)
}

// End returns the offset just past the segment as declared, which may lie
// beyond the buffer for a truncated marker.
func (m Marker) End() int {
	if !m.HasLength {
		return m.Offset + 2
	}
	return m.Offset + 2 + m.Length
}

// Payload returns the segment bytes following the length field, or nil when
// the marker has no length or is truncated.
func (m Marker) Payload(buf []byte) []byte {
	if !m.HasLength || m.Truncated || m.Length < 2 {
		return nil
	}
	return buf[m.Offset+4 : m.End()]
}

func (m Marker) String() string {
	if !m.HasLength {
		return fmt.Sprintf("%s@%d", m.Name(), m.Offset)
	}
	return fmt.Sprintf("%s@%d len=%d", m.Name(), m.Offset, m.Length)
}

// Name returns the conventional mnemonic of the marker code.
func (m Marker) Name() string {
	return markerName(byte(m.Code))
}

func markerName(c byte) string {
	switch {
	case c == TEM:
		return "TEM"
	case c == DHT:
		return "DHT"
	case c == JPG:
		return "JPG"
	case c == DAC:
		return "DAC"
	case c >= SOF0 && c <= SOFF:
		return fmt.Sprintf("SOF%d", c-SOF0)
	case c >= RST0 && c <= RST7:
		return fmt.Sprintf("RST%d", c-RST0)
	case c == SOI:
		return "SOI"
	case c == EOI:
		return "EOI"
	case c == SOS:
		return "SOS"
	case c == DQT:
		return "DQT"
	case c == DNL:
		return "DNL"
	case c == DRI:
		return "DRI"
	case c == DHP:
		return "DHP"
	case c == EXP:
		return "EXP"
	case c >= APP0 && c <= APPF:
		return fmt.Sprintf("APP%d", c-APP0)
	case c == COM:
		return "COM"
	case c >= JPG0:
		return fmt.Sprintf("JPG%d", c-JPG0)
	}
	return fmt.Sprintf("RES%02X", c)
}

// isMarkerByte reports whether b may follow 0xFF as a marker code. 0x00 is
// byte stuffing inside entropy-coded data and 0xFF is fill.
func isMarkerByte(b byte) bool {
	return b != 0x00 && b != 0xFF
}
