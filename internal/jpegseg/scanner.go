package jpegseg

import "encoding/binary"

// Scanner yields the markers of a buffer lazily, front to back. It does not
// validate segment order and keeps scanning byte by byte through
// entropy-coded data, where 0xFF 0x00 stuffing and 0xFF fill bytes are
// skipped.
//
// The zero Scanner is empty. A Scanner is not safe for concurrent use, but
// any number of Scanners may share one buffer.
type Scanner struct {
	buf   []byte
	start int
	pos   int
	done  bool
}

// NewScanner returns a Scanner positioned at the start of buf.
func NewScanner(buf []byte) *Scanner {
	return ScanFrom(buf, 0)
}

// ScanFrom returns a Scanner positioned at offset. Offsets outside the
// buffer produce an empty sequence.
func ScanFrom(buf []byte, offset int) *Scanner {
	if offset < 0 {
		offset = 0
	}
	return &Scanner{buf: buf, start: offset, pos: offset}
}

// Reset rewinds the Scanner to the offset it was created with.
func (s *Scanner) Reset() {
	s.pos = s.start
	s.done = false
}

// Next returns the next marker. The second result is false once the buffer
// is exhausted or a truncated marker has been returned.
func (s *Scanner) Next() (Marker, bool) {
	if s.done {
		return Marker{}, false
	}
	for s.pos+1 < len(s.buf) {
		i := s.pos
		if s.buf[i] != 0xFF || !isMarkerByte(s.buf[i+1]) {
			s.pos++
			continue
		}

		m := Marker{Code: 0xFF00 | uint16(s.buf[i+1]), Offset: i}
		if m.Is(SOI) || m.Is(EOI) {
			s.pos += 2
			return m, true
		}

		if i+4 > len(s.buf) {
			m.Truncated = true
			s.finish()
			return m, true
		}
		m.Length = int(binary.BigEndian.Uint16(s.buf[i+2 : i+4]))
		m.HasLength = true
		if m.End() > len(s.buf) {
			m.Truncated = true
			s.finish()
			return m, true
		}
		s.pos = m.End()
		return m, true
	}
	s.finish()
	return Marker{}, false
}

func (s *Scanner) finish() {
	s.pos = len(s.buf)
	s.done = true
}

// LastOffset returns the offset of the last marker with the given code
// reachable by a Scanner from the start of buf, or -1. It walks the
// sequence once and keeps only the best offset seen.
func LastOffset(buf []byte, code byte) int {
	last := -1
	s := NewScanner(buf)
	for m, ok := s.Next(); ok; m, ok = s.Next() {
		if m.Is(code) {
			last = m.Offset
		}
	}
	return last
}
