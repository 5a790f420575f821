package jpegseg

type byteRange struct {
	start, end int
}

// StripEXIF returns buf without its APP1 segments. Each removed segment
// covers the marker and its full declared length. SOI, EOI and every other
// segment keep their relative order. An APP1 whose declared length runs past
// the end of buf is left untouched.
//
// When nothing is removed buf itself is returned; otherwise the result is a
// new slice.
func StripEXIF(buf []byte) []byte {
	var drop []byteRange
	removed := 0
	s := NewScanner(buf)
	for m, ok := s.Next(); ok; m, ok = s.Next() {
		if !m.Is(APP1) || m.Truncated {
			continue
		}
		drop = append(drop, byteRange{m.Offset, m.End()})
		removed += m.End() - m.Offset
	}
	if len(drop) == 0 {
		return buf
	}

	out := make([]byte, 0, len(buf)-removed)
	prev := 0
	for _, r := range drop {
		out = append(out, buf[prev:r.start]...)
		prev = r.end
	}
	return append(out, buf[prev:]...)
}
