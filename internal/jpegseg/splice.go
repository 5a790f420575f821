package jpegseg

import (
	"bytes"
	"errors"
)

// ScanHeaderLength is how far past the last SOS marker the header is cut.
// It covers a baseline Start-Of-Scan header for a 3-component image:
// marker (2) + length (2) + component count (1) + 3 selector/table pairs (6)
// + spectral selection and approximation (3). Grayscale and progressive
// streams have a different layout and are not supported.
const ScanHeaderLength = 14

var (
	ErrNoScanMarker = errors.New("no FFDA marker found")
	ErrEmptyFile    = errors.New("file is 0 bytes")
)

var sosPair = []byte{0xFF, SOS}

// HeaderPrefix is the trusted reference header: everything up to and
// including the last Start-Of-Scan header of an EXIF-stripped reference.
type HeaderPrefix []byte

// Tail is the entropy-coded remainder of a corrupted file following its last
// Start-Of-Scan header.
type Tail []byte

// LastScanOffset returns the index of the last 0xFF 0xDA byte pair in buf, or
// -1. This is a raw byte search rather than a marker walk so that a damaged
// length field near the end of the file cannot hide the scan marker.
func LastScanOffset(buf []byte) int {
	return bytes.LastIndex(buf, sosPair)
}

// ExtractHeaderPrefix strips EXIF from a reference buffer and cuts it
// ScanHeaderLength bytes past its last Start-Of-Scan marker, or at the end of
// the buffer if that comes first.
func ExtractHeaderPrefix(buf []byte) (HeaderPrefix, error) {
	stripped := StripEXIF(buf)
	off := LastScanOffset(stripped)
	if off < 0 {
		return nil, ErrNoScanMarker
	}
	end := min(off+ScanHeaderLength, len(stripped))
	return HeaderPrefix(stripped[:end:end]), nil
}

// ExtractTail returns the bytes of a corrupted buffer that follow the
// ScanHeaderLength bytes starting at its last Start-Of-Scan marker. EXIF is
// not stripped here; only the reference is trusted enough for that.
func ExtractTail(buf []byte) (Tail, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyFile
	}
	off := LastScanOffset(buf)
	if off < 0 {
		return nil, ErrNoScanMarker
	}
	start := min(off+ScanHeaderLength, len(buf))
	return Tail(buf[start:]), nil
}

// Splice concatenates header and tail into a new buffer. It does not check
// that the two come from compatible encoder settings.
func Splice(header HeaderPrefix, tail Tail) []byte {
	out := make([]byte, 0, len(header)+len(tail))
	out = append(out, header...)
	return append(out, tail...)
}
