package jpegseg

import (
	"bytes"
	"errors"
	"testing"
)

// segment builds a marker segment with a correct length field.
func segment(code byte, payload ...byte) []byte {
	n := len(payload) + 2
	return append([]byte{0xFF, code, byte(n >> 8), byte(n)}, payload...)
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// sosHeader is a baseline 3-component SOS segment: 14 bytes in total.
var sosHeader = segment(SOS, 3, 1, 0x00, 2, 0x11, 3, 0x11, 0x00, 0x3F, 0x00)

func sampleJPEG() []byte {
	return join(
		[]byte{0xFF, SOI},
		segment(APP0, 'J', 'F', 'I', 'F', 0),
		segment(APP1, 'E', 'x', 'i', 'f', 0, 0, 1, 2, 3),
		segment(DQT, make([]byte, 65)...),
		segment(SOF0, 8, 0x00, 0x10, 0x00, 0x20, 3, 1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1),
		segment(DHT, 0, 1, 2, 3),
		sosHeader,
		[]byte{0x12, 0xFF, 0x00, 0x34, 0xFF, RST0, 0x56},
		[]byte{0xFF, EOI},
	)
}

func TestScannerSequence(t *testing.T) {
	buf := sampleJPEG()
	var names []string
	s := NewScanner(buf)
	for m, ok := s.Next(); ok; m, ok = s.Next() {
		names = append(names, m.Name())
		if m.Name() == "RST0" {
			// RST carries no length in practice; the scanner reads two
			// bytes of scan data as one and that is expected here.
			break
		}
	}
	want := []string{"SOI", "APP0", "APP1", "DQT", "SOF0", "DHT", "SOS", "RST0"}
	if len(names) != len(want) {
		t.Fatalf("markers = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("marker %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestScannerReset(t *testing.T) {
	buf := sampleJPEG()
	s := NewScanner(buf)
	first, _ := s.Next()
	s.Next()
	s.Reset()
	again, ok := s.Next()
	if !ok || again != first {
		t.Errorf("after Reset Next = %v, %v, want %v", again, ok, first)
	}
}

func TestScanFromOffset(t *testing.T) {
	buf := sampleJPEG()
	dqt := LastOffset(buf, DQT)
	m, ok := ScanFrom(buf, dqt).Next()
	if !ok || !m.Is(DQT) || m.Offset != dqt {
		t.Errorf("ScanFrom(%d).Next = %v, %v, want DQT at %d", dqt, m, ok, dqt)
	}
	if _, ok := ScanFrom(buf, len(buf)+5).Next(); ok {
		t.Error("ScanFrom past the end should be empty")
	}
}

func TestScannerSkipsStuffingAndFill(t *testing.T) {
	buf := []byte{0x00, 0xFF, 0x00, 0xFF, 0xFF, 0xFF, SOI, 0x01}
	m, ok := NewScanner(buf).Next()
	if !ok || !m.Is(SOI) || m.Offset != 5 {
		t.Errorf("Next = %v, %v, want SOI at 5", m, ok)
	}
}

func TestScannerTruncated(t *testing.T) {
	tests := []struct {
		name      string
		buf       []byte
		hasLength bool
	}{
		{"payload", []byte{0xFF, SOI, 0xFF, DQT, 0x00, 0x40, 1, 2, 3}, true},
		{"length field", []byte{0xFF, SOI, 0xFF, DQT, 0x00}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.buf)
			s.Next()
			m, ok := s.Next()
			if !ok || !m.Truncated || !m.Is(DQT) {
				t.Fatalf("Next = %v, %v, want truncated DQT", m, ok)
			}
			if m.HasLength != tt.hasLength {
				t.Errorf("HasLength = %v, want %v", m.HasLength, tt.hasLength)
			}
			if m, ok := s.Next(); ok {
				t.Errorf("Next after truncation = %v, want end", m)
			}
		})
	}
}

func TestScannerZeroLengthTerminates(t *testing.T) {
	buf := []byte{0xFF, DQT, 0x00, 0x00, 0xFF, COM, 0x00, 0x01, 0xFF, EOI}
	count := 0
	s := NewScanner(buf)
	for _, ok := s.Next(); ok; _, ok = s.Next() {
		count++
		if count > len(buf) {
			t.Fatal("scanner did not terminate")
		}
	}
	if count == 0 {
		t.Error("expected at least one marker")
	}
}

func TestLastOffset(t *testing.T) {
	buf := join([]byte{0xFF, SOI}, segment(COM, 'a'), segment(COM, 'b'), []byte{0xFF, EOI})
	if got := LastOffset(buf, COM); got != 7 {
		t.Errorf("LastOffset(COM) = %d, want 7", got)
	}
	if got := LastOffset(buf, SOS); got != -1 {
		t.Errorf("LastOffset(SOS) = %d, want -1", got)
	}
}

func TestMarkerName(t *testing.T) {
	tests := map[byte]string{
		SOI: "SOI", SOF0 + 2: "SOF2", APP0 + 13: "APP13", RST7: "RST7",
		COM: "COM", DHT: "DHT", 0x02: "RES02", JPG0 + 3: "JPG3",
	}
	for code, want := range tests {
		if got := (Marker{Code: 0xFF00 | uint16(code)}).Name(); got != want {
			t.Errorf("Name(%#x) = %s, want %s", code, got, want)
		}
	}
}

func TestStripEXIF(t *testing.T) {
	buf := join(
		[]byte{0xFF, SOI},
		segment(APP1, 'E', 'x', 'i', 'f'),
		segment(APP0, 'J'),
		segment(APP1, 'h', 't', 't', 'p'),
		segment(DQT, 1),
		[]byte{0xFF, EOI},
	)
	want := join([]byte{0xFF, SOI}, segment(APP0, 'J'), segment(DQT, 1), []byte{0xFF, EOI})

	got := StripEXIF(buf)
	if !bytes.Equal(got, want) {
		t.Errorf("StripEXIF = % x, want % x", got, want)
	}
	if again := StripEXIF(got); !bytes.Equal(again, got) {
		t.Errorf("StripEXIF is not idempotent: % x", again)
	}
	if LastOffset(got, APP1) != -1 {
		t.Error("APP1 left after stripping")
	}
}

func TestStripEXIFOverlongSegment(t *testing.T) {
	buf := []byte{0xFF, SOI, 0xFF, APP1, 0x10, 0x00, 'E', 'x'}
	got := StripEXIF(buf)
	if !bytes.Equal(got, buf) {
		t.Errorf("StripEXIF = % x, want input unchanged", got)
	}
}

func TestStripEXIFDoesNotModifyInput(t *testing.T) {
	buf := sampleJPEG()
	orig := bytes.Clone(buf)
	StripEXIF(buf)
	if !bytes.Equal(buf, orig) {
		t.Error("StripEXIF modified its input")
	}
}

func TestExtractHeaderPrefix(t *testing.T) {
	buf := sampleJPEG()
	stripped := StripEXIF(buf)
	header, err := ExtractHeaderPrefix(buf)
	if err != nil {
		t.Fatalf("ExtractHeaderPrefix: %v", err)
	}
	wantLen := bytes.LastIndex(stripped, []byte{0xFF, SOS}) + ScanHeaderLength
	if len(header) != wantLen {
		t.Errorf("len(header) = %d, want %d", len(header), wantLen)
	}
	if !bytes.HasSuffix(header, sosHeader) {
		t.Errorf("header does not end with the SOS header: % x", header[len(header)-14:])
	}
	if LastOffset(header, APP1) != -1 {
		t.Error("header still contains APP1")
	}
}

func TestExtractHeaderPrefixClamps(t *testing.T) {
	buf := []byte{0xFF, SOI, 0xFF, SOS, 0x00, 0x0C, 3}
	header, err := ExtractHeaderPrefix(buf)
	if err != nil {
		t.Fatalf("ExtractHeaderPrefix: %v", err)
	}
	if !bytes.Equal(header, buf) {
		t.Errorf("header = % x, want whole buffer", header)
	}
}

func TestExtractHeaderPrefixNoScan(t *testing.T) {
	_, err := ExtractHeaderPrefix([]byte{0xFF, SOI, 0xFF, EOI})
	if !errors.Is(err, ErrNoScanMarker) {
		t.Errorf("err = %v, want ErrNoScanMarker", err)
	}
}

func TestExtractTail(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		want    []byte
		wantErr error
	}{
		{"empty", nil, nil, ErrEmptyFile},
		{"no scan", []byte{0xFF, SOI, 1, 2, 3}, nil, ErrNoScanMarker},
		{"tail", join([]byte{0xFF, SOI}, sosHeader, []byte{9, 8, 7}), []byte{9, 8, 7}, nil},
		{"last scan wins", join(sosHeader, []byte{1}, sosHeader, []byte{2}), []byte{2}, nil},
		{"short", []byte{0, 0xFF, SOS, 1}, []byte{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTail(tt.buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("tail = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestSpliceLength(t *testing.T) {
	header := HeaderPrefix{1, 2, 3}
	tail := Tail{4, 5}
	got := Splice(header, tail)
	if len(got) != len(header)+len(tail) {
		t.Errorf("len = %d, want %d", len(got), len(header)+len(tail))
	}
	got[0] = 99
	if header[0] != 1 {
		t.Error("Splice shares memory with header")
	}
}

// TestRepairRoundTrip checks the full reference/corrupted exchange: EXIF is
// dropped from the reference, the corrupted header is discarded and the
// corrupted scan data survives byte for byte.
func TestRepairRoundTrip(t *testing.T) {
	b := []byte{0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7, 0xB8, 0xB9, 0xBA, 0xBB}
	c := []byte{0xC0, 0xC1, 0xC2, 0xC3, 0xC4, 0xC5, 0xC6, 0xC7, 0xC8, 0xC9, 0xCA, 0xCB}
	tail := []byte{0x11, 0x22, 0xFF, 0x00, 0x33, 0xFF, EOI}

	ref := join([]byte{0xFF, SOI, 0xFF, APP1, 0x00, 0x06, 'E', 'X', 'I', 'F', 0xFF, SOS}, b)
	corrupted := join([]byte{0xFF, SOI, 0xDE, 0xAD, 0xBE, 0xEF, 0xFF, SOS}, c, tail)

	header, err := ExtractHeaderPrefix(ref)
	if err != nil {
		t.Fatalf("ExtractHeaderPrefix: %v", err)
	}
	ct, err := ExtractTail(corrupted)
	if err != nil {
		t.Fatalf("ExtractTail: %v", err)
	}
	got := Splice(header, ct)
	want := join([]byte{0xFF, SOI, 0xFF, SOS}, b, tail)
	if !bytes.Equal(got, want) {
		t.Errorf("repaired = % x\nwant       % x", got, want)
	}
}

func TestInspectFrame(t *testing.T) {
	f, err := InspectFrame(sampleJPEG())
	if err != nil {
		t.Fatalf("InspectFrame: %v", err)
	}
	want := Frame{Code: SOF0, Precision: 8, Height: 16, Width: 32, Components: 3}
	if f != want {
		t.Errorf("InspectFrame = %+v, want %+v", f, want)
	}
	if !f.SpliceSafe() {
		t.Error("baseline colour frame should be splice safe")
	}

	gray := join([]byte{0xFF, SOI}, segment(SOF2, 8, 0, 1, 0, 1, 1, 1, 0x11, 0), sosHeader)
	f, err = InspectFrame(gray)
	if err != nil {
		t.Fatalf("InspectFrame: %v", err)
	}
	if !f.Progressive() || f.SpliceSafe() {
		t.Errorf("progressive grayscale frame %v reported as splice safe", f)
	}

	if _, err := InspectFrame(join([]byte{0xFF, SOI}, sosHeader)); !errors.Is(err, ErrNoFrame) {
		t.Errorf("err = %v, want ErrNoFrame", err)
	}
}
