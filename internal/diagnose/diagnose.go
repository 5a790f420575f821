// Package diagnose grades a repaired JPEG by the Shannon entropy of its
// bytes and a handful of structural facts gathered during the repair.
package diagnose

import (
	"fmt"
	"math"
	"strings"
)

// Entropy thresholds in bits per byte. These are empirical values and
// are kept exactly as the repair tool has always used them.
const (
	MinEntropy = 7.60
	MaxEntropy = 7.99
)

// Flag is a set of warnings. Flags are evaluated independently, so any
// combination may be set.
type Flag uint8

const (
	ZeroLengthSource Flag = 1 << iota
	EntropyTooLow
	EntropyTooHigh
	NoScanMarker
)

var flagNames = []struct {
	flag Flag
	name string
	text string
}{
	{ZeroLengthSource, "zero_length_source", "Filesize error: source file is 0 bytes. Cannot be repaired."},
	{EntropyTooLow, "entropy_too_low", "Entropy too low: File does not contain sufficient JPEG data. Possibly repairable with a reference file."},
	{EntropyTooHigh, "entropy_too_high", "Entropy too high: File is likely encrypted. JPEG repair cannot decrypt encrypted files."},
	{NoScanMarker, "no_scan_marker", "No JPEG SOS: Start of Scan marker (FF DA) not detected. The file may not have a valid JPEG header."},
}

// Has reports whether every flag in o is set in f.
func (f Flag) Has(o Flag) bool {
	return f&o == o
}

// Names returns the short names of the set flags in a fixed order.
func (f Flag) Names() []string {
	names := []string{}
	for _, n := range flagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// Report is the diagnostic outcome for one repaired file.
type Report struct {
	Entropy float64
	Flags   Flag
}

// OK reports whether no warning was raised.
func (r Report) OK() bool {
	return r.Flags == 0
}

// Lines renders the report as the human readable lines shown after a repair.
func (r Report) Lines() []string {
	lines := []string{fmt.Sprintf("Entropy of repaired file: %.2f", r.Entropy)}
	for _, n := range flagNames {
		if r.Flags.Has(n.flag) {
			lines = append(lines, n.text)
		}
	}
	return lines
}

// Diagnose computes the entropy of a repaired buffer and the warnings that
// apply to it. originalLen is the size of the corrupted source and
// hadScanMarker tells whether the source contained a Start-Of-Scan marker.
func Diagnose(repaired []byte, originalLen int, hadScanMarker bool) Report {
	r := Report{Entropy: Entropy(repaired)}
	if originalLen == 0 {
		r.Flags |= ZeroLengthSource
	}
	if r.Entropy < MinEntropy {
		r.Flags |= EntropyTooLow
	}
	if r.Entropy > MaxEntropy {
		r.Flags |= EntropyTooHigh
	}
	if !hadScanMarker {
		r.Flags |= NoScanMarker
	}
	return r
}

// Entropy returns the Shannon entropy of buf in bits per byte, computed over
// the frequency of each of the 256 byte values. An empty buffer has entropy 0.
func Entropy(buf []byte) float64 {
	if len(buf) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range buf {
		counts[b]++
	}
	total := float64(len(buf))
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}
