package repair

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3-256 digest of a header prefix or a repaired file.
type Digest [32]byte

// Sum hashes data.
func Sum(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// String returns the full hex encoding, the form written to the JSON
// summary.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, enough to tell reference
// headers apart in log lines.
func (d Digest) Short() string {
	return d.String()[:12]
}

// IsZero reports whether d was never set.
func (d Digest) IsZero() bool {
	return d == Digest{}
}
