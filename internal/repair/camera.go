package repair

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Camera identifies the device that wrote a file, as far as its EXIF
// block still says. Corrupted files often have no readable EXIF; the zero
// Camera means unknown.
type Camera struct {
	Make  string
	Model string
}

func (c Camera) Known() bool {
	return c.Make != "" || c.Model != ""
}

func (c Camera) String() string {
	if !c.Known() {
		return "unknown"
	}
	return strings.TrimSpace(c.Make + " " + c.Model)
}

// Differs reports whether both cameras are known and not the same device.
func (c Camera) Differs(o Camera) bool {
	if !c.Known() || !o.Known() {
		return false
	}
	return !strings.EqualFold(c.Make, o.Make) || !strings.EqualFold(c.Model, o.Model)
}

// readCamera extracts Make and Model from the EXIF block of a JPEG buffer.
// Any decoding problem yields the zero Camera.
func readCamera(buf []byte) (cam Camera) {
	// goexif panics on some malformed TIFF structures.
	defer func() {
		if recover() != nil {
			cam = Camera{}
		}
	}()

	x, err := exif.Decode(bytes.NewReader(buf))
	if err != nil {
		return Camera{}
	}
	return Camera{
		Make:  exifString(x, exif.Make),
		Model: exifString(x, exif.Model),
	}
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
