package repair

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/jpegli"

	"github.com/gdegoulet/jpeg-header-repair/internal/jpegseg"
)

// Reference is a known-good JPEG and the header prefix cut from it. It is
// built once per batch and only read afterwards, so it can be shared by any
// number of workers.
type Reference struct {
	Path        string
	Size        int
	Header      jpegseg.HeaderPrefix
	Fingerprint Digest
	Camera      Camera

	// Frame is the reference's SOF header, when one was found.
	Frame    jpegseg.Frame
	FrameErr error

	// Decoded is what a JPEG decoder reads from Header alone. It is only
	// used to confirm that the header parses; scan data is never decoded.
	Decoded    image.Config
	DecodedErr error
}

// LoadReference reads the reference file and extracts its header prefix.
// The path must name an existing regular file.
func LoadReference(path string) (*Reference, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnreadable, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrReferenceUnreadable, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnreadable, err)
	}

	header, err := jpegseg.ExtractHeaderPrefix(data)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", path, err)
	}

	ref := &Reference{
		Path:        path,
		Size:        len(data),
		Header:      header,
		Fingerprint: Sum(header),
		Camera:      readCamera(data),
	}
	ref.Frame, ref.FrameErr = jpegseg.InspectFrame(header)
	ref.Decoded, ref.DecodedErr = decodeHeader(header)
	return ref, nil
}

func decodeHeader(header []byte) (cfg image.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return jpegli.DecodeConfig(bytes.NewReader(header))
}

// Warnings lists the known limitations that apply to this reference. The
// splice is performed regardless.
func (r *Reference) Warnings() []string {
	var w []string
	switch {
	case errors.Is(r.FrameErr, jpegseg.ErrNoFrame):
		w = append(w, "reference header has no SOF segment; image structure is unknown")
	case r.FrameErr != nil:
		w = append(w, fmt.Sprintf("reference frame header unreadable: %v", r.FrameErr))
	case !r.Frame.SpliceSafe():
		w = append(w, fmt.Sprintf("reference is %s; only baseline 3-component images are supported, the %d-byte scan header may be cut in the wrong place",
			r.Frame, jpegseg.ScanHeaderLength))
	}
	if r.DecodedErr != nil {
		w = append(w, fmt.Sprintf("reference header rejected by JPEG decoder: %v", r.DecodedErr))
	} else if r.FrameErr == nil && (r.Decoded.Width != r.Frame.Width || r.Decoded.Height != r.Frame.Height) {
		w = append(w, fmt.Sprintf("decoder reports %dx%d but SOF declares %dx%d",
			r.Decoded.Width, r.Decoded.Height, r.Frame.Width, r.Frame.Height))
	}
	return w
}
