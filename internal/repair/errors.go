package repair

import (
	"errors"
	"fmt"

	"github.com/gdegoulet/jpeg-header-repair/internal/jpegseg"
)

var (
	ErrReferenceUnreadable = errors.New("reference file unreadable")
	ErrFileRead            = errors.New("file access error")
	ErrFileWrite           = errors.New("file save error")
)

// FileError records why one corrupted file was skipped. Kind is one of
// ErrFileRead, ErrFileWrite, jpegseg.ErrEmptyFile or jpegseg.ErrNoScanMarker;
// Err carries the underlying I/O error, if any.
type FileError struct {
	Path   string
	Output string
	Kind   error
	Err    error
}

func (e *FileError) Error() string {
	switch e.Kind {
	case jpegseg.ErrEmptyFile:
		return fmt.Sprintf("File size error: %s is 0 bytes. Cannot be repaired.", e.Path)
	case jpegseg.ErrNoScanMarker:
		return fmt.Sprintf("No JPEG SOS: No FFDA marker found in %s.", e.Path)
	case ErrFileRead:
		return fmt.Sprintf("File access error with %s: %v", e.Path, e.Err)
	case ErrFileWrite:
		return fmt.Sprintf("File save error: Cannot save repaired file to %s: %v", e.Output, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
