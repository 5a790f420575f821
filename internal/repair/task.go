package repair

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gdegoulet/jpeg-header-repair/internal/diagnose"
	"github.com/gdegoulet/jpeg-header-repair/internal/jpegseg"
)

// Result is the outcome of repairing one corrupted file. Err is nil on
// success and a *FileError otherwise; on failure only Path and, once the
// file was read, SourceSize are set.
type Result struct {
	Path         string
	Output       string
	SourceSize   int
	RepairedSize int
	Report       diagnose.Report
	Digest       Digest
	Camera       Camera

	// CameraMismatch is set when both the reference and the corrupted file
	// still name a camera in their EXIF, and the two differ.
	CameraMismatch bool

	Err error
}

func (r Result) OK() bool {
	return r.Err == nil
}

var errOverwriteSource = errors.New("output would overwrite the source file")

// RepairFile splices the reference header onto the scan data of the
// corrupted file at path and writes the result to outputRoot under the
// same base name. Nothing is written when the file cannot be repaired, and
// the output is never observable half written.
func RepairFile(ref *Reference, path, outputRoot string) (Result, error) {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, &FileError{Path: path, Kind: ErrFileRead, Err: err}
	}
	res.SourceSize = len(data)

	tail, err := jpegseg.ExtractTail(data)
	if err != nil {
		return res, &FileError{Path: path, Kind: err}
	}
	repaired := jpegseg.Splice(ref.Header, tail)

	out := filepath.Join(outputRoot, filepath.Base(path))
	if sameOutput(path, outputRoot) {
		return res, &FileError{Path: path, Output: out, Kind: ErrFileWrite, Err: errOverwriteSource}
	}
	if err := writeFile(out, repaired); err != nil {
		return res, &FileError{Path: path, Output: out, Kind: ErrFileWrite, Err: err}
	}

	res.Output = out
	res.RepairedSize = len(repaired)
	res.Report = diagnose.Diagnose(repaired, len(data), true)
	res.Digest = Sum(repaired)
	res.Camera = readCamera(data)
	res.CameraMismatch = ref.Camera.Differs(res.Camera)
	return res, nil
}

// sameOutput reports whether writing to outputRoot would replace the file at
// path. Directories are compared by identity, so a symlinked or bind mounted
// output root is caught too.
func sameOutput(path, outputRoot string) bool {
	srcDir, errA := os.Stat(filepath.Dir(path))
	outDir, errB := os.Stat(outputRoot)
	if errA == nil && errB == nil {
		return os.SameFile(srcDir, outDir)
	}
	absA, errA := filepath.Abs(filepath.Dir(path))
	absB, errB := filepath.Abs(outputRoot)
	if errA != nil || errB != nil {
		return false
	}
	return absA == absB
}

// writeFile writes data to a uniquely named temporary file next to path and
// renames it into place, so a repaired file either exists complete or not at
// all, even when several inputs share an output name.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp_repair")
	if err != nil {
		return err
	}
	tempPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
