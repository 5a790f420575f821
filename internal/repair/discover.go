package repair

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsJPEGName reports whether name has a .jpg or .jpeg extension, ignoring
// case.
func IsJPEGName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jpg" || ext == ".jpeg"
}

// Discover lists the JPEG files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsJPEGName(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// Collect expands command line arguments into corrupted file paths. A
// directory contributes the JPEG files Discover finds in it; any other
// argument is taken as a file as given, so that a missing file is reported
// by the repair itself.
func Collect(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			found, err := Discover(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
			continue
		}
		paths = append(paths, arg)
	}
	return paths, nil
}
