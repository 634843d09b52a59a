// Package util - Loaders for recorded frames and tracker output.
package util

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FramePrefix is the file name prefix of recorded frames (frame-<N>.<ext>).
const FramePrefix = "frame-"

var frameExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// FrameFile is a recorded frame on disk.
type FrameFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name.
	Frame int
}

// Read returns the encoded image.
func (f FrameFile) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	return data, errors.Wrapf(err, "read frame %d", f.Frame)
}

// ParseFrameNumber extracts N from a frame-<N>.<ext> file name.
func ParseFrameNumber(name string) (int, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	n, err := strconv.Atoi(strings.TrimPrefix(stem, FramePrefix))
	if err != nil || n < 0 {
		return 0, errors.Errorf("%s is not named %s<N>", name, FramePrefix)
	}
	return n, nil
}

// ListFrameFiles lists the recorded frames of a directory without reading
// them. Subdirectories and files that are not images are ignored.
//
// Arguments:
// - dir: Directory path containing image files named frame-<N>.<ext>.
//
// Returns:
// - []FrameFile: The frames sorted by frame number.
// - error: If the directory cannot be read, an image carries no frame number
// or two images share one.
func ListFrameFiles(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read frame directory")
	}

	var frames []FrameFile
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(frameExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		n, err := ParseFrameNumber(e.Name())
		if err != nil {
			return nil, err
		}
		frames = append(frames, FrameFile{Path: filepath.Join(dir, e.Name()), Frame: n})
	}

	slices.SortFunc(frames, func(a, b FrameFile) int { return a.Frame - b.Frame })
	for i := 1; i < len(frames); i++ {
		if frames[i].Frame == frames[i-1].Frame {
			return nil, errors.Errorf("frame %d recorded twice: %s and %s", frames[i].Frame, frames[i-1].Path, frames[i].Path)
		}
	}
	return frames, nil
}
