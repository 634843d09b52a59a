package controller

import (
	"bytes"
	"context"
	"image"
	"io"
	"time"

	// Register decoders for the ListFrameFiles formats.
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"

	"github.com/nvr-ai/go-linecount/util"
)

// SliceSource yields frames from memory.
type SliceSource struct {
	Frames []Frame
	next   int
}

// Next implements FrameSource.
func (s *SliceSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.Frames) {
		return Frame{}, io.EOF
	}
	f := s.Frames[s.next]
	s.next++
	return f, nil
}

// DirectorySource yields the frame-N images of a directory in frame order,
// decoding each one lazily.
type DirectorySource struct {
	files []util.FrameFile
	start time.Time
	step  time.Duration
	next  int
}

// NewDirectorySource lists the frames of dir.
//
// Arguments:
//   - dir: Directory of frame-N.{jpg,png,bmp} files.
//   - start: Timestamp of the first frame.
//   - step: Time between two frames.
//
// Returns:
//   - *DirectorySource: The source.
//   - error: If the directory cannot be read.
func NewDirectorySource(dir string, start time.Time, step time.Duration) (*DirectorySource, error) {
	files, err := util.ListFrameFiles(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "load frames from %s", dir)
	}
	return &DirectorySource{files: files, start: start, step: step}, nil
}

// Len returns the number of frames in the directory.
func (s *DirectorySource) Len() int {
	return len(s.files)
}

// Next implements FrameSource.
func (s *DirectorySource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.files) {
		return Frame{}, io.EOF
	}
	file := s.files[s.next]
	data, err := file.Read()
	if err != nil {
		return Frame{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, errors.Wrapf(err, "decode %s", file.Path)
	}
	f := Frame{
		ID:        s.next,
		Image:     img,
		Timestamp: s.start.Add(time.Duration(s.next) * s.step),
	}
	s.next++
	return f, nil
}
