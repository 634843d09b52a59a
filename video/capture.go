// Package video reads frames from and writes frames to video files with OpenCV.
package video

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-linecount/controller"
)

// Capture is a controller.FrameSource over a video file or device. Every
// frame is resized to Size before it is handed out.
type Capture struct {
	cap   *gocv.VideoCapture
	raw   gocv.Mat
	frame gocv.Mat
	size  image.Point
	start time.Time
	step  time.Duration
	next  int
}

var _ controller.FrameSource = (*Capture)(nil)

// OpenCapture opens a video file, or a capture device when source is a
// device number.
//
// Arguments:
//   - source: Path of the video or a device id.
//   - size: Output frame size (width, height).
//   - start: Timestamp of the first frame.
//   - step: Time between two frames.
//
// Returns:
//   - *Capture: The opened capture.
//   - error: If the source cannot be opened or size is not positive.
func OpenCapture(source any, size image.Point, start time.Time, step time.Duration) (*Capture, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", size.X, size.Y)
	}
	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, errors.Wrapf(err, "open video capture %v", source)
	}
	return &Capture{
		cap:   vc,
		raw:   gocv.NewMat(),
		frame: gocv.NewMat(),
		size:  size,
		start: start,
		step:  step,
	}, nil
}

// Mat returns the resized Mat of the current frame. The pointer stays valid
// for the life of the capture and its contents change on every Next.
func (c *Capture) Mat() *gocv.Mat {
	return &c.frame
}

// FPS returns the frame rate reported by the container, 0 if unknown.
func (c *Capture) FPS() float64 {
	return c.cap.Get(gocv.VideoCaptureFPS)
}

// Next implements controller.FrameSource.
func (c *Capture) Next(ctx context.Context) (controller.Frame, error) {
	if err := ctx.Err(); err != nil {
		return controller.Frame{}, err
	}
	for {
		if ok := c.cap.Read(&c.raw); !ok {
			return controller.Frame{}, io.EOF
		}
		if !c.raw.Empty() {
			break
		}
	}

	gocv.Resize(c.raw, &c.frame, c.size, 0, 0, gocv.InterpolationLinear)
	img, err := c.frame.ToImage()
	if err != nil {
		return controller.Frame{}, errors.Wrap(err, "convert frame")
	}

	id := c.next
	c.next++
	return controller.Frame{
		ID:        id,
		Image:     img,
		Timestamp: c.start.Add(time.Duration(id) * c.step),
	}, nil
}

// Close releases the capture and its buffers.
func (c *Capture) Close() error {
	err := c.cap.Close()
	if cerr := c.raw.Close(); err == nil {
		err = cerr
	}
	if cerr := c.frame.Close(); err == nil {
		err = cerr
	}
	return err
}

// Writer encodes frames into a video file.
type Writer struct {
	w *gocv.VideoWriter
}

// NewWriter creates an mp4v encoded video at path.
func NewWriter(path string, fps float64, size image.Point) (*Writer, error) {
	w, err := gocv.VideoWriterFile(path, "mp4v", fps, size.X, size.Y, true)
	if err != nil {
		return nil, errors.Wrapf(err, "create video writer %s", path)
	}
	return &Writer{w: w}, nil
}

// Write appends a frame.
func (w *Writer) Write(m gocv.Mat) error {
	return errors.Wrap(w.w.Write(m), "write video frame")
}

// Close finalizes the file.
func (w *Writer) Close() error {
	return w.w.Close()
}
