package crossing

import (
	"time"

	"github.com/pkg/errors"
)

// DefaultStart is the simulated time of the first frame.
var DefaultStart = time.Date(2024, time.February, 19, 13, 50, 0, 0, time.UTC)

// DefaultFPS is the assumed frame rate of the input.
const DefaultFPS = 30

// Clock is a simulated clock advanced once per processed frame by a fixed
// step. It never reads wall-clock time.
type Clock struct {
	start time.Time
	step  time.Duration
	frame int
}

// NewClock creates a clock at frame 0.
//
// Arguments:
//   - start: The time of frame 0.
//   - fps: The frame rate. The per-frame step is 1/fps seconds, truncated to
//     whole microseconds.
//
// Returns:
//   - *Clock: The clock.
//   - error: If fps is not positive.
func NewClock(start time.Time, fps float64) (*Clock, error) {
	if !(fps > 0) {
		return nil, errors.Errorf("fps must be positive, got %v", fps)
	}
	step := time.Duration(float64(time.Second) / fps).Truncate(time.Microsecond)
	if step <= 0 {
		return nil, errors.Errorf("fps %v is too high for microsecond timestamps", fps)
	}
	return &Clock{start: start, step: step}, nil
}

// Now returns the simulated time of the current frame.
func (c *Clock) Now() time.Time {
	return c.start.Add(time.Duration(c.frame) * c.step)
}

// Advance moves to the next frame.
func (c *Clock) Advance() {
	c.frame++
}

// Frame returns the index of the current frame.
func (c *Clock) Frame() int {
	return c.frame
}

// Step returns the time between two frames.
func (c *Clock) Step() time.Duration {
	return c.step
}
