// Package annotate draws reference lines, tracks and counters onto frames.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-linecount/controller"
	"github.com/nvr-ai/go-linecount/crossing"
)

var (
	// HorizontalColor is used for horizontal lines and boxes that crossed one.
	HorizontalColor = color.RGBA{0, 255, 0, 0}
	// PerpendicularColor is used for perpendicular lines, idle boxes and boxes
	// that crossed a perpendicular line.
	PerpendicularColor = color.RGBA{0, 0, 255, 0}
	// TextColor is used for the counters and the clock.
	TextColor = color.RGBA{255, 255, 255, 0}
)

// LineColor returns the drawing color of a reference line.
func LineColor(axis crossing.Axis) color.RGBA {
	if axis == crossing.AxisHorizontal {
		return HorizontalColor
	}
	return PerpendicularColor
}

// BoxColor returns the color of a track box given the lines it crossed this
// frame. The last crossing wins.
func BoxColor(crossings []crossing.Crossing) color.RGBA {
	c := PerpendicularColor
	for _, x := range crossings {
		c = LineColor(x.Axis)
	}
	return c
}

// CounterText returns the counter lines shown at the top left of the frame.
func CounterText(c crossing.Counters) []string {
	return []string{
		fmt.Sprintf("Up: %d Down: %d", c.Get(crossing.Up), c.Get(crossing.Down)),
		fmt.Sprintf("Left: %d Right: %d", c.Get(crossing.Left), c.Get(crossing.Right)),
	}
}

// ClockText formats the simulated time with millisecond precision.
func ClockText(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// Overlay draws onto the Mat of the frame being processed. Target must be set
// before each frame is handed to the controller.
type Overlay struct {
	Target *gocv.Mat
	Lines  []crossing.ReferenceLine
}

var _ controller.Annotator = (*Overlay)(nil)

// Annotate implements controller.Annotator.
func (o *Overlay) Annotate(frame controller.Frame, result controller.FrameResult) error {
	if o.Target == nil || o.Target.Empty() {
		return fmt.Errorf("no target image for frame %d", frame.ID)
	}
	img := o.Target

	for _, l := range o.Lines {
		start := image.Pt(int(l.Start.X), int(l.Start.Y))
		end := image.Pt(int(l.End.X), int(l.End.Y))
		gocv.Line(img, start, end, LineColor(l.Axis), 2)
	}

	for _, t := range result.Tracks {
		c := BoxColor(t.Crossings)
		rect := t.Box.Box.ToImageRect()
		gocv.Rectangle(img, rect, c, 2)
		gocv.PutText(img, fmt.Sprintf("ID: %d", t.Box.TrackID), image.Pt(rect.Min.X, rect.Min.Y-10),
			gocv.FontHersheySimplex, 0.5, c, 2)
	}

	for i, text := range CounterText(result.Counters) {
		gocv.PutText(img, text, image.Pt(10, 30*(i+1)), gocv.FontHersheySimplex, 1, TextColor, 2)
	}
	gocv.PutText(img, ClockText(result.Timestamp), image.Pt(10, img.Rows()-10), gocv.FontHersheySimplex, 1, TextColor, 2)
	return nil
}
