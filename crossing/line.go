package crossing

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/images"
)

// Axis selects the coordinate a reference line divides the frame by.
type Axis uint8

const (
	// AxisHorizontal is a line at a fixed y. It detects vertical motion.
	AxisHorizontal Axis = iota + 1
	// AxisPerpendicular is a line at a fixed x. It detects horizontal motion.
	AxisPerpendicular
)

func (a Axis) String() string {
	switch a {
	case AxisHorizontal:
		return "horizontal"
	case AxisPerpendicular:
		return "perpendicular"
	default:
		return "unknown"
	}
}

// ReferenceLine is a counting line. It is immutable once built.
type ReferenceLine struct {
	Name  string       `json:"name" yaml:"name"`
	Start images.Point `json:"start" yaml:"start"`
	End   images.Point `json:"end" yaml:"end"`
	Axis  Axis         `json:"axis" yaml:"axis"`
	// Increasing is reported when the coordinate grows across the line.
	Increasing Direction `json:"increasing" yaml:"increasing"`
	// Decreasing is reported when the coordinate shrinks across the line.
	Decreasing Direction `json:"decreasing" yaml:"decreasing"`
}

// NewHorizontalLine creates a line at height y spanning [0, width].
// Moving down the frame counts as Down and moving up as Up.
func NewHorizontalLine(y, width float32) ReferenceLine {
	return ReferenceLine{
		Name:       "horizontal",
		Start:      images.Point{X: 0, Y: y},
		End:        images.Point{X: width, Y: y},
		Axis:       AxisHorizontal,
		Increasing: Down,
		Decreasing: Up,
	}
}

// NewPerpendicularLine creates a line at x spanning [0, height].
// Moving right counts as Right and moving left as Left.
func NewPerpendicularLine(x, height float32) ReferenceLine {
	return ReferenceLine{
		Name:       "perpendicular",
		Start:      images.Point{X: x, Y: 0},
		End:        images.Point{X: x, Y: height},
		Axis:       AxisPerpendicular,
		Increasing: Right,
		Decreasing: Left,
	}
}

// Validate checks that the line can be evaluated.
func (l ReferenceLine) Validate() error {
	if l.Axis != AxisHorizontal && l.Axis != AxisPerpendicular {
		return errors.Errorf("line %q: unknown axis %d", l.Name, l.Axis)
	}
	if !l.Increasing.Valid() || !l.Decreasing.Valid() {
		return errors.Errorf("line %q: invalid direction labels", l.Name)
	}
	if l.Increasing == l.Decreasing {
		return errors.Errorf("line %q: both senses report %s", l.Name, l.Increasing)
	}
	return nil
}

// Threshold returns the coordinate of the line on its axis.
func (l ReferenceLine) Threshold() float32 {
	return l.coordinate(l.Start)
}

func (l ReferenceLine) coordinate(p images.Point) float32 {
	if l.Axis == AxisPerpendicular {
		return p.X
	}
	return p.Y
}

// Cross tests whether moving from prev to cur crosses the line.
//
// The threshold is inclusive on the arrival side only: prev < t <= cur is an
// increasing crossing and prev > t >= cur a decreasing one. A sample landing
// exactly on the line is counted once and leaving it is not counted again.
//
// Arguments:
//   - prev: The center in the previous frame.
//   - cur: The center in the current frame.
//
// Returns:
//   - Direction: The direction of the crossing.
//   - bool: Whether the line was crossed.
func (l ReferenceLine) Cross(prev, cur images.Point) (Direction, bool) {
	t := l.Threshold()
	p, c := l.coordinate(prev), l.coordinate(cur)
	switch {
	case p < t && t <= c:
		return l.Increasing, true
	case p > t && t >= c:
		return l.Decreasing, true
	default:
		return 0, false
	}
}
