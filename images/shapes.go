// Package images - Frame-space geometry for detections and tracks.
package images

import (
	"image"

	"github.com/chewxy/math32"
)

// Point is a 2D position in frame pixel space.
type Point struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// Truncate drops the fractional part of both coordinates, giving the pixel
// the point falls in.
func (p Point) Truncate() Point {
	return Point{X: math32.Trunc(p.X), Y: math32.Trunc(p.Y)}
}

// Rect is a lightweight bounding box in corner form.
type Rect struct {
	// X1,Y1 is the top-left corner, X2,Y2 the bottom-right corner.
	X1, Y1, X2, Y2 float32
}

// ToCorners converts a center/size box into corner form.
//
// Arguments:
//   - cx, cy: The center of the box.
//   - w, h: The width and height of the box.
//
// Returns:
//   - Rect: The box as (x1, y1, x2, y2).
//
// Example:
//
// ```go
//
//	r := ToCorners(50, 50, 20, 10) // Rect{X1: 40, Y1: 45, X2: 60, Y2: 55}
//
// ```
func ToCorners(cx, cy, w, h float32) Rect {
	return Rect{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// Width returns the horizontal extent of r, clamped to zero for inverted boxes.
func (r Rect) Width() float32 {
	return math32.Max(0, r.X2-r.X1)
}

// Height returns the vertical extent of r, clamped to zero for inverted boxes.
func (r Rect) Height() float32 {
	return math32.Max(0, r.Y2-r.Y1)
}

// Area returns the area of r. Corrupted boxes with negative width or height
// have zero area.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Scale multiplies the x coordinates by sx and the y coordinates by sy.
//
// Arguments:
//   - sx: Horizontal scale factor (output width / input width).
//   - sy: Vertical scale factor (output height / input height).
//
// Returns:
//   - Rect: The rescaled box.
func (r Rect) Scale(sx, sy float32) Rect {
	return Rect{X1: r.X1 * sx, Y1: r.Y1 * sy, X2: r.X2 * sx, Y2: r.Y2 * sy}
}

// ToImageRect converts r to an integral image.Rectangle for drawing. This loses
// fractional pixels around the edges, which is fine for overlays.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2)).Canon()
}

// CalculateIoU computes the Intersection over Union of two boxes: the area
// they share divided by the area they cover together.
//
//	IoU = Area of Intersection / Area of Union
//
//	- 1.0 means the boxes are identical.
//	- 0.0 means the boxes don't overlap at all (touching edges included).
//
// The intersection rectangle starts at the maximum of the two top-left corners
// and ends at the minimum of the two bottom-right corners; when either of its
// extents is zero or negative there is no overlap. The union follows the
// inclusion-exclusion principle:
//
//	Area(Union) = Area(A) + Area(B) - Area(Intersection)
//
// Areas are taken from Rect.Area, so an inverted (corrupted) box counts as
// zero-area and the result stays inside [0, 1]. A zero union (two degenerate
// boxes) yields 0 instead of NaN.
//
// Arguments:
//   - r: The first box.
//   - o: The other box to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//
//	iouScore := CalculateIoU(rect1, rect2) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	ix1 := math32.Max(r.X1, o.X1)
	iy1 := math32.Max(r.Y1, o.Y1)
	ix2 := math32.Min(r.X2, o.X2)
	iy2 := math32.Min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 || math32.IsNaN(unionArea) {
		return 0.0
	}

	return interArea / unionArea
}
