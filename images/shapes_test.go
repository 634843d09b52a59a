package images

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIoU_Correctness validates the IoU implementation against known test cases
func TestIoU_Correctness(t *testing.T) {
	tests := []struct {
		name     string
		r1       Rect
		r2       Rect
		expected float32
		epsilon  float32
	}{
		{
			name:     "Identical rectangles",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{0, 0, 100, 100},
			expected: 1.0,
			epsilon:  0.001,
		},
		{
			name:     "No overlap",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{200, 200, 300, 300},
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name:     "Touching edges",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{100, 0, 200, 100},
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name:     "Half overlap",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{50, 50, 150, 150},
			expected: 0.142857, // intersection=2500, union=17500
			epsilon:  0.001,
		},
		{
			name:     "One inside other",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{25, 25, 75, 75},
			expected: 0.25,
			epsilon:  0.001,
		},
		{
			name:     "Nested corner box",
			r1:       Rect{0, 0, 10, 10},
			r2:       Rect{1, 1, 10, 10},
			expected: 0.81, // intersection=81, union=100
			epsilon:  0.001,
		},
		{
			name:     "Fractional coordinates",
			r1:       Rect{0.5, 0.5, 2.5, 2.5},
			r2:       Rect{1.5, 1.5, 3.5, 3.5},
			expected: 1.0 / 7.0,
			epsilon:  0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateIoU(tt.r1, tt.r2)
			if math.Abs(float64(result-tt.expected)) > float64(tt.epsilon) {
				t.Errorf("IoU() = %v, expected %v (±%v)", result, tt.expected, tt.epsilon)
			}

			// IoU(A, B) should equal IoU(B, A)
			reverse := CalculateIoU(tt.r2, tt.r1)
			if math.Abs(float64(result-reverse)) > float64(tt.epsilon) {
				t.Errorf("IoU not symmetric: IoU(A,B)=%v != IoU(B,A)=%v", result, reverse)
			}
		})
	}
}

// TestIoU_vs_ImageRectangle compares our implementation against image.Rectangle
func TestIoU_vs_ImageRectangle(t *testing.T) {
	testCases := []struct {
		name string
		r1   image.Rectangle
		r2   image.Rectangle
	}{
		{"No overlap", image.Rect(0, 0, 100, 100), image.Rect(200, 200, 300, 300)},
		{"Partial overlap", image.Rect(0, 0, 100, 100), image.Rect(50, 50, 150, 150)},
		{"Full overlap", image.Rect(50, 50, 150, 150), image.Rect(50, 50, 150, 150)},
		{"One inside other", image.Rect(0, 0, 100, 100), image.Rect(25, 25, 75, 75)},
		{"Large boxes", image.Rect(0, 0, 1920, 1080), image.Rect(960, 540, 1920, 1080)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			customResult := CalculateIoU(fromImageRect(tc.r1), fromImageRect(tc.r2))
			imageResult := imageRectangleIoU(tc.r1, tc.r2)

			if math.Abs(float64(customResult-imageResult)) > 0.0001 {
				t.Errorf("Results differ: custom=%v, image.Rectangle=%v", customResult, imageResult)
			}
		})
	}
}

func fromImageRect(r image.Rectangle) Rect {
	return Rect{float32(r.Min.X), float32(r.Min.Y), float32(r.Max.X), float32(r.Max.Y)}
}

// imageRectangleIoU implements IoU using Go's standard library image.Rectangle
func imageRectangleIoU(r1, r2 image.Rectangle) float32 {
	intersect := r1.Intersect(r2)
	if intersect.Empty() {
		return 0.0
	}

	intersectArea := intersect.Dx() * intersect.Dy()
	union := r1.Dx()*r1.Dy() + r2.Dx()*r2.Dy() - intersectArea

	return float32(intersectArea) / float32(union)
}

// TestIoU_EdgeCases tests edge cases and boundary conditions
func TestIoU_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		r1   Rect
		r2   Rect
	}{
		{"Zero area rectangle 1", Rect{0, 0, 0, 0}, Rect{0, 0, 100, 100}},
		{"Zero area rectangle 2", Rect{0, 0, 100, 100}, Rect{50, 50, 50, 50}},
		{"Both zero area", Rect{0, 0, 0, 0}, Rect{10, 10, 10, 10}},
		{"Same degenerate point", Rect{5, 5, 5, 5}, Rect{5, 5, 5, 5}},
		{"Negative coordinates", Rect{-100, -100, 0, 0}, Rect{-50, -50, 50, 50}},
		{"Inverted box", Rect{100, 100, 0, 0}, Rect{0, 0, 100, 100}},
		{"Both inverted", Rect{100, 100, 0, 0}, Rect{90, 90, 10, 10}},
		{"Very large coordinates", Rect{0, 0, 999999, 999999}, Rect{500000, 500000, 999999, 999999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateIoU(tt.r1, tt.r2)
			assert.False(t, math.IsNaN(float64(result)), "IoU must never be NaN")
			assert.GreaterOrEqual(t, result, float32(0))
			assert.LessOrEqual(t, result, float32(1))

			reverseResult := CalculateIoU(tt.r2, tt.r1)
			assert.False(t, math.IsNaN(float64(reverseResult)))
			assert.GreaterOrEqual(t, reverseResult, float32(0))
			assert.LessOrEqual(t, reverseResult, float32(1))
		})
	}
}

func TestIoU_DegenerateUnionIsZero(t *testing.T) {
	assert.Equal(t, float32(0), CalculateIoU(Rect{5, 5, 5, 5}, Rect{5, 5, 5, 5}))
}

func TestRect_AreaClampsInvertedBoxes(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want float32
	}{
		{"regular", Rect{0, 0, 10, 5}, 50},
		{"zero width", Rect{3, 0, 3, 5}, 0},
		{"negative width", Rect{10, 0, 0, 5}, 0},
		{"negative height", Rect{0, 5, 10, 0}, 0},
		{"both negative", Rect{10, 10, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Area())
		})
	}
}

func TestToCorners(t *testing.T) {
	assert.Equal(t, Rect{X1: 40, Y1: 45, X2: 60, Y2: 55}, ToCorners(50, 50, 20, 10))
	assert.Equal(t, Rect{X1: 7, Y1: 7, X2: 7, Y2: 7}, ToCorners(7, 7, 0, 0))

	r := ToCorners(320, 192, 64, 32)
	assert.Equal(t, Point{X: 320, Y: 192}, r.Center())
	assert.Equal(t, float32(64), r.Width())
	assert.Equal(t, float32(32), r.Height())
}

func TestRect_Scale(t *testing.T) {
	r := Rect{X1: 10, Y1: 20, X2: 30, Y2: 40}
	scaled := r.Scale(2, 0.5)
	assert.Equal(t, Rect{X1: 20, Y1: 10, X2: 60, Y2: 20}, scaled)
}

func TestRect_ToImageRect(t *testing.T) {
	assert.Equal(t, image.Rect(10, 20, 30, 40), Rect{10.7, 20.2, 30.9, 40.1}.ToImageRect())
	assert.Equal(t, image.Rect(0, 0, 10, 10), Rect{10, 10, 0, 0}.ToImageRect())
}
