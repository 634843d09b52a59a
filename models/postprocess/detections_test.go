package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/go-linecount/images"
)

func sampleDetections() Detections {
	return Detections{
		Boxes: []images.Rect{
			{X1: 0, Y1: 0, X2: 10, Y2: 10},
			{X1: 5, Y1: 5, X2: 15, Y2: 15},
			{X1: 20, Y1: 20, X2: 30, Y2: 30},
		},
		Scores:   []float32{0.9, 0.8, 0.7},
		ClassIDs: []int{2, 0, 7},
	}
}

func TestDetections_Filter(t *testing.T) {
	d := sampleDetections()

	got := d.Filter(2, 7)
	assert.Equal(t, []int{2, 7}, got.ClassIDs)
	assert.Equal(t, []float32{0.9, 0.7}, got.Scores)
	assert.Equal(t, d.Boxes[2], got.Boxes[1])

	assert.Equal(t, d, d.Filter())
	assert.Equal(t, 0, d.Filter(1).Len())
}

func TestDetections_Results(t *testing.T) {
	r := sampleDetections().Results()
	assert.Len(t, r, 3)
	assert.Equal(t, Result{Box: images.Rect{X1: 20, Y1: 20, X2: 30, Y2: 30}, Score: 0.7, Class: 7}, r[2])
}
