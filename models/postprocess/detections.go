package postprocess

import (
	"slices"

	"github.com/nvr-ai/go-linecount/images"
)

// Detections is the column-oriented output of a decoder for one frame. The
// three slices always have the same length; entry i of each describes the
// same detection.
type Detections struct {
	Boxes    []images.Rect `json:"boxes"`
	Scores   []float32     `json:"scores"`
	ClassIDs []int         `json:"class_ids"`
}

// Len returns the number of detections.
func (d Detections) Len() int {
	return len(d.Boxes)
}

// Results converts the detections to row-oriented results.
func (d Detections) Results() []Result {
	results := make([]Result, d.Len())
	for i := range d.Boxes {
		results[i] = Result{Box: d.Boxes[i], Score: d.Scores[i], Class: d.ClassIDs[i]}
	}
	return results
}

// Select returns the detections at the given indices, in the given order.
func (d Detections) Select(indices []int) Detections {
	out := Detections{
		Boxes:    make([]images.Rect, 0, len(indices)),
		Scores:   make([]float32, 0, len(indices)),
		ClassIDs: make([]int, 0, len(indices)),
	}
	for _, i := range indices {
		out.Boxes = append(out.Boxes, d.Boxes[i])
		out.Scores = append(out.Scores, d.Scores[i])
		out.ClassIDs = append(out.ClassIDs, d.ClassIDs[i])
	}
	return out
}

// Filter returns the detections whose class is one of classes, in order.
// With no classes the detections are returned unchanged.
func (d Detections) Filter(classes ...int) Detections {
	if len(classes) == 0 {
		return d
	}
	var keep []int
	for i, c := range d.ClassIDs {
		if slices.Contains(classes, c) {
			keep = append(keep, i)
		}
	}
	return d.Select(keep)
}
