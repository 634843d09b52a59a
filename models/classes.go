// Package models - Class label sets and the model registry.
package models

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/models/model"
)

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
}

// OutputClassSet ties a style to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Style model.Family
	// Classes that are supported and mappable.
	Classes []OutputClass
}

// Len returns the number of classes in the set.
func (s OutputClassSet) Len() int {
	return len(s.Classes)
}

// Name returns the label of a class index.
//
// Arguments:
//   - idx: The class index produced by the model.
//
// Returns:
//   - string: The class label.
//   - error: If idx is outside the set. Callers must not silently index out
//     of bounds on an unknown class id.
func (s OutputClassSet) Name(idx int) (string, error) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", errors.Errorf("class index %d out of range for style %q (%d classes)", idx, s.Style, len(s.Classes))
	}
	return s.Classes[idx].Name, nil
}

// Index returns the class index of a label.
func (s OutputClassSet) Index(name string) (int, error) {
	for _, c := range s.Classes {
		if c.Name == name {
			return c.Index, nil
		}
	}
	return -1, errors.Errorf("class %q not found in style %q", name, s.Style)
}

// IndicesOf resolves several labels at once, preserving their order.
//
// Example:
//
// ```go
//
//	ids, err := YOLOClasses.IndicesOf("car", "truck") // []int{2, 7}
//
// ```
func (s OutputClassSet) IndicesOf(names ...string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		idx, err := s.Index(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, idx)
	}
	return ids, nil
}

var cocoNames = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// COCOClasses is the full 80 COCO classes plus "__background__" at index 0.
var COCOClasses = OutputClassSet{
	Style: model.ModelFamilyCOCO,
	Classes: func() []OutputClass {
		classes := make([]OutputClass, 0, len(cocoNames)+1)
		classes = append(classes, OutputClass{0, "__background__"})
		for i, name := range cocoNames {
			classes = append(classes, OutputClass{i + 1, name})
		}
		return classes
	}(),
}

// YOLOClasses is the 80 COCO classes (no background).
// YOLO models index directly into this zero-based list.
var YOLOClasses = OutputClassSet{
	Style: model.ModelFamilyYOLO,
	Classes: func() []OutputClass {
		classes := make([]OutputClass, len(cocoNames))
		for i, name := range cocoNames {
			classes[i] = OutputClass{i, name}
		}
		return classes
	}(),
}

// LookupName returns the class name for a given style and index.
// If index is out of range, it returns an empty string.
func LookupName(style model.Family, idx int) string {
	for _, set := range []OutputClassSet{COCOClasses, YOLOClasses} {
		if set.Style == style {
			name, err := set.Name(idx)
			if err != nil {
				return ""
			}
			return name
		}
	}
	return ""
}
