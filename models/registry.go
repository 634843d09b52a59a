// Package models - registry for models.
package models

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/models/model"
	"github.com/nvr-ai/go-linecount/models/yolov8"
)

// NewModel creates a new detection model instance based on the specified model type.
//
// Arguments:
//   - args: Configuration parameters specifying the model type, location and
//     decoding thresholds.
//
// Returns:
//   - model.Model: A configured model implementing the Model interface.
//   - error: If the model type is unsupported or the thresholds are invalid.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.NewModelArgs{
//	    Name:                model.ModelNameYOLOv8,
//	    Path:                "yolov8m.onnx",
//	    InputShape:          image.Point{X: 640, Y: 384},
//	    NumClasses:          YOLOClasses.Len(),
//	    ConfidenceThreshold: 0.1,
//	    NMS:                 postprocess.NMSConfig{IoUThreshold: 0.5},
//	})
//
// ```
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case model.ModelNameYOLOv8, "":
		m, err := yolov8.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Errorf("unsupported model name: %s", args.Name)
	}
}
