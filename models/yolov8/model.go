// Package yolov8 - YOLOv8 detection head decoding.
package yolov8

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/models/model"
	"github.com/nvr-ai/go-linecount/models/postprocess"
)

// Config holds the decoding parameters for a YOLOv8 output tensor.
type Config struct {
	// ConfidenceThreshold drops candidates whose best class confidence is below it.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// NMS configures per-class suppression.
	NMS postprocess.NMSConfig `json:"nms" yaml:"nms"`
	// NumClasses is the number of classes the model was trained on.
	NumClasses int `json:"num_classes" yaml:"num_classes"`
	// InputShape is the model input resolution (width, height).
	InputShape image.Point `json:"input_shape" yaml:"input_shape"`
	// RelevantClasses restricts the output to these class ids (empty = all).
	RelevantClasses []int `json:"relevant_classes" yaml:"relevant_classes"`
}

// Validate checks the configuration before any frame is decoded.
func (c Config) Validate() error {
	if math32.IsNaN(c.ConfidenceThreshold) || c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Errorf("confidence threshold must be within [0, 1], got %v", c.ConfidenceThreshold)
	}
	if err := c.NMS.Validate(); err != nil {
		return errors.Wrap(err, "nms")
	}
	if c.NumClasses <= 0 {
		return errors.Errorf("num_classes must be positive, got %d", c.NumClasses)
	}
	if c.InputShape.X <= 0 || c.InputShape.Y <= 0 {
		return errors.Errorf("input shape must be positive, got %dx%d", c.InputShape.X, c.InputShape.Y)
	}
	for _, id := range c.RelevantClasses {
		if id < 0 || id >= c.NumClasses {
			return errors.Errorf("relevant class id %d out of range [0, %d)", id, c.NumClasses)
		}
	}
	return nil
}

// YOLOv8 is the instance of the YOLOv8 model.
type YOLOv8 struct {
	options model.BaseModel
	decoder *Decoder
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - *YOLOv8: The model.
//   - error: If the decoding configuration is invalid.
func NewModel(args model.NewModelArgs) (*YOLOv8, error) {
	decoder, err := NewDecoder(Config{
		ConfidenceThreshold: args.ConfidenceThreshold,
		NMS:                 args.NMS,
		NumClasses:          args.NumClasses,
		InputShape:          args.InputShape,
		RelevantClasses:     args.RelevantClasses,
	})
	if err != nil {
		return nil, err
	}

	return &YOLOv8{
		options: model.BaseModel{
			Name:       model.ModelNameYOLOv8,
			Family:     model.ModelFamilyYOLO,
			Path:       args.Path,
			InputShape: args.InputShape,
		},
		decoder: decoder,
	}, nil
}

// Options returns the options for the YOLOv8 model.
func (m *YOLOv8) Options() model.BaseModel {
	return m.options
}

// PostProcess decodes one output tensor into frame-space detections.
func (m *YOLOv8) PostProcess(output []float32, shape []int64, frame image.Point) (postprocess.Detections, error) {
	return m.decoder.Decode(output, shape, frame)
}
