// Package yolov8 - postprocess YOLOv8 model outputs.
package yolov8

import (
	"image"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/models/postprocess"
)

// geometryFeatures is the number of leading box values (cx, cy, w, h) per candidate.
const geometryFeatures = 4

// RawPrediction is one candidate row of the transposed output tensor.
type RawPrediction struct {
	CX, CY, W, H float32
	// Scores holds one confidence per class.
	Scores []float32
}

// Best returns the class with the highest confidence. Ties go to the lowest
// class id.
func (p RawPrediction) Best() (classID int, confidence float32) {
	confidence = -1
	for c, s := range p.Scores {
		if s > confidence {
			confidence = s
			classID = c
		}
	}
	return classID, confidence
}

// Decoder converts raw YOLOv8 output into deduplicated frame-space detections.
type Decoder struct {
	config   Config
	relevant map[int]bool
}

// NewDecoder validates the configuration and returns a decoder.
//
// Arguments:
//   - config: The decoding configuration.
//
// Returns:
//   - *Decoder: The decoder.
//   - error: If a threshold is outside [0, 1] or a shape is invalid.
func NewDecoder(config Config) (*Decoder, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid decoder config")
	}

	d := &Decoder{config: config}
	if len(config.RelevantClasses) > 0 {
		d.relevant = make(map[int]bool, len(config.RelevantClasses))
		for _, id := range config.RelevantClasses {
			d.relevant[id] = true
		}
	}
	return d, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() Config {
	return d.config
}

// Decode turns the model-native (4+C) x N output into detections for a frame.
//
// The steps are:
//   - Transpose to N rows of (cx, cy, w, h, score_0..score_C-1).
//   - Pick the best class per row and drop rows below the confidence threshold.
//   - Convert the survivors to corner form and rescale them from the model
//     input resolution to the frame resolution, independently per axis.
//   - Run per-class NMS and keep the retained rows in their original order.
//
// Arguments:
//   - output: The raw output tensor data.
//   - shape: The output tensor shape, either (4+C, N) or (1, 4+C, N).
//   - frame: The original frame dimensions (width, height).
//
// Returns:
//   - postprocess.Detections: The retained detections. Empty, not nil error,
//     when nothing passes the confidence threshold.
//   - error: If the shape does not match the data or implies more classes
//     than configured.
func (d *Decoder) Decode(output []float32, shape []int64, frame image.Point) (postprocess.Detections, error) {
	features, candidates, err := d.checkShape(output, shape)
	if err != nil {
		return postprocess.Detections{}, err
	}
	if frame.X <= 0 || frame.Y <= 0 {
		return postprocess.Detections{}, errors.Errorf("invalid frame size %dx%d", frame.X, frame.Y)
	}
	if candidates == 0 {
		return postprocess.Detections{}, nil
	}

	rows, err := transpose(output, features, candidates)
	if err != nil {
		return postprocess.Detections{}, err
	}

	sx := float32(frame.X) / float32(d.config.InputShape.X)
	sy := float32(frame.Y) / float32(d.config.InputShape.Y)

	var found postprocess.Detections
	for i := 0; i < candidates; i++ {
		row := rows[i*features : (i+1)*features]
		pred := RawPrediction{CX: row[0], CY: row[1], W: row[2], H: row[3], Scores: row[geometryFeatures:]}

		classID, confidence := pred.Best()
		if confidence < d.config.ConfidenceThreshold {
			continue
		}
		if d.relevant != nil && !d.relevant[classID] {
			continue
		}

		found.Boxes = append(found.Boxes, images.ToCorners(pred.CX, pred.CY, pred.W, pred.H).Scale(sx, sy))
		found.Scores = append(found.Scores, confidence)
		found.ClassIDs = append(found.ClassIDs, classID)
	}
	if found.Len() == 0 {
		return postprocess.Detections{}, nil
	}

	keep, err := postprocess.MultiClassNMS(found.Boxes, found.Scores, found.ClassIDs, d.config.NMS)
	if err != nil {
		return postprocess.Detections{}, errors.Wrap(err, "nms")
	}

	return found.Select(keep), nil
}

// checkShape returns the feature and candidate counts of an output tensor.
func (d *Decoder) checkShape(output []float32, shape []int64) (features, candidates int, err error) {
	switch len(shape) {
	case 2:
		features, candidates = int(shape[0]), int(shape[1])
	case 3:
		if shape[0] != 1 {
			return 0, 0, errors.Errorf("batched output not supported, got batch size %d", shape[0])
		}
		features, candidates = int(shape[1]), int(shape[2])
	default:
		return 0, 0, errors.Errorf("expected output of rank 2 or 3, got shape %v", shape)
	}

	if features <= geometryFeatures || candidates < 0 {
		return 0, 0, errors.Errorf("invalid output shape %v", shape)
	}
	if classes := features - geometryFeatures; classes > d.config.NumClasses {
		return 0, 0, errors.Errorf(
			"output carries %d class scores but only %d classes are configured",
			classes, d.config.NumClasses,
		)
	}
	if len(output) != features*candidates {
		return 0, 0, errors.Errorf(
			"output holds %d values, shape %v needs %d",
			len(output), shape, features*candidates,
		)
	}
	return features, candidates, nil
}

// transpose converts the (features, candidates) layout into row-major
// (candidates, features). The input slice is left untouched.
func transpose(output []float32, features, candidates int) ([]float32, error) {
	backing := make([]float32, len(output))
	copy(backing, output)

	t := tensor.New(tensor.WithShape(features, candidates), tensor.WithBacking(backing))
	if err := t.T(); err != nil {
		return nil, errors.Wrap(err, "transpose output")
	}
	if err := t.Transpose(); err != nil {
		return nil, errors.Wrap(err, "materialize transposed output")
	}

	rows, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("unexpected tensor data type %T", t.Data())
	}
	return rows, nil
}
