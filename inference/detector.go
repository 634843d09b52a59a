package inference

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/nvr-ai/go-linecount/controller"
	"github.com/nvr-ai/go-linecount/models/model"
	"github.com/nvr-ai/go-linecount/models/postprocess"
)

// Runner is a loaded model with a single input and output buffer.
type Runner interface {
	InputSize() image.Point
	Input() []float32
	Run() error
	Output() ([]float32, []int64)
}

// ONNXDetector runs a model on each frame and decodes its output.
type ONNXDetector struct {
	mu     sync.Mutex
	runner Runner
	model  model.Model
}

var _ controller.Detector = (*ONNXDetector)(nil)

// NewONNXDetector pairs a runner with the model that decodes its output.
func NewONNXDetector(runner Runner, m model.Model) (*ONNXDetector, error) {
	if runner == nil || m == nil {
		return nil, fmt.Errorf("runner and model are required")
	}
	if in, want := runner.InputSize(), m.Options().InputShape; want != (image.Point{}) && in != want {
		return nil, fmt.Errorf("session input %v does not match model input %v", in, want)
	}
	return &ONNXDetector{runner: runner, model: m}, nil
}

// Detect runs one frame through the model.
//
// Arguments:
//   - ctx: Checked before inference starts.
//   - frame: The frame. Its image bounds are the output coordinate space.
//
// Returns:
//   - postprocess.Detections: The decoded detections in frame coordinates.
//   - error: If preprocessing, inference or decoding fails.
func (d *ONNXDetector) Detect(ctx context.Context, frame controller.Frame) (postprocess.Detections, error) {
	if err := ctx.Err(); err != nil {
		return postprocess.Detections{}, err
	}
	if frame.Image == nil {
		return postprocess.Detections{}, fmt.Errorf("frame %d has no image", frame.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := PrepareInput(frame.Image, d.runner.Input(), d.runner.InputSize()); err != nil {
		return postprocess.Detections{}, fmt.Errorf("prepare input: %w", err)
	}
	if err := d.runner.Run(); err != nil {
		return postprocess.Detections{}, err
	}

	output, shape := d.runner.Output()
	dets, err := d.model.PostProcess(output, shape, frame.Image.Bounds().Size())
	if err != nil {
		return postprocess.Detections{}, fmt.Errorf("decode output: %w", err)
	}
	return dets, nil
}
