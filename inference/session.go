// Package inference - Inference sessions.
package inference

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-linecount/inference/providers"
	"github.com/nvr-ai/go-linecount/models/model"
)

// Config describes the model to load and where to run it.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// SharedLibraryPath overrides the ONNX Runtime library location.
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`
	// Device selects the execution provider ("cpu", "cuda:0", ...).
	Device string `json:"device" yaml:"device"`
	// InputSize is used for models with dynamic spatial input dimensions.
	InputSize image.Point `json:"input_size" yaml:"input_size"`
	// Threads bounds intra-op parallelism (0 = runtime default).
	Threads int `json:"threads" yaml:"threads"`
	// Precision is passed to providers that support it.
	Precision model.Precision `json:"precision" yaml:"precision"`
}

// Session represents a model session from the onnxruntime. It owns one input
// tensor of shape [1, 3, H, W] and one output tensor.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	mu             sync.Mutex
	inferenceCount int64
	totalTime      time.Duration
}

var initOnce sync.Once

// initEnvironment loads the native library once per process.
func initEnvironment(libPath string) error {
	var err error
	initOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// NewSession creates a new ONNX session with preallocated input and output
// tensors whose shapes are discovered from the model.
//
// Order of operations:
//  1. Library path check: Ensures native runtime is accessible.
//  2. Environment setup: Required once per process.
//  3. Shape discovery: Reads the single input and output of the model.
//  4. Tensor allocation: Prepares fixed-shape buffers for input/output data.
//  5. Session options and execution provider from the device string.
//  6. Session creation: Loads model and binds the tensors.
//
// Arguments:
//   - config: The model, library and device configuration.
//
// Returns:
//   - *Session: The session. The caller must Close it.
//   - error: An error if the session creation fails.
func NewSession(config Config) (*Session, error) {
	device, err := providers.ParseDevice(config.Device)
	if err != nil {
		return nil, err
	}

	libPath, err := providers.GetSharedLibPath(config.SharedLibraryPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(libPath); err != nil {
		return nil, fmt.Errorf("ONNX Runtime library not found at %s: %w", libPath, err)
	}
	if err := initEnvironment(libPath); err != nil {
		return nil, fmt.Errorf("error initializing ORT environment: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("error reading model %s: %w", config.ModelPath, err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected one input and one output, model has %d and %d", len(inputs), len(outputs))
	}

	inShape, err := inputShape(inputs[0].Dimensions, config.InputSize)
	if err != nil {
		return nil, err
	}
	outShape := outputs[0].Dimensions
	for _, d := range outShape {
		if d <= 0 {
			return nil, fmt.Errorf("output %q has dynamic shape %v", outputs[0].Name, outShape)
		}
	}

	input, err := ort.NewEmptyTensor[float32](inShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	options, err := providers.NewSessionOptions(providers.SessionConfig{
		Device:         device,
		IntraOpThreads: config.Threads,
		Precision:      config.Precision,
	})
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		config.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.Value{input},
		[]ort.Value{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	return &Session{session: session, input: input, output: output}, nil
}

// inputShape resolves the dynamic dimensions of an NCHW image input.
func inputShape(dims ort.Shape, size image.Point) (ort.Shape, error) {
	if len(dims) != 4 {
		return nil, fmt.Errorf("expected NCHW input, got shape %v", dims)
	}
	shape := ort.NewShape(1, 3, dims[2], dims[3])
	if shape[2] <= 0 {
		shape[2] = int64(size.Y)
	}
	if shape[3] <= 0 {
		shape[3] = int64(size.X)
	}
	if shape[2] <= 0 || shape[3] <= 0 {
		return nil, fmt.Errorf("input shape %v is dynamic and no input size is configured", dims)
	}
	return shape, nil
}

// InputSize returns the model input resolution (width, height).
func (s *Session) InputSize() image.Point {
	shape := s.input.GetShape()
	return image.Point{X: int(shape[3]), Y: int(shape[2])}
}

// Input returns the input tensor data to be filled before Run.
func (s *Session) Input() []float32 {
	return s.input.GetData()
}

// Output returns the output tensor data and shape written by the last Run.
func (s *Session) Output() ([]float32, []int64) {
	return s.output.GetData(), []int64(s.output.GetShape())
}

// Run executes the model and records its duration.
func (s *Session) Run() error {
	start := time.Now()
	err := s.session.Run()

	s.mu.Lock()
	s.inferenceCount++
	s.totalTime += time.Since(start)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("error running ORT session: %w", err)
	}
	return nil
}

// Metrics returns the number of runs and their average duration.
func (s *Session) Metrics() (runs int64, average time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inferenceCount == 0 {
		return 0, 0
	}
	return s.inferenceCount, s.totalTime / time.Duration(s.inferenceCount)
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return fmt.Errorf("error destroying ORT session: %w", err)
		}
		s.session = nil
	}
	return nil
}
