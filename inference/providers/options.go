package providers

import (
	"fmt"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-linecount/models/model"
)

// SessionConfig controls how ONNX Runtime executes a model.
type SessionConfig struct {
	Device Device `json:"device" yaml:"device"`
	// IntraOpThreads parallelizes a single node (0 = runtime default).
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	// InterOpThreads parallelizes independent nodes (0 = runtime default).
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
	// Precision is only honoured by OpenVINO.
	Precision model.Precision `json:"precision" yaml:"precision"`
}

// NewSessionOptions builds session options and appends the execution provider
// of the configured device. The caller must Destroy the returned options.
//
// Arguments:
//   - config: The device and threading configuration.
//
// Returns:
//   - *ort.SessionOptions: The session options.
//   - error: If the options cannot be created or the provider is unavailable.
func NewSessionOptions(config SessionConfig) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}

	if err := configure(options, config); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func configure(options *ort.SessionOptions, config SessionConfig) error {
	if config.Precision != "" && config.Device.Backend != OpenVINOProviderBackend {
		return fmt.Errorf("precision %s requires the openvino device, got %s", config.Precision, config.Device)
	}
	if err := options.SetIntraOpNumThreads(config.IntraOpThreads); err != nil {
		return fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(config.InterOpThreads); err != nil {
		return fmt.Errorf("error setting inter-op threads: %w", err)
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return fmt.Errorf("error setting graph optimization level: %w", err)
	}

	switch config.Device.Backend {
	case CPUProviderBackend, "":
		return nil
	case CUDAProviderBackend:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("error creating CUDA provider options: %w", err)
		}
		defer cuda.Destroy()
		if err := cuda.Update(map[string]string{
			"device_id": strconv.Itoa(config.Device.DeviceID),
		}); err != nil {
			return fmt.Errorf("error updating CUDA provider options: %w", err)
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("error enabling CUDA: %w", err)
		}
	case CoreMLProviderBackend:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return fmt.Errorf("error enabling CoreML: %w", err)
		}
	case OpenVINOProviderBackend:
		if err := options.AppendExecutionProviderOpenVINO(OpenVINOOptions(config)); err != nil {
			return fmt.Errorf("error enabling OpenVINO: %w", err)
		}
	default:
		return fmt.Errorf("unsupported execution provider %q", config.Device.Backend)
	}
	return nil
}

// OpenVINOOptions returns the provider options of an OpenVINO session.
func OpenVINOOptions(config SessionConfig) map[string]string {
	opts := map[string]string{"device_type": "CPU"}
	if config.Precision != "" {
		opts["precision"] = string(config.Precision)
	}
	return opts
}
