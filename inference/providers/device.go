// Package providers - Execution provider selection for ONNX Runtime sessions.
package providers

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ProviderBackend represents different ONNX Runtime execution providers
type ProviderBackend string

const (
	// CPUProviderBackend runs the model on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CUDAProviderBackend uses NVIDIA CUDA for GPU acceleration.
	CUDAProviderBackend ProviderBackend = "cuda"
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// Device is a parsed device string such as "cpu" or "cuda:1".
type Device struct {
	Backend  ProviderBackend `json:"backend" yaml:"backend"`
	DeviceID int             `json:"device_id" yaml:"device_id"`
}

func (d Device) String() string {
	if d.Backend == CUDAProviderBackend {
		return "cuda:" + strconv.Itoa(d.DeviceID)
	}
	return string(d.Backend)
}

// ParseDevice parses a torch-style device string.
//
// Arguments:
//   - s: One of "cpu", "cuda", "cuda:N", "coreml" or "openvino". The empty
//     string selects the CPU.
//
// Returns:
//   - Device: The parsed device.
//   - error: If the backend is unknown or the device index is not a
//     non-negative integer.
func ParseDevice(s string) (Device, error) {
	name, index, hasIndex := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")

	var d Device
	switch ProviderBackend(name) {
	case "", CPUProviderBackend:
		d.Backend = CPUProviderBackend
	case CUDAProviderBackend:
		d.Backend = CUDAProviderBackend
	case CoreMLProviderBackend:
		d.Backend = CoreMLProviderBackend
	case OpenVINOProviderBackend:
		d.Backend = OpenVINOProviderBackend
	default:
		return Device{}, errors.Errorf("unknown device %q", s)
	}

	if hasIndex {
		if d.Backend != CUDAProviderBackend {
			return Device{}, errors.Errorf("device %q does not take an index", s)
		}
		id, err := strconv.Atoi(index)
		if err != nil || id < 0 {
			return Device{}, errors.Errorf("invalid device index in %q", s)
		}
		d.DeviceID = id
	}
	return d, nil
}
