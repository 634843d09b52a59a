// Package model - Model options.
//
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
package model

import (
	"strings"

	"github.com/pkg/errors"
)

// Precision represents the inference precision requested from providers that
// support it. The empty precision leaves the provider default.
type Precision string

const (
	// PrecisionAccuracy represents the accuracy of the model.
	// (OpenVINO's default input precision type.)
	PrecisionAccuracy Precision = "ACCURACY"
	// PrecisionFP32 represents 32-bit floating point precision.
	PrecisionFP32 Precision = "FP32"
	// PrecisionFP16 represents 16-bit floating point precision.
	PrecisionFP16 Precision = "FP16"
)

// ParsePrecision parses a precision name, case insensitively.
func ParsePrecision(s string) (Precision, error) {
	p := Precision(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case "", PrecisionAccuracy, PrecisionFP32, PrecisionFP16:
		return p, nil
	}
	return "", errors.Errorf("unknown precision %q", s)
}
