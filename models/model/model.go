// Package model - Shared model definitions.
package model

import (
	"image"

	"github.com/nvr-ai/go-linecount/models/postprocess"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyCOCO is the COCO model family.
	ModelFamilyCOCO Family = "coco"
	// ModelFamilyYOLO is the YOLO model family.
	ModelFamilyYOLO Family = "yolo"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameYOLOv8 is the name of the YOLOv8 detection head (anchor free,
	// 4 + C features per candidate).
	ModelNameYOLOv8 Name = "yolov8"
)

// BaseModel is the base model for all models.
type BaseModel struct {
	Name       Name
	Family     Family
	Path       string
	InputShape image.Point
}

// Model turns a raw output tensor into frame-space detections.
type Model interface {
	Options() BaseModel
	PostProcess(output []float32, shape []int64, frame image.Point) (postprocess.Detections, error)
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name                Name                  `json:"name" yaml:"name"`
	Path                string                `json:"path" yaml:"path"`
	Family              Family                `json:"family" yaml:"family"`
	InputShape          image.Point           `json:"input_shape" yaml:"input_shape"`
	NumClasses          int                   `json:"num_classes" yaml:"num_classes"`
	ConfidenceThreshold float32               `json:"confidence_threshold" yaml:"confidence_threshold"`
	NMS                 postprocess.NMSConfig `json:"nms" yaml:"nms"`
	RelevantClasses     []int                 `json:"relevant_classes" yaml:"relevant_classes"`
}
