// Package config loads the line counter configuration.
package config

import (
	"bytes"
	"image"
	"io"
	"os"
	"time"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-linecount/crossing"
	"github.com/nvr-ai/go-linecount/export"
	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/inference"
	"github.com/nvr-ai/go-linecount/inference/providers"
	"github.com/nvr-ai/go-linecount/models"
	"github.com/nvr-ai/go-linecount/models/model"
	"github.com/nvr-ai/go-linecount/models/postprocess"
	"github.com/nvr-ai/go-linecount/tracking"
)

// ClockLayout is the layout of Clock.Start.
const ClockLayout = "2006-01-02 15:04:05"

// Config is the complete configuration of a run.
type Config struct {
	Video    VideoConfig    `json:"video" yaml:"video"`
	Model    ModelConfig    `json:"model" yaml:"model"`
	Lines    []LineConfig   `json:"lines" yaml:"lines"`
	Tracking TrackingConfig `json:"tracking" yaml:"tracking"`
	Clock    ClockConfig    `json:"clock" yaml:"clock"`
	Output   export.Outputs `json:"output" yaml:"output"`
}

// VideoConfig describes the input and annotated output videos.
type VideoConfig struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
	// Save writes the annotated video when true.
	Save bool `json:"save" yaml:"save"`
	// Width and Height are the size frames are resized to before processing.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ModelConfig describes the detection model.
type ModelConfig struct {
	Path              string `json:"path" yaml:"path"`
	Device            string `json:"device" yaml:"device"`
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`
	// Precision is FP32, FP16 or ACCURACY and requires the openvino device.
	Precision string `json:"precision" yaml:"precision"`
	// Threads bounds intra-op parallelism (0 = runtime default).
	Threads int `json:"threads" yaml:"threads"`
	// InputWidth and InputHeight are the model input resolution.
	InputWidth          int      `json:"input_width" yaml:"input_width"`
	InputHeight         int      `json:"input_height" yaml:"input_height"`
	ConfidenceThreshold float32  `json:"confidence_threshold" yaml:"confidence_threshold"`
	IoUThreshold        float32  `json:"iou_threshold" yaml:"iou_threshold"`
	NMSWorkers          int      `json:"nms_workers" yaml:"nms_workers"`
	Classes             []string `json:"classes" yaml:"classes"`
}

// LineConfig is one reference line given by its end points.
type LineConfig struct {
	Name  string       `json:"name" yaml:"name"`
	Axis  string       `json:"axis" yaml:"axis"`
	Start images.Point `json:"start" yaml:"start"`
	End   images.Point `json:"end" yaml:"end"`
}

// TrackingConfig controls tracking, history eviction and dedup.
type TrackingConfig struct {
	// MaxAge is the number of frames a track may be missing before it is
	// dropped, both by the tracker and from the crossing history.
	MaxAge int     `json:"max_age" yaml:"max_age"`
	MinIoU float32 `json:"min_iou" yaml:"min_iou"`
	// Dedup is "per-track" or "per-axis".
	Dedup string `json:"dedup" yaml:"dedup"`
}

// ClockConfig configures the simulated clock.
type ClockConfig struct {
	Start string  `json:"start" yaml:"start"`
	FPS   float64 `json:"fps" yaml:"fps"`
}

// Default returns the configuration of the reference setup: a 640x384 frame
// with a horizontal line at y=240 and a perpendicular line at x=400, counting
// cars and trucks.
func Default() Config {
	return Config{
		Video: VideoConfig{
			Input:  "input.mp4",
			Output: "output.mp4",
			Save:   true,
			Width:  640,
			Height: 384,
		},
		Model: ModelConfig{
			Path:                "yolov8m.onnx",
			Device:              "cpu",
			InputWidth:          640,
			InputHeight:         384,
			ConfidenceThreshold: 0.1,
			IoUThreshold:        0.5,
			Classes:             []string{"car", "truck"},
		},
		Lines: []LineConfig{
			{Name: "horizontal", Axis: "horizontal", Start: images.Point{X: 0, Y: 240}, End: images.Point{X: 640, Y: 240}},
			{Name: "perpendicular", Axis: "perpendicular", Start: images.Point{X: 400, Y: 0}, End: images.Point{X: 400, Y: 384}},
		},
		Tracking: TrackingConfig{
			MaxAge: 30,
			MinIoU: 0.3,
			Dedup:  crossing.DedupPerTrack.String(),
		},
		Clock: ClockConfig{
			Start: crossing.DefaultStart.Format(ClockLayout),
			FPS:   crossing.DefaultFPS,
		},
		Output: export.Outputs{
			CSV:      "car_data.csv",
			Timeline: "number_of_cars.png",
			Totals:   "total_count_of_cars.png",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func inUnit(v float32) bool {
	return !math32.IsNaN(v) && v >= 0 && v <= 1
}

// Validate rejects configurations that cannot be processed. It runs before
// any frame is read.
func (c Config) Validate() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.Errorf("video size must be positive, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Model.InputWidth <= 0 || c.Model.InputHeight <= 0 {
		return errors.Errorf("model input size must be positive, got %dx%d", c.Model.InputWidth, c.Model.InputHeight)
	}
	if !inUnit(c.Model.ConfidenceThreshold) {
		return errors.Errorf("confidence_threshold must be within [0, 1], got %v", c.Model.ConfidenceThreshold)
	}
	if !inUnit(c.Model.IoUThreshold) {
		return errors.Errorf("iou_threshold must be within [0, 1], got %v", c.Model.IoUThreshold)
	}
	if !inUnit(c.Tracking.MinIoU) {
		return errors.Errorf("tracking.min_iou must be within [0, 1], got %v", c.Tracking.MinIoU)
	}
	if c.Tracking.MaxAge < 0 {
		return errors.Errorf("tracking.max_age must not be negative, got %d", c.Tracking.MaxAge)
	}
	device, err := providers.ParseDevice(c.Model.Device)
	if err != nil {
		return err
	}
	precision, err := model.ParsePrecision(c.Model.Precision)
	if err != nil {
		return err
	}
	if precision != "" && device.Backend != providers.OpenVINOProviderBackend {
		return errors.Errorf("precision %s requires the openvino device", precision)
	}
	if _, err := models.YOLOClasses.IndicesOf(c.Model.Classes...); err != nil {
		return err
	}
	if _, err := crossing.ParseDedupPolicy(c.Tracking.Dedup); err != nil {
		return err
	}
	if _, err := c.ReferenceLines(); err != nil {
		return err
	}
	if _, err := c.NewClock(); err != nil {
		return err
	}
	return nil
}

// ReferenceLines builds the configured lines.
func (c Config) ReferenceLines() ([]crossing.ReferenceLine, error) {
	if len(c.Lines) == 0 {
		return nil, errors.New("at least one line is required")
	}
	lines := make([]crossing.ReferenceLine, 0, len(c.Lines))
	for _, lc := range c.Lines {
		var l crossing.ReferenceLine
		switch lc.Axis {
		case "horizontal":
			if lc.Start.Y != lc.End.Y {
				return nil, errors.Errorf("horizontal line %q must have equal y coordinates", lc.Name)
			}
			l = crossing.NewHorizontalLine(lc.Start.Y, lc.End.X)
		case "perpendicular":
			if lc.Start.X != lc.End.X {
				return nil, errors.Errorf("perpendicular line %q must have equal x coordinates", lc.Name)
			}
			l = crossing.NewPerpendicularLine(lc.Start.X, lc.End.Y)
		default:
			return nil, errors.Errorf("line %q: unknown axis %q", lc.Name, lc.Axis)
		}
		if lc.Name != "" {
			l.Name = lc.Name
		}
		l.Start, l.End = lc.Start, lc.End
		lines = append(lines, l)
	}
	return lines, nil
}

// NewClock builds the simulated clock.
func (c Config) NewClock() (*crossing.Clock, error) {
	start, err := time.ParseInLocation(ClockLayout, c.Clock.Start, time.UTC)
	if err != nil {
		return nil, errors.Wrap(err, "clock.start")
	}
	return crossing.NewClock(start, c.Clock.FPS)
}

// NewDetector builds the crossing detector with its history store.
func (c Config) NewDetector() (*crossing.Detector, error) {
	lines, err := c.ReferenceLines()
	if err != nil {
		return nil, err
	}
	policy, err := crossing.ParseDedupPolicy(c.Tracking.Dedup)
	if err != nil {
		return nil, err
	}
	clock, err := c.NewClock()
	if err != nil {
		return nil, err
	}
	return crossing.NewDetector(lines, crossing.DetectorOptions{
		Policy: policy,
		Store:  tracking.NewStore(c.Tracking.MaxAge),
		Clock:  clock,
	})
}

// TrackerConfig returns the IoU tracker parameters.
func (c Config) TrackerConfig() tracking.TrackerConfig {
	return tracking.TrackerConfig{MinIoU: c.Tracking.MinIoU, MaxAge: c.Tracking.MaxAge}
}

// ModelArgs returns the arguments of the detection model.
func (c Config) ModelArgs() (model.NewModelArgs, error) {
	classes, err := models.YOLOClasses.IndicesOf(c.Model.Classes...)
	if err != nil {
		return model.NewModelArgs{}, err
	}
	return model.NewModelArgs{
		Name:                model.ModelNameYOLOv8,
		Path:                c.Model.Path,
		Family:              model.ModelFamilyYOLO,
		InputShape:          image.Point{X: c.Model.InputWidth, Y: c.Model.InputHeight},
		NumClasses:          models.YOLOClasses.Len(),
		ConfidenceThreshold: c.Model.ConfidenceThreshold,
		NMS:                 postprocess.NMSConfig{IoUThreshold: c.Model.IoUThreshold, NumWorkers: c.Model.NMSWorkers},
		RelevantClasses:     classes,
	}, nil
}

// SessionConfig returns the inference session configuration.
func (c Config) SessionConfig() (inference.Config, error) {
	precision, err := model.ParsePrecision(c.Model.Precision)
	if err != nil {
		return inference.Config{}, err
	}
	return inference.Config{
		ModelPath:         c.Model.Path,
		SharedLibraryPath: c.Model.SharedLibraryPath,
		Device:            c.Model.Device,
		InputSize:         image.Point{X: c.Model.InputWidth, Y: c.Model.InputHeight},
		Threads:           c.Model.Threads,
		Precision:         precision,
	}, nil
}
