package yolov8

import (
	"image"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/models/model"
	"github.com/nvr-ai/go-linecount/models/postprocess"
)

// candidate is one row as the model would produce it before transposition.
type candidate struct {
	cx, cy, w, h float32
	scores       []float32
}

// rawOutput lays candidates out in the model-native (4+C) x N order.
func rawOutput(numClasses int, candidates ...candidate) ([]float32, []int64) {
	features := 4 + numClasses
	n := len(candidates)
	out := make([]float32, features*n)
	for i, c := range candidates {
		out[0*n+i] = c.cx
		out[1*n+i] = c.cy
		out[2*n+i] = c.w
		out[3*n+i] = c.h
		for k, s := range c.scores {
			out[(4+k)*n+i] = s
		}
	}
	return out, []int64{1, int64(features), int64(n)}
}

func newTestDecoder(t *testing.T, mutate func(*Config)) *Decoder {
	t.Helper()
	config := Config{
		ConfidenceThreshold: 0.5,
		NMS:                 postprocess.NMSConfig{IoUThreshold: 0.5},
		NumClasses:          3,
		InputShape:          image.Point{X: 640, Y: 640},
	}
	if mutate != nil {
		mutate(&config)
	}
	d, err := NewDecoder(config)
	require.NoError(t, err)
	return d
}

func TestDecode_BelowThresholdIsEmpty(t *testing.T) {
	d := newTestDecoder(t, nil)
	output, shape := rawOutput(3, candidate{100, 100, 20, 20, []float32{0.1, 0.4, 0.2}})

	dets, err := d.Decode(output, shape, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	assert.Equal(t, 0, dets.Len())
	assert.Empty(t, dets.Scores)
	assert.Empty(t, dets.ClassIDs)
}

func TestDecode_ThresholdIsInclusive(t *testing.T) {
	d := newTestDecoder(t, nil)
	output, shape := rawOutput(3, candidate{100, 100, 20, 20, []float32{0.5, 0, 0}})

	dets, err := d.Decode(output, shape, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	assert.Equal(t, 1, dets.Len())
}

func TestDecode_PicksBestClassAndRescales(t *testing.T) {
	d := newTestDecoder(t, nil)
	output, shape := rawOutput(3, candidate{320, 320, 64, 32, []float32{0.2, 0.3, 0.9}})

	dets, err := d.Decode(output, shape, image.Point{X: 1280, Y: 320})
	require.NoError(t, err)
	require.Equal(t, 1, dets.Len())

	assert.Equal(t, 2, dets.ClassIDs[0])
	assert.InDelta(t, 0.9, dets.Scores[0], 1e-6)
	// x scaled by 1280/640, y by 320/640.
	assert.Equal(t, images.Rect{X1: 576, Y1: 152, X2: 704, Y2: 168}, dets.Boxes[0])
}

func TestDecode_TransposesAndRescalesPerAxis(t *testing.T) {
	d := newTestDecoder(t, func(c *Config) { c.InputShape = image.Point{X: 20, Y: 20} })

	output, shape := rawOutput(3, candidate{10, 10, 4, 3, []float32{0.9, 0.1, 0.2}})
	dets, err := d.Decode(output, shape, image.Point{X: 40, Y: 20})
	require.NoError(t, err)
	require.Equal(t, 1, dets.Len())
	assert.Equal(t, 0, dets.ClassIDs[0])
	assert.Equal(t, images.Rect{X1: 16, Y1: 8.5, X2: 24, Y2: 11.5}, dets.Boxes[0])

	output, shape = rawOutput(3, candidate{10, 10, 4, 3, []float32{0.4, 0.1, 0.2}})
	dets, err = d.Decode(output, shape, image.Point{X: 40, Y: 20})
	require.NoError(t, err)
	assert.Equal(t, 0, dets.Len())
}

// The transpose goes through gorgonia.org/tensor, whose indirect
// assume-no-moving-gc dependency panics at init on go1.21+ unless it is at
// least the 2023-11 release.
func TestGoMod_NoMovingGCAssertionIsCurrent(t *testing.T) {
	data, err := os.ReadFile("../../go.mod")
	require.NoError(t, err)

	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, "go4.org/unsafe/assume-no-moving-gc") {
			assert.Contains(t, line, "v0.0.0-20231121144256-b99613f794b6")
			return
		}
	}
}

func TestDecode_SuppressesOverlapsPerClassAndKeepsRowOrder(t *testing.T) {
	d := newTestDecoder(t, nil)
	output, shape := rawOutput(3,
		candidate{50, 50, 20, 20, []float32{0, 0.6, 0}},   // class 1, suppressed by row 2
		candidate{300, 300, 40, 40, []float32{0.7, 0, 0}}, // class 0, alone
		candidate{51, 51, 20, 20, []float32{0, 0.95, 0}},  // class 1, best
		candidate{50, 50, 20, 20, []float32{0, 0, 0.8}},   // class 2, same place, other class
		candidate{500, 500, 10, 10, []float32{0.1, 0.1, 0.1}},
	)

	dets, err := d.Decode(output, shape, image.Point{X: 640, Y: 640})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, dets.ClassIDs)
	assert.Equal(t, []float32{0.7, 0.95, 0.8}, dets.Scores)
	assert.Len(t, dets.Boxes, 3)
}

func TestDecode_RelevantClasses(t *testing.T) {
	d := newTestDecoder(t, func(c *Config) { c.RelevantClasses = []int{2} })
	output, shape := rawOutput(3,
		candidate{50, 50, 20, 20, []float32{0.9, 0, 0}},
		candidate{200, 200, 20, 20, []float32{0, 0, 0.8}},
	)

	dets, err := d.Decode(output, shape, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, dets.ClassIDs)
}

func TestDecode_DoesNotMutateOutput(t *testing.T) {
	d := newTestDecoder(t, nil)
	output, shape := rawOutput(3,
		candidate{50, 50, 20, 20, []float32{0.9, 0, 0}},
		candidate{200, 200, 20, 20, []float32{0, 0, 0.8}},
	)
	before := append([]float32(nil), output...)

	_, err := d.Decode(output, shape, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	assert.Equal(t, before, output)
}

func TestDecode_EqualLengths(t *testing.T) {
	d := newTestDecoder(t, func(c *Config) { c.ConfidenceThreshold = 0.1 })

	var cands []candidate
	for i := 0; i < 40; i++ {
		f := float32(i)
		cands = append(cands, candidate{10 + f*7, 10 + f*3, 30, 30, []float32{f / 40, 1 - f/40, 0.3}})
	}
	output, shape := rawOutput(3, cands...)

	dets, err := d.Decode(output, shape, image.Point{X: 640, Y: 384})
	require.NoError(t, err)
	assert.Equal(t, len(dets.Boxes), len(dets.Scores))
	assert.Equal(t, len(dets.Boxes), len(dets.ClassIDs))
	assert.NotZero(t, dets.Len())
}

func TestDecode_ShapeErrors(t *testing.T) {
	d := newTestDecoder(t, nil)
	frame := image.Point{X: 640, Y: 640}
	output, _ := rawOutput(3, candidate{1, 1, 1, 1, []float32{1, 0, 0}})

	tests := []struct {
		name   string
		output []float32
		shape  []int64
	}{
		{"rank one", output, []int64{7}},
		{"batch of two", output, []int64{2, 7, 1}},
		{"data length mismatch", output, []int64{7, 2}},
		{"more classes than configured", make([]float32, 9), []int64{9, 1}},
		{"no class scores", make([]float32, 4), []int64{4, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode(tt.output, tt.shape, frame)
			assert.Error(t, err)
		})
	}

	_, err := d.Decode(output, []int64{7, 1}, image.Point{})
	assert.Error(t, err)
}

func TestDecode_NoCandidates(t *testing.T) {
	d := newTestDecoder(t, nil)
	dets, err := d.Decode(nil, []int64{1, 7, 0}, image.Point{X: 640, Y: 640})
	require.NoError(t, err)
	assert.Equal(t, 0, dets.Len())
}

func TestNewDecoder_RejectsInvalidConfig(t *testing.T) {
	base := Config{
		ConfidenceThreshold: 0.5,
		NMS:                 postprocess.NMSConfig{IoUThreshold: 0.5},
		NumClasses:          80,
		InputShape:          image.Point{X: 640, Y: 384},
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"confidence below zero", func(c *Config) { c.ConfidenceThreshold = -0.1 }},
		{"confidence above one", func(c *Config) { c.ConfidenceThreshold = 1.5 }},
		{"iou above one", func(c *Config) { c.NMS.IoUThreshold = 2 }},
		{"no classes", func(c *Config) { c.NumClasses = 0 }},
		{"zero input", func(c *Config) { c.InputShape = image.Point{} }},
		{"relevant class out of range", func(c *Config) { c.RelevantClasses = []int{80} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base
			tt.mutate(&config)
			_, err := NewDecoder(config)
			assert.Error(t, err)
		})
	}

	_, err := NewDecoder(base)
	assert.NoError(t, err)
}

func TestRawPrediction_BestTieGoesToLowestClass(t *testing.T) {
	classID, confidence := RawPrediction{Scores: []float32{0.3, 0.7, 0.7}}.Best()
	assert.Equal(t, 1, classID)
	assert.Equal(t, float32(0.7), confidence)
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{
		Path:                "yolov8m.onnx",
		InputShape:          image.Point{X: 640, Y: 384},
		NumClasses:          80,
		ConfidenceThreshold: 0.1,
		NMS:                 postprocess.NMSConfig{IoUThreshold: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ModelNameYOLOv8, m.Options().Name)
	assert.Equal(t, "yolov8m.onnx", m.Options().Path)

	output, shape := rawOutput(80, candidate{320, 192, 10, 10, append([]float32{0, 0, 0.9}, make([]float32, 77)...)})
	dets, err := m.PostProcess(output, shape, image.Point{X: 640, Y: 384})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, dets.ClassIDs)
}
