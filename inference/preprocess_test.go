package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareInput_PlanarLayout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{G: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	img.Set(1, 1, color.RGBA{R: 51, G: 102, B: 153, A: 255})

	dst := make([]float32, 12)
	require.NoError(t, PrepareInput(img, dst, image.Point{X: 2, Y: 2}))

	assert.Equal(t, []float32{1, 0, 0, 0.2}, dst[0:4])
	assert.Equal(t, []float32{0, 1, 0, 0.4}, dst[4:8])
	assert.Equal(t, []float32{0, 0, 1, 0.6}, dst[8:12])
}

func TestPrepareInput_Resizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	size := image.Point{X: 16, Y: 8}
	dst := make([]float32, 3*16*8)
	require.NoError(t, PrepareInput(img, dst, size))
	for _, v := range dst {
		assert.InDelta(t, 1.0, v, 1e-6)
	}
}

func TestPrepareInput_Errors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Error(t, PrepareInput(img, make([]float32, 10), image.Point{X: 4, Y: 4}))
	assert.Error(t, PrepareInput(img, make([]float32, 48), image.Point{}))
}
