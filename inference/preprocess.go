package inference

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// PrepareInput resizes an image to the model input size and writes it into
// dst as planar RGB floats in [0, 1] (CHW order).
//
// Arguments:
//   - img: The image to prepare.
//   - dst: The destination tensor data, at least 3*size.X*size.Y floats.
//   - size: The model input resolution (width, height).
//
// Returns:
//   - error: An error if the input preparation fails.
func PrepareInput(img image.Image, dst []float32, size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("invalid input size %dx%d", size.X, size.Y)
	}
	channelSize := size.X * size.Y
	if len(dst) < channelSize*3 {
		return fmt.Errorf("destination tensor only holds %d floats, needs %d", len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	if b := img.Bounds(); b.Dx() != size.X || b.Dy() != size.Y {
		img = resize.Resize(uint(size.X), uint(size.Y), img, resize.Bilinear)
	}

	bounds := img.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Min.Y+size.Y; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+size.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
