package annotate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-linecount/controller"
	"github.com/nvr-ai/go-linecount/crossing"
	"github.com/nvr-ai/go-linecount/images"
	"github.com/nvr-ai/go-linecount/tracking"
)

func TestBoxColor(t *testing.T) {
	assert.Equal(t, PerpendicularColor, BoxColor(nil))
	assert.Equal(t, HorizontalColor, BoxColor([]crossing.Crossing{{Axis: crossing.AxisHorizontal}}))
	assert.Equal(t, PerpendicularColor, BoxColor([]crossing.Crossing{
		{Axis: crossing.AxisHorizontal},
		{Axis: crossing.AxisPerpendicular},
	}))
}

func TestCounterText(t *testing.T) {
	d, err := crossing.NewDetector([]crossing.ReferenceLine{crossing.NewHorizontalLine(240, 640)}, crossing.DetectorOptions{})
	require.NoError(t, err)
	d.Observe(1, images.Point{Y: 230})
	d.EndFrame()
	d.Observe(1, images.Point{Y: 250})

	assert.Equal(t, []string{"Up: 0 Down: 1", "Left: 0 Right: 0"}, CounterText(d.Counters()))
}

func TestClockText(t *testing.T) {
	ts := crossing.DefaultStart.Add(33333 * time.Microsecond)
	assert.Equal(t, "2024-02-19 13:50:00.033", ClockText(ts))
}

func TestOverlay_Annotate(t *testing.T) {
	mat := gocv.NewMatWithSize(384, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()

	o := &Overlay{
		Target: &mat,
		Lines:  []crossing.ReferenceLine{crossing.NewHorizontalLine(240, 640)},
	}
	result := controller.FrameResult{
		Timestamp: crossing.DefaultStart,
		Tracks: []controller.TrackState{{
			Box: tracking.TrackedBox{TrackID: 1, Box: images.Rect{X1: 100, Y1: 100, X2: 140, Y2: 130}},
		}},
	}
	require.NoError(t, o.Annotate(controller.Frame{}, result))

	// The horizontal line is drawn in green across the frame.
	px := mat.GetVecbAt(240, 320)
	assert.Equal(t, uint8(255), px[1])

	empty := &Overlay{}
	assert.Error(t, empty.Annotate(controller.Frame{}, result))
}
