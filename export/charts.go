package export

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/nvr-ai/go-linecount/crossing"
)

// directionTicks labels the y axis of the timeline with direction names.
func directionTicks() plot.ConstantTicks {
	var ticks []plot.Tick
	for _, d := range crossing.Directions() {
		ticks = append(ticks, plot.Tick{Value: float64(d), Label: d.String()})
	}
	return ticks
}

// Timeline builds a scatter plot of events over time, one series per
// direction.
func Timeline(events []crossing.CrossingEvent) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Number of Cars Passing in Each Direction Over Time"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Direction"
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04:05"}
	p.Y.Tick.Marker = directionTicks()
	p.Y.Min, p.Y.Max = -0.5, float64(len(crossing.Directions()))-0.5

	for i, d := range crossing.Directions() {
		var pts plotter.XYs
		for _, e := range events {
			if e.Direction != d {
				continue
			}
			ts := float64(e.Timestamp.UnixNano()) / 1e9
			pts = append(pts, plotter.XY{X: ts, Y: float64(d)})
		}
		if len(pts) == 0 {
			continue
		}

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "scatter %s", d)
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(d.String(), s)
	}
	return p, nil
}

// Totals builds a bar chart of the configured direction counters.
func Totals(counters crossing.Counters) (*plot.Plot, error) {
	dirs := counters.Enabled()
	if len(dirs) == 0 {
		return nil, errors.New("no directions to plot")
	}

	values := make(plotter.Values, len(dirs))
	names := make([]string, len(dirs))
	for i, d := range dirs {
		values[i] = float64(counters.Get(d))
		names[i] = d.String()
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, errors.Wrap(err, "bar chart")
	}
	bars.Color = plotutil.Color(0)

	p := plot.New()
	p.Title.Text = "Total Count of Cars in Each Direction"
	p.X.Label.Text = "Direction"
	p.Y.Label.Text = "Count"
	p.Y.Min = 0
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// RenderTimeline saves the event timeline as an image. The format follows
// the file extension (png, svg, pdf, ...).
func RenderTimeline(events []crossing.CrossingEvent, path string) error {
	p, err := Timeline(events)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Save(10*vg.Inch, 6*vg.Inch, path), "save timeline")
}

// RenderTotals saves the counter bar chart as an image.
func RenderTotals(counters crossing.Counters, path string) error {
	p, err := Totals(counters)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Save(8*vg.Inch, 5*vg.Inch, path), "save totals")
}
