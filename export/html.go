package export

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-linecount/crossing"
)

// RenderHTML writes an interactive report with the event timeline and the
// direction totals.
//
// Arguments:
//   - w: The destination.
//   - events: The events, in emission order.
//   - counters: The final counters.
//
// Returns:
//   - error: If rendering fails.
func RenderHTML(w io.Writer, events []crossing.CrossingEvent, counters crossing.Counters) error {
	names := make([]string, 0, len(crossing.Directions()))
	for _, d := range crossing.Directions() {
		names = append(names, d.String())
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Line crossings", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Crossings over time", Subtitle: "seconds since first frame"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: names, Name: "Direction"}),
	)

	var origin float64
	if len(events) > 0 {
		origin = float64(events[0].Timestamp.UnixNano()) / 1e9
	}
	for _, d := range crossing.Directions() {
		var data []opts.ScatterData
		for _, e := range events {
			if e.Direction != d {
				continue
			}
			t := float64(e.Timestamp.UnixNano())/1e9 - origin
			data = append(data, opts.ScatterData{Value: []interface{}{t, d.String()}, Name: "track " + strconv.Itoa(e.TrackID)})
		}
		if len(data) > 0 {
			scatter.AddSeries(d.String(), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
		}
	}

	dirs := counters.Enabled()
	x := make([]string, len(dirs))
	y := make([]opts.BarData, len(dirs))
	for i, d := range dirs {
		x[i] = d.String()
		y[i] = opts.BarData{Value: counters.Get(d)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Total count per direction"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("count", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.PageTitle = "Line crossing report"
	page.AddCharts(scatter, bar)
	return errors.Wrap(page.Render(w), "render report")
}
