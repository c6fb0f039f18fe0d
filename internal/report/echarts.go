package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/autopilot-america/evidence.report/internal/receipt"
	"github.com/autopilot-america/evidence.report/internal/units"
)

// ChartHTML writes an interactive speed-vs-time chart for one receipt as a
// standalone HTML page. This is the in-browser review view; the PDF is the
// filing artifact.
func ChartHTML(w io.Writer, r receipt.Receipt) error {
	if len(r.Trace) == 0 {
		return fmt.Errorf("receipt %s has no trace data", r.ID)
	}

	t0 := r.Trace[0].TimestampMs
	xs := make([]string, 0, len(r.Trace))
	data := make([]opts.LineData, 0, len(r.Trace))
	for _, p := range r.Trace {
		if p.SpeedMps < 0 {
			continue
		}
		xs = append(xs, fmt.Sprintf("%.1f", float64(p.TimestampMs-t0)/1000))
		data = append(data, opts.LineData{Value: units.Round1(units.MphFromMps(p.SpeedMps))})
	}
	if len(data) == 0 {
		return fmt.Errorf("receipt %s has no valid speed samples", r.ID)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Speed During Approach",
			Subtitle: fmt.Sprintf("%s - receipt %s", r.CameraAddress, r.ID),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (mph)"}),
	)
	line.SetXAxis(xs).AddSeries("GPS speed (mph)", data)

	return line.Render(w)
}
