package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/autopilot-america/evidence.report/internal/receipt"
	"github.com/autopilot-america/evidence.report/internal/units"
)

// stopThresholdMph is the dashed reference line on the speed chart marking
// the "stopped" classification boundary.
const stopThresholdMph = 0.5

// Chart raster dimensions. The charts are rasterized once and embedded in
// the PDF page.
const (
	chartWidth  = 6.2 * vg.Inch
	chartHeight = 2.6 * vg.Inch
)

var (
	speedLineColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	gforceLineColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	refLineColor    = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// speedChartPNG renders the speed-vs-time line chart for a receipt and
// returns it as PNG bytes.
func speedChartPNG(r receipt.Receipt) ([]byte, error) {
	if len(r.Trace) == 0 {
		return nil, fmt.Errorf("no trace points to chart")
	}

	t0 := r.Trace[0].TimestampMs
	pts := make(plotter.XYs, 0, len(r.Trace))
	maxMph := 0.0
	for _, p := range r.Trace {
		if p.SpeedMps < 0 {
			continue
		}
		mph := units.MphFromMps(p.SpeedMps)
		if mph > maxMph {
			maxMph = mph
		}
		pts = append(pts, plotter.XY{X: float64(p.TimestampMs-t0) / 1000, Y: mph})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no valid speed samples to chart")
	}

	p := plot.New()
	p.Title.Text = "Speed During Approach"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Speed (mph)"
	p.Y.Min = 0
	p.Y.Max = math.Max(5, maxMph) * 1.15

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build speed line: %w", err)
	}
	line.Color = speedLineColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("GPS speed", line)

	// Dashed reference line at the stop classification threshold.
	xMax := pts[len(pts)-1].X
	ref, err := plotter.NewLine(plotter.XYs{{X: 0, Y: stopThresholdMph}, {X: xMax, Y: stopThresholdMph}})
	if err != nil {
		return nil, fmt.Errorf("failed to build reference line: %w", err)
	}
	ref.Color = refLineColor
	ref.Width = vg.Points(1)
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(ref)
	p.Legend.Add("stop threshold (0.5 mph)", ref)
	p.Legend.Top = true

	return renderPNG(p)
}

// gforceChartPNG renders the G-force-vs-time chart, or returns nil bytes
// when the receipt has no accelerometer trace.
func gforceChartPNG(r receipt.Receipt) ([]byte, error) {
	if len(r.AccelerometerTrace) == 0 {
		return nil, nil
	}

	t0 := r.AccelerometerTrace[0].TimestampMs
	pts := make(plotter.XYs, 0, len(r.AccelerometerTrace))
	maxAbs := 0.0
	for _, s := range r.AccelerometerTrace {
		h := math.Sqrt(s.X*s.X + s.Y*s.Y)
		g := h
		if s.Y < 0 {
			g = -h
		}
		if math.Abs(g) > maxAbs {
			maxAbs = math.Abs(g)
		}
		pts = append(pts, plotter.XY{X: float64(s.TimestampMs-t0) / 1000, Y: g})
	}

	// Symmetric scale around zero, the accelerate/brake boundary.
	lim := math.Max(0.5, maxAbs) * 1.2

	p := plot.New()
	p.Title.Text = "Horizontal G-Force During Approach"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "G-force (negative = braking)"
	p.Y.Min = -lim
	p.Y.Max = lim

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build g-force line: %w", err)
	}
	line.Color = gforceLineColor
	line.Width = vg.Points(1.5)
	p.Add(line)

	xMax := pts[len(pts)-1].X
	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: xMax, Y: 0}})
	if err != nil {
		return nil, fmt.Errorf("failed to build zero line: %w", err)
	}
	zero.Color = refLineColor
	zero.Width = vg.Points(1)
	p.Add(zero)

	return renderPNG(p)
}

func renderPNG(p *plot.Plot) ([]byte, error) {
	c := vgimg.New(chartWidth, chartHeight)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
