package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopilot-america/evidence.report/internal/receipt"
	"github.com/autopilot-america/evidence.report/internal/trace"
)

func sampleReceipt(t *testing.T) receipt.Receipt {
	t.Helper()
	acc := 6.3
	posted := 35
	pts := []trace.TracePoint{}
	// 60 points over 60 seconds decelerating into a stop, so the raw-data
	// table must downsample.
	for i := 0; i < 60; i++ {
		speed := 9.0 - float64(i)*0.16
		if speed < 0 {
			speed = 0.05
		}
		pts = append(pts, trace.TracePoint{
			TimestampMs:              1700000000000 + int64(i)*1000,
			Latitude:                 41.9915 - float64(i)*0.00001,
			Longitude:                -87.6898,
			SpeedMps:                 speed,
			HeadingDegrees:           182,
			HorizontalAccuracyMeters: &acc,
		})
	}
	return receipt.Build(receipt.Params{
		CameraAddress:       "Western Ave & Peterson Ave",
		CameraLatitude:      41.990843,
		CameraLongitude:     -87.689778,
		HeadingDegrees:      182,
		DeviceTimestampMs:   1700000000000,
		PostedSpeedLimitMph: &posted,
		Trace:               pts,
		AccelerometerTrace: []trace.AccelerometerSample{
			{TimestampMs: 1700000010000, X: 0.02, Y: -0.1},
			{TimestampMs: 1700000020000, X: 0.1, Y: -0.45},
			{TimestampMs: 1700000030000, X: 0.01, Y: 0.05},
		},
	})
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPDF(&buf, sampleReceipt(t))
	require.NoError(t, err)

	out := buf.Bytes()
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output must be a PDF stream")
}

func TestRenderPDFDeterministic(t *testing.T) {
	r := sampleReceipt(t)

	var a, b bytes.Buffer
	require.NoError(t, RenderPDF(&a, r))
	require.NoError(t, RenderPDF(&b, r))

	// fpdf embeds a CreationDate; layout and content must otherwise match,
	// so identical input yields identical output length.
	assert.Equal(t, a.Len(), b.Len(), "identical receipts must produce identical page layout")
}

func TestRenderPDFWithoutAccelerometer(t *testing.T) {
	r := sampleReceipt(t)
	r.AccelerometerTrace = nil
	r.PeakDecelerationG = nil

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, r))
	assert.NotEmpty(t, buf.Bytes())
}

func TestRenderPDFMalformedReceipt(t *testing.T) {
	var buf bytes.Buffer

	err := RenderPDF(&buf, receipt.Receipt{})
	require.Error(t, err, "missing id must surface an error")

	noTrace := receipt.Receipt{ID: "1700000000000-41.99084--87.68978"}
	err = RenderPDF(&buf, noTrace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trace data")
}

func TestFilename(t *testing.T) {
	r := receipt.Receipt{ID: "1700000000000-41.99084--87.68978"}
	got := Filename(r)
	assert.Equal(t, "evidence-1700000000000-41.99084--87.68978.pdf", got)
	assert.False(t, strings.ContainsAny(got, " /\\"), "filename must be path-safe")
}

func TestChartHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ChartHTML(&buf, sampleReceipt(t)))
	html := buf.String()
	assert.Contains(t, html, "Speed During Approach")

	var empty bytes.Buffer
	err := ChartHTML(&empty, receipt.Receipt{ID: "x"})
	require.Error(t, err)
}
