package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/autopilot-america/evidence.report/internal/analysis"
	"github.com/autopilot-america/evidence.report/internal/receipt"
	"github.com/autopilot-america/evidence.report/internal/units"
)

// Page geometry in mm (Letter).
const (
	marginLeft   = 15.0
	marginTop    = 15.0
	contentWidth = 185.9
	// breakY is the vertical cursor threshold past which a new page starts.
	breakY = 260.0
)

// Filename returns the download filename for a receipt's evidence document.
func Filename(r receipt.Receipt) string {
	return fmt.Sprintf("evidence-%s.pdf", r.ID)
}

// RenderPDF renders one receipt into a paginated evidence PDF written to w.
// Identical receipts produce identical page layouts, so the output is
// suitable for golden-file comparison. A malformed receipt is an error: this
// is the one pipeline path that surfaces failures to the caller.
func RenderPDF(w io.Writer, r receipt.Receipt) error {
	if r.ID == "" {
		return fmt.Errorf("malformed receipt: missing id")
	}
	if len(r.Trace) == 0 {
		return fmt.Errorf("malformed receipt %s: no trace data", r.ID)
	}

	speedPNG, err := speedChartPNG(r)
	if err != nil {
		return fmt.Errorf("speed chart: %w", err)
	}
	gforcePNG, err := gforceChartPNG(r)
	if err != nil {
		return fmt.Errorf("g-force chart: %w", err)
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle("Red-Light Camera Evidence Receipt", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.AddPage()

	writeHeader(pdf, r)
	writeIntersectionDetails(pdf, r)
	writeBehaviorSummary(pdf, r)
	writeChart(pdf, "speed", speedPNG)
	if gforcePNG != nil {
		writeChart(pdf, "gforce", gforcePNG)
	}
	writeYellowComparison(pdf, r)
	writeRawDataTable(pdf, r)
	writeFooter(pdf)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render evidence document for %s: %w", r.ID, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write evidence document for %s: %w", r.ID, err)
	}
	return nil
}

// ensureSpace starts a new page when fewer than needed mm remain before the
// break threshold. Returns true when a page break happened.
func ensureSpace(pdf *fpdf.Fpdf, needed float64) bool {
	if pdf.GetY()+needed > breakY {
		pdf.AddPage()
		return true
	}
	return false
}

func writeHeader(pdf *fpdf.Fpdf, r receipt.Receipt) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 9, "Red-Light Camera Evidence Receipt", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	captured := time.UnixMilli(r.DeviceTimestampMs).UTC().Format("2006-01-02 15:04:05 MST")
	pdf.CellFormat(contentWidth, 5, fmt.Sprintf("Receipt ID: %s", r.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 5, fmt.Sprintf("Captured: %s", captured), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	ensureSpace(pdf, 20)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func kvRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(60, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentWidth-60, 6, value, "", 1, "L", false, 0, "")
}

func fmtOpt(v *float64, unit string) string {
	if v == nil {
		return "not available"
	}
	return fmt.Sprintf("%.1f %s", *v, unit)
}

func writeIntersectionDetails(pdf *fpdf.Fpdf, r receipt.Receipt) {
	sectionTitle(pdf, "Intersection")
	kvRow(pdf, "Camera location", r.CameraAddress)
	kvRow(pdf, "Coordinates", fmt.Sprintf("%.5f, %.5f", r.CameraLatitude, r.CameraLongitude))
	kvRow(pdf, "Intersection grid", r.IntersectionID)
	kvRow(pdf, "Approach heading", fmt.Sprintf("%.0f deg", r.HeadingDegrees))
	kvRow(pdf, "Posted speed limit", fmt.Sprintf("%d mph", r.PostedSpeedLimitMph))
	pdf.Ln(3)
}

func writeBehaviorSummary(pdf *fpdf.Fpdf, r receipt.Receipt) {
	sectionTitle(pdf, "Driving Behavior Summary")

	ensureSpace(pdf, 48)
	top := pdf.GetY()
	pdf.SetFillColor(245, 247, 250)
	pdf.SetDrawColor(180, 180, 180)
	pdf.Rect(marginLeft, top, contentWidth, 44, "FD")
	pdf.SetY(top + 2)
	pdf.SetX(marginLeft + 3)

	stop := "NO"
	if r.FullStopDetected {
		stop = "YES"
		if r.FullStopDurationSec != nil {
			stop = fmt.Sprintf("YES (%.1f s)", *r.FullStopDurationSec)
		}
	}
	rows := []struct{ label, value string }{
		{"Full stop detected", stop},
		{"Approach speed", fmtOpt(r.ApproachSpeedMph, "mph")},
		{"Minimum speed", fmtOpt(r.MinSpeedMph, "mph")},
		{"Speed reduction", fmtOpt(r.SpeedDeltaMph, "mph")},
		{"GPS speed uncertainty", fmtOpt(r.EstimatedSpeedAccuracyMph, "mph")},
	}
	if r.PeakDecelerationG != nil {
		rows = append(rows, struct{ label, value string }{
			"Peak deceleration", fmt.Sprintf("%.3f G", *r.PeakDecelerationG),
		})
	}
	for _, row := range rows {
		pdf.SetX(marginLeft + 3)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(60, 6.5, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentWidth-66, 6.5, row.value, "", 1, "L", false, 0, "")
	}
	pdf.SetY(top + 46)
}

func writeChart(pdf *fpdf.Fpdf, name string, png []byte) {
	const chartHeightMM = 72.0
	ensureSpace(pdf, chartHeightMM+4)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, marginLeft, pdf.GetY(), contentWidth, 0, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + chartHeightMM + 4)
}

func writeYellowComparison(pdf *fpdf.Fpdf, r receipt.Receipt) {
	sectionTitle(pdf, "Yellow-Light Timing")

	ensureSpace(pdf, 30)
	top := pdf.GetY()
	pdf.SetFillColor(252, 248, 227)
	pdf.SetDrawColor(180, 180, 180)
	pdf.Rect(marginLeft, top, contentWidth, 24, "FD")
	pdf.SetY(top + 2)

	recommended := analysis.RecommendedYellowDuration(r.PostedSpeedLimitMph)
	rows := []struct{ label, value string }{
		{"Jurisdiction minimum yellow", fmt.Sprintf("%.1f s at %d mph", r.ExpectedYellowDurationSec, r.PostedSpeedLimitMph)},
		{"ITE recommended yellow", fmt.Sprintf("%.1f s (1.0 s reaction + v/2a at 10 ft/s2)", recommended)},
	}
	for _, row := range rows {
		pdf.SetX(marginLeft + 3)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(60, 6.5, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentWidth-66, 6.5, row.value, "", 1, "L", false, 0, "")
	}
	pdf.SetY(top + 26)
}

// Raw table column widths, mm.
var tableCols = []struct {
	title string
	width float64
}{
	{"Time (UTC)", 36},
	{"Latitude", 34},
	{"Longitude", 34},
	{"Speed (mph)", 30},
	{"Accuracy (m)", 30},
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 233, 238)
	for _, col := range tableCols {
		pdf.CellFormat(col.width, 6, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func writeRawDataTable(pdf *fpdf.Fpdf, r receipt.Receipt) {
	sectionTitle(pdf, fmt.Sprintf("GPS Samples (%d of %d shown)", len(SampleTrace(r.Trace, maxTableRows)), len(r.Trace)))

	writeTableHeader(pdf)
	for _, p := range SampleTrace(r.Trace, maxTableRows) {
		if ensureSpace(pdf, 6) {
			// Header row reprinted after each page break.
			writeTableHeader(pdf)
		}

		speed := "invalid"
		if p.SpeedMps >= 0 {
			speed = fmt.Sprintf("%.1f", units.MphFromMps(p.SpeedMps))
		}
		accuracy := "-"
		if p.HorizontalAccuracyMeters != nil {
			accuracy = fmt.Sprintf("%.1f", *p.HorizontalAccuracyMeters)
		}

		pdf.CellFormat(tableCols[0].width, 6, time.UnixMilli(p.TimestampMs).UTC().Format("15:04:05.000"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(tableCols[1].width, 6, fmt.Sprintf("%.6f", p.Latitude), "1", 0, "L", false, 0, "")
		pdf.CellFormat(tableCols[2].width, 6, fmt.Sprintf("%.6f", p.Longitude), "1", 0, "L", false, 0, "")
		pdf.CellFormat(tableCols[3].width, 6, speed, "1", 0, "R", false, 0, "")
		pdf.CellFormat(tableCols[4].width, 6, accuracy, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(3)
}

func writeFooter(pdf *fpdf.Fpdf) {
	ensureSpace(pdf, 16)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(contentWidth, 4,
		"This document was generated automatically from GPS and motion-sensor data "+
			"captured on the driver's device during the approach. Speed values are derived "+
			"from GPS and carry the uncertainty band stated above. Timestamps are device "+
			"clock, UTC.", "", "L", false)
	pdf.SetTextColor(0, 0, 0)
}
