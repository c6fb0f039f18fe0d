package receipt

import (
	"fmt"
	"time"

	"github.com/autopilot-america/evidence.report/internal/analysis"
	"github.com/autopilot-america/evidence.report/internal/trace"
)

// Params carries the caller-supplied capture metadata and raw traces for one
// approach session.
type Params struct {
	CameraAddress   string  `json:"camera_address"`
	CameraLatitude  float64 `json:"camera_latitude"`
	CameraLongitude float64 `json:"camera_longitude"`
	HeadingDegrees  float64 `json:"heading_degrees"`

	Trace              []trace.TracePoint          `json:"trace"`
	AccelerometerTrace []trace.AccelerometerSample `json:"accelerometer_trace,omitempty"`

	// DeviceTimestampMs defaults to the current time when zero.
	DeviceTimestampMs   int64 `json:"device_timestamp_ms,omitempty"`
	PostedSpeedLimitMph *int  `json:"posted_speed_limit_mph,omitempty"`

	// Stop overrides the stop/speed heuristics; zero values use defaults.
	Stop analysis.StopSpeedConfig `json:"-"`
}

// Build normalizes the raw traces, runs the analyzers, and composes one
// Receipt. Pure construction: persistence is the store's job.
func Build(p Params) Receipt {
	ts := p.DeviceTimestampMs
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	pts := trace.Normalize(p.Trace)
	accel := trace.NormalizeAccel(p.AccelerometerTrace)
	if len(accel) == 0 {
		// An absent accelerometer trace stays nil: the field is omitted from
		// the JSON encoding when empty, so an empty slice would come back nil
		// after a store round-trip and the receipts would no longer compare
		// equal.
		accel = nil
	}

	stop := analysis.AnalyzeStopSpeed(pts, p.Stop)
	peak := analysis.AnalyzeBraking(accel)

	posted := analysis.DefaultPostedSpeedMph
	if p.PostedSpeedLimitMph != nil {
		posted = *p.PostedSpeedLimitMph
	}

	r := Receipt{
		ID:                fmt.Sprintf("%d-%.5f-%.5f", ts, p.CameraLatitude, p.CameraLongitude),
		DeviceTimestampMs: ts,
		CameraAddress:     p.CameraAddress,
		CameraLatitude:    p.CameraLatitude,
		CameraLongitude:   p.CameraLongitude,
		IntersectionID:    fmt.Sprintf("%.4f,%.4f", p.CameraLatitude, p.CameraLongitude),
		HeadingDegrees:    p.HeadingDegrees,

		ApproachSpeedMph:          stop.ApproachSpeedMph,
		MinSpeedMph:               stop.MinSpeedMph,
		SpeedDeltaMph:             stop.SpeedDeltaMph,
		FullStopDetected:          stop.FullStopDetected,
		FullStopDurationSec:       stop.FullStopDurationSec,
		HorizontalAccuracyMeters:  stop.HorizontalAccuracyMeters,
		EstimatedSpeedAccuracyMph: stop.EstimatedSpeedAccuracyMph,

		Trace:              pts,
		AccelerometerTrace: accel,
		PeakDecelerationG:  peak,

		ExpectedYellowDurationSec: analysis.ExpectedYellowDuration(p.PostedSpeedLimitMph),
		PostedSpeedLimitMph:       posted,
	}

	return r
}
