// Package receipt defines the immutable evidence record for one red-light
// camera approach and the builder that assembles it from raw capture data.
package receipt

import (
	"github.com/autopilot-america/evidence.report/internal/trace"
)

// Receipt is the evidence artifact for one approach. It is created once at
// end-of-capture and never mutated; the store treats it as append-only.
// Invariants: Trace is sorted ascending by timestamp, FullStopDurationSec is
// non-nil iff FullStopDetected, and ID is assigned at creation.
type Receipt struct {
	// ID is derived from the capture timestamp and the 5-decimal camera
	// coordinates. Human-readable and collision-tolerant, not collision-free:
	// capture sessions are human-paced and seconds apart.
	ID                string  `json:"id"`
	DeviceTimestampMs int64   `json:"device_timestamp_ms"`
	CameraAddress     string  `json:"camera_address"`
	CameraLatitude    float64 `json:"camera_latitude"`
	CameraLongitude   float64 `json:"camera_longitude"`
	// IntersectionID groups receipts on a ~11m grid (coordinates rounded to
	// 4 decimals). Coarse grouping only, never a uniqueness key.
	IntersectionID string  `json:"intersection_id"`
	HeadingDegrees float64 `json:"heading_degrees"`

	ApproachSpeedMph          *float64 `json:"approach_speed_mph,omitempty"`
	MinSpeedMph               *float64 `json:"min_speed_mph,omitempty"`
	SpeedDeltaMph             *float64 `json:"speed_delta_mph,omitempty"`
	FullStopDetected          bool     `json:"full_stop_detected"`
	FullStopDurationSec       *float64 `json:"full_stop_duration_sec,omitempty"`
	HorizontalAccuracyMeters  *float64 `json:"horizontal_accuracy_m,omitempty"`
	EstimatedSpeedAccuracyMph *float64 `json:"estimated_speed_accuracy_mph,omitempty"`

	Trace              []trace.TracePoint          `json:"trace"`
	AccelerometerTrace []trace.AccelerometerSample `json:"accelerometer_trace,omitempty"`
	PeakDecelerationG  *float64                    `json:"peak_deceleration_g,omitempty"`

	ExpectedYellowDurationSec float64 `json:"expected_yellow_duration_sec"`
	PostedSpeedLimitMph       int     `json:"posted_speed_limit_mph"`
}
