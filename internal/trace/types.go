// Package trace defines the raw sensor sample types captured by the mobile
// client during one camera approach, and the normalizer that orders them.
package trace

// InvalidSpeed is the sentinel reported by the GPS layer when no speed fix
// was available for a sample. Negative speeds are excluded from speed
// statistics but still scanned during stop detection.
const InvalidSpeed = -1.0

// TracePoint is one GPS sample. Immutable once captured.
type TracePoint struct {
	TimestampMs              int64    `json:"timestamp_ms"`
	Latitude                 float64  `json:"latitude"`
	Longitude                float64  `json:"longitude"`
	SpeedMps                 float64  `json:"speed_mps"`
	HeadingDegrees           float64  `json:"heading_degrees"`
	HorizontalAccuracyMeters *float64 `json:"horizontal_accuracy_m,omitempty"`
}

// AccelerometerSample is one motion sample with gravity removed from the
// user-acceleration vector. Units are G. With the device phone-mounted face
// up, negative Y is deceleration along the direction of travel.
type AccelerometerSample struct {
	TimestampMs int64   `json:"timestamp_ms"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	GravityX    float64 `json:"gx"`
	GravityY    float64 `json:"gy"`
	GravityZ    float64 `json:"gz"`
}
