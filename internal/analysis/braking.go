package analysis

import (
	"math"

	"github.com/autopilot-america/evidence.report/internal/trace"
	"github.com/autopilot-america/evidence.report/internal/units"
)

// AnalyzeBraking returns the peak horizontal G-force over the accelerometer
// trace, signed by the orientation of the single largest-magnitude sample:
// negative when that sample's Y was negative (braking), positive otherwise
// (accelerating). This is one global extremum, not independent positive and
// negative maxima. Returns nil for an empty trace.
func AnalyzeBraking(samples []trace.AccelerometerSample) *float64 {
	if len(samples) == 0 {
		return nil
	}

	var peakMag, peak float64
	for _, s := range samples {
		h := math.Sqrt(s.X*s.X + s.Y*s.Y)
		if h > peakMag {
			peakMag = h
			if s.Y < 0 {
				peak = -h
			} else {
				peak = h
			}
		}
	}

	out := units.Round3(peak)
	return &out
}
