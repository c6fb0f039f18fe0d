package analysis

import "github.com/autopilot-america/evidence.report/internal/units"

// DefaultPostedSpeedMph is assumed when the camera site has no posted speed
// limit on record.
const DefaultPostedSpeedMph = 30

// iteDecelerationFps2 is the deceleration rate assumed by the ITE
// yellow-interval formula, in ft/s².
const iteDecelerationFps2 = 10

// ExpectedYellowDuration returns the jurisdiction's mandated minimum yellow
// duration in seconds for the posted speed limit. A nil posted speed uses
// DefaultPostedSpeedMph.
func ExpectedYellowDuration(postedMph *int) float64 {
	posted := DefaultPostedSpeedMph
	if postedMph != nil {
		posted = *postedMph
	}
	if posted <= 30 {
		return 3.0
	}
	return 4.0
}

// RecommendedYellowDuration returns the ITE engineering-recommended yellow
// duration in seconds for the posted speed limit, rounded to 1 decimal:
// 1.0s reaction time plus v/(2a) at an assumed 10 ft/s² deceleration.
func RecommendedYellowDuration(postedMph int) float64 {
	vFps := units.FpsFromMph(float64(postedMph))
	return units.Round1(1.0 + vFps/(2*iteDecelerationFps2))
}
