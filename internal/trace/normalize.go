package trace

import "sort"

// Normalize returns a copy of points sorted ascending by timestamp. The
// input slice is never mutated. Duplicate timestamps keep their original
// relative order so repeated samples from the sensor layer stay stable.
// Stop-duration detection depends on consecutive-in-time scanning, so every
// analyzer must run over a normalized trace.
func Normalize(points []TracePoint) []TracePoint {
	if len(points) == 0 {
		return []TracePoint{}
	}
	out := make([]TracePoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out
}

// NormalizeAccel returns a copy of samples sorted ascending by timestamp,
// with the same stability and no-mutation guarantees as Normalize.
func NormalizeAccel(samples []AccelerometerSample) []AccelerometerSample {
	if len(samples) == 0 {
		return []AccelerometerSample{}
	}
	out := make([]AccelerometerSample, len(samples))
	copy(out, samples)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out
}
