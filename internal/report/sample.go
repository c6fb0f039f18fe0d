// Package report renders one receipt into a paginated evidence document:
// header, behavior summary, speed and G-force charts, yellow-light timing
// comparison, and a sampled raw-trace table. Rendering is the one path in
// the pipeline that surfaces errors: a corrupt document is worse than none.
package report

import (
	"math"

	"github.com/autopilot-america/evidence.report/internal/trace"
)

// maxTableRows bounds the raw-data table in the rendered document.
const maxTableRows = 30

// SampleTrace deterministically downsamples points to at most count entries,
// always keeping the first and last points and evenly spacing the indices in
// between. Traces at or under count are returned as an unchanged copy. Same
// input, same output: the evidence document must be reproducible.
func SampleTrace(points []trace.TracePoint, count int) []trace.TracePoint {
	n := len(points)
	if n == 0 || count <= 0 {
		return []trace.TracePoint{}
	}
	if n <= count {
		out := make([]trace.TracePoint, n)
		copy(out, points)
		return out
	}

	out := make([]trace.TracePoint, 0, count)
	step := float64(n-1) / float64(count-1)
	for i := 0; i < count; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx > n-1 {
			idx = n - 1
		}
		out = append(out, points[idx])
	}
	return out
}
