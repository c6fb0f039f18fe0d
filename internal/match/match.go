// Package match pairs an externally detected ticket with the stored receipt
// most likely to cover it, ranking candidates across time and optional
// location proximity.
package match

import (
	"context"
	"math"
	"sort"

	"github.com/autopilot-america/evidence.report/internal/receipt"
)

// Defaults for Options.
const (
	DefaultMaxTimeDiffMs    = 300000 // 5 minutes
	DefaultLocationRadiusM  = 200
	DefaultLocationBonus    = -1000
	defaultRemoteCandidates = 10
)

// metersPerDegree is the equirectangular approximation used to convert a
// planar degree distance to meters. Fine at city scale.
const metersPerDegree = 111000

// Ticket is the externally supplied violation: a timestamp and an optional
// location.
type Ticket struct {
	TimestampMs int64    `json:"timestamp_ms"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Candidate is an ephemeral (receipt, score) pair. Lower score is better.
type Candidate struct {
	Receipt receipt.Receipt `json:"receipt"`
	Score   float64         `json:"score"`
}

// Options tunes the matcher. Zero values fall back to defaults. The location
// bonus must stay large enough in magnitude to dominate any time-only score
// within the window: a candidate near the ticket location always outranks
// one that is not.
type Options struct {
	MaxTimeDiffMs   int64
	LocationRadiusM float64
	LocationBonus   float64
}

func (o Options) withDefaults() Options {
	if o.MaxTimeDiffMs == 0 {
		o.MaxTimeDiffMs = DefaultMaxTimeDiffMs
	}
	if o.LocationRadiusM == 0 {
		o.LocationRadiusM = DefaultLocationRadiusM
	}
	if o.LocationBonus == 0 {
		o.LocationBonus = DefaultLocationBonus
	}
	return o
}

// Source supplies candidate receipts: the local cache first, with a remote
// window query as fallback. *store.Store satisfies it.
type Source interface {
	Snapshot() []receipt.Receipt
	QueryWindow(ctx context.Context, fromMs, toMs int64, limit int) []receipt.Receipt
}

// FindBest returns the lowest-scoring candidate receipt for the ticket, or
// nil when none qualifies. Score is elapsed seconds between ticket and
// receipt; candidates beyond MaxTimeDiffMs are excluded. When the ticket
// carries a location, receipts within LocationRadiusM receive LocationBonus,
// so a location match dominates any pure time-based ranking. Ties break to
// the first candidate encountered.
func FindBest(ctx context.Context, src Source, ticket Ticket, opts Options) *Candidate {
	opts = opts.withDefaults()

	candidates := src.Snapshot()
	if len(candidates) == 0 {
		candidates = src.QueryWindow(ctx,
			ticket.TimestampMs-opts.MaxTimeDiffMs,
			ticket.TimestampMs+opts.MaxTimeDiffMs,
			defaultRemoteCandidates)
	}
	if len(candidates) == 0 {
		return nil
	}

	var scored []Candidate
	for _, r := range candidates {
		dt := r.DeviceTimestampMs - ticket.TimestampMs
		if dt < 0 {
			dt = -dt
		}
		if dt > opts.MaxTimeDiffMs {
			continue
		}
		score := float64(dt) / 1000

		if ticket.Latitude != nil && ticket.Longitude != nil {
			dLat := r.CameraLatitude - *ticket.Latitude
			dLng := r.CameraLongitude - *ticket.Longitude
			distM := math.Sqrt(dLat*dLat+dLng*dLng) * metersPerDegree
			if distM < opts.LocationRadiusM {
				score += opts.LocationBonus
			}
		}

		scored = append(scored, Candidate{Receipt: r, Score: score})
	}
	if len(scored) == 0 {
		return nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score < scored[j].Score
	})
	best := scored[0]
	return &best
}
