// Package analysis runs the approach heuristics over a normalized capture:
// full-stop detection, speed statistics, peak braking force, and yellow-light
// timing. Analyzers never return errors; missing or unusable sensor data
// yields nil fields. Poor GPS and sensor dropout are expected capture
// conditions, not failures.
package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/autopilot-america/evidence.report/internal/trace"
	"github.com/autopilot-america/evidence.report/internal/units"
)

// StopSpeedConfig tunes the stop/speed heuristics. Zero values fall back to
// the defaults below.
type StopSpeedConfig struct {
	// StopThresholdMps is the max speed counted as "stopped" (~0.5 mph).
	StopThresholdMps float64
	// MinStopDurationMs is the shortest stopped run that counts as a full stop.
	MinStopDurationMs int64
	// AccuracyDivisor maps average GPS horizontal accuracy (m) to a speed
	// uncertainty band (mph).
	AccuracyDivisor float64
	// AccuracyMinMph and AccuracyMaxMph clamp the uncertainty band.
	AccuracyMinMph float64
	AccuracyMaxMph float64
}

// Defaults for StopSpeedConfig.
const (
	DefaultStopThresholdMps  = 0.2235 // ~0.5 mph
	DefaultMinStopDurationMs = 2000
	DefaultAccuracyDivisor   = 3.5
	DefaultAccuracyMinMph    = 1
	DefaultAccuracyMaxMph    = 8
)

func (c StopSpeedConfig) withDefaults() StopSpeedConfig {
	if c.StopThresholdMps == 0 {
		c.StopThresholdMps = DefaultStopThresholdMps
	}
	if c.MinStopDurationMs == 0 {
		c.MinStopDurationMs = DefaultMinStopDurationMs
	}
	if c.AccuracyDivisor == 0 {
		c.AccuracyDivisor = DefaultAccuracyDivisor
	}
	if c.AccuracyMinMph == 0 {
		c.AccuracyMinMph = DefaultAccuracyMinMph
	}
	if c.AccuracyMaxMph == 0 {
		c.AccuracyMaxMph = DefaultAccuracyMaxMph
	}
	return c
}

// StopSpeedResult holds the stop classification and speed statistics for one
// approach. Optional fields are nil when the trace had no qualifying data.
// FullStopDurationSec is non-nil iff FullStopDetected.
type StopSpeedResult struct {
	FullStopDetected          bool
	FullStopDurationSec       *float64
	ApproachSpeedMph          *float64
	MinSpeedMph               *float64
	MaxSpeedMph               *float64
	SpeedDeltaMph             *float64
	HorizontalAccuracyMeters  *float64
	EstimatedSpeedAccuracyMph *float64
}

// AnalyzeStopSpeed scans a timestamp-sorted trace for the longest contiguous
// stopped run and computes speed statistics. The trace must already be
// normalized; out-of-order points silently corrupt run durations.
func AnalyzeStopSpeed(points []trace.TracePoint, cfg StopSpeedConfig) StopSpeedResult {
	cfg = cfg.withDefaults()
	var res StopSpeedResult
	if len(points) == 0 {
		return res
	}

	// Longest stopped run. A run's duration is the span from its first
	// stopped point to its last; a single stopped point has zero duration.
	var maxRunMs int64
	var runStartMs, lastStoppedMs int64
	inRun := false
	for _, p := range points {
		stopped := p.SpeedMps >= 0 && p.SpeedMps <= cfg.StopThresholdMps
		if stopped {
			if !inRun {
				inRun = true
				runStartMs = p.TimestampMs
			}
			lastStoppedMs = p.TimestampMs
			continue
		}
		if inRun {
			if d := lastStoppedMs - runStartMs; d > maxRunMs {
				maxRunMs = d
			}
			inRun = false
		}
	}
	if inRun {
		if d := lastStoppedMs - runStartMs; d > maxRunMs {
			maxRunMs = d
		}
	}
	if maxRunMs >= cfg.MinStopDurationMs {
		res.FullStopDetected = true
		dur := units.Round1(float64(maxRunMs) / 1000)
		res.FullStopDurationSec = &dur
	}

	// Speed statistics over valid (non-negative) speeds only.
	var minMps, maxMps float64
	haveSpeed := false
	for _, p := range points {
		if p.SpeedMps < 0 {
			continue
		}
		if !haveSpeed {
			approach := units.Round1(units.MphFromMps(p.SpeedMps))
			res.ApproachSpeedMph = &approach
			minMps, maxMps = p.SpeedMps, p.SpeedMps
			haveSpeed = true
			continue
		}
		if p.SpeedMps < minMps {
			minMps = p.SpeedMps
		}
		if p.SpeedMps > maxMps {
			maxMps = p.SpeedMps
		}
	}
	if haveSpeed {
		minMph := units.Round1(units.MphFromMps(minMps))
		delta := units.Round1(units.MphFromMps(maxMps) - units.MphFromMps(minMps))
		maxMph := units.Round1(units.MphFromMps(maxMps))
		res.MinSpeedMph = &minMph
		res.MaxSpeedMph = &maxMph
		res.SpeedDeltaMph = &delta
	}

	// GPS accuracy band.
	var acc []float64
	for _, p := range points {
		if p.HorizontalAccuracyMeters != nil {
			acc = append(acc, *p.HorizontalAccuracyMeters)
		}
	}
	if len(acc) > 0 {
		avg := stat.Mean(acc, nil)
		res.HorizontalAccuracyMeters = &avg
		band := units.Round1(units.Clamp(avg/cfg.AccuracyDivisor, cfg.AccuracyMinMph, cfg.AccuracyMaxMph))
		res.EstimatedSpeedAccuracyMph = &band
	}

	return res
}
