// Package config loads the tuning parameters for the evidence pipeline.
// Fields omitted from the JSON file keep their defaults, so partial configs
// are safe; the Get* accessors supply the fallback values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/autopilot-america/evidence.report/internal/analysis"
	"github.com/autopilot-america/evidence.report/internal/match"
	"github.com/autopilot-america/evidence.report/internal/store"
)

// Tuning is the root configuration. The schema matches the /api/config
// endpoint so the same JSON serves startup configuration and inspection.
type Tuning struct {
	// Stop & speed analyzer
	StopThresholdMps  *float64 `json:"stop_threshold_mps,omitempty"`
	MinStopDurationMs *int64   `json:"min_stop_duration_ms,omitempty"`
	AccuracyDivisor   *float64 `json:"accuracy_divisor,omitempty"`
	AccuracyMinMph    *float64 `json:"accuracy_min_mph,omitempty"`
	AccuracyMaxMph    *float64 `json:"accuracy_max_mph,omitempty"`

	// Store
	RetentionCap  *int    `json:"retention_cap,omitempty"`
	RemoteTimeout *string `json:"remote_timeout,omitempty"` // duration string like "5s"

	// Matcher
	MatchMaxTimeDiffMs   *int64   `json:"match_max_time_diff_ms,omitempty"`
	MatchLocationRadiusM *float64 `json:"match_location_radius_m,omitempty"`
	MatchLocationBonus   *float64 `json:"match_location_bonus,omitempty"`

	// Rendering
	RenderTimeout *string `json:"render_timeout,omitempty"` // duration string like "10s"
}

// EmptyTuning returns a Tuning with all fields unset; every accessor falls
// back to its default.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The path must have a .json
// extension and be under 1MB.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Tuning) Validate() error {
	if c.StopThresholdMps != nil && *c.StopThresholdMps <= 0 {
		return fmt.Errorf("stop_threshold_mps must be positive, got %f", *c.StopThresholdMps)
	}
	if c.MinStopDurationMs != nil && *c.MinStopDurationMs <= 0 {
		return fmt.Errorf("min_stop_duration_ms must be positive, got %d", *c.MinStopDurationMs)
	}
	if c.RetentionCap != nil && *c.RetentionCap <= 0 {
		return fmt.Errorf("retention_cap must be positive, got %d", *c.RetentionCap)
	}
	if c.MatchMaxTimeDiffMs != nil && *c.MatchMaxTimeDiffMs <= 0 {
		return fmt.Errorf("match_max_time_diff_ms must be positive, got %d", *c.MatchMaxTimeDiffMs)
	}
	if c.MatchLocationRadiusM != nil && *c.MatchLocationRadiusM <= 0 {
		return fmt.Errorf("match_location_radius_m must be positive, got %f", *c.MatchLocationRadiusM)
	}
	// The bonus must stay negative so a location match always improves
	// (lowers) the score.
	if c.MatchLocationBonus != nil && *c.MatchLocationBonus >= 0 {
		return fmt.Errorf("match_location_bonus must be negative, got %f", *c.MatchLocationBonus)
	}
	if c.RemoteTimeout != nil && *c.RemoteTimeout != "" {
		if _, err := time.ParseDuration(*c.RemoteTimeout); err != nil {
			return fmt.Errorf("invalid remote_timeout %q: %w", *c.RemoteTimeout, err)
		}
	}
	if c.RenderTimeout != nil && *c.RenderTimeout != "" {
		if _, err := time.ParseDuration(*c.RenderTimeout); err != nil {
			return fmt.Errorf("invalid render_timeout %q: %w", *c.RenderTimeout, err)
		}
	}
	return nil
}

// StopSpeedConfig assembles the analyzer configuration from the tuning values.
func (c *Tuning) StopSpeedConfig() analysis.StopSpeedConfig {
	return analysis.StopSpeedConfig{
		StopThresholdMps:  c.GetStopThresholdMps(),
		MinStopDurationMs: c.GetMinStopDurationMs(),
		AccuracyDivisor:   c.GetAccuracyDivisor(),
		AccuracyMinMph:    c.GetAccuracyMinMph(),
		AccuracyMaxMph:    c.GetAccuracyMaxMph(),
	}
}

// MatchOptions assembles the matcher options from the tuning values.
func (c *Tuning) MatchOptions() match.Options {
	return match.Options{
		MaxTimeDiffMs:   c.GetMatchMaxTimeDiffMs(),
		LocationRadiusM: c.GetMatchLocationRadiusM(),
		LocationBonus:   c.GetMatchLocationBonus(),
	}
}

// GetStopThresholdMps returns the stop classification threshold or the default.
func (c *Tuning) GetStopThresholdMps() float64 {
	if c.StopThresholdMps == nil {
		return analysis.DefaultStopThresholdMps
	}
	return *c.StopThresholdMps
}

// GetMinStopDurationMs returns the minimum full-stop duration or the default.
func (c *Tuning) GetMinStopDurationMs() int64 {
	if c.MinStopDurationMs == nil {
		return analysis.DefaultMinStopDurationMs
	}
	return *c.MinStopDurationMs
}

// GetAccuracyDivisor returns the accuracy-to-uncertainty divisor or the default.
func (c *Tuning) GetAccuracyDivisor() float64 {
	if c.AccuracyDivisor == nil {
		return analysis.DefaultAccuracyDivisor
	}
	return *c.AccuracyDivisor
}

// GetAccuracyMinMph returns the uncertainty band floor or the default.
func (c *Tuning) GetAccuracyMinMph() float64 {
	if c.AccuracyMinMph == nil {
		return analysis.DefaultAccuracyMinMph
	}
	return *c.AccuracyMinMph
}

// GetAccuracyMaxMph returns the uncertainty band ceiling or the default.
func (c *Tuning) GetAccuracyMaxMph() float64 {
	if c.AccuracyMaxMph == nil {
		return analysis.DefaultAccuracyMaxMph
	}
	return *c.AccuracyMaxMph
}

// GetRetentionCap returns the local store cap or the default.
func (c *Tuning) GetRetentionCap() int {
	if c.RetentionCap == nil {
		return store.DefaultRetentionCap
	}
	return *c.RetentionCap
}

// GetRemoteTimeout parses and returns the remote call deadline or the default.
func (c *Tuning) GetRemoteTimeout() time.Duration {
	if c.RemoteTimeout == nil || *c.RemoteTimeout == "" {
		return store.DefaultRemoteTimeout
	}
	d, err := time.ParseDuration(*c.RemoteTimeout)
	if err != nil {
		return store.DefaultRemoteTimeout
	}
	return d
}

// GetMatchMaxTimeDiffMs returns the matcher time window or the default.
func (c *Tuning) GetMatchMaxTimeDiffMs() int64 {
	if c.MatchMaxTimeDiffMs == nil {
		return match.DefaultMaxTimeDiffMs
	}
	return *c.MatchMaxTimeDiffMs
}

// GetMatchLocationRadiusM returns the location-match radius or the default.
func (c *Tuning) GetMatchLocationRadiusM() float64 {
	if c.MatchLocationRadiusM == nil {
		return match.DefaultLocationRadiusM
	}
	return *c.MatchLocationRadiusM
}

// GetMatchLocationBonus returns the location-match score bonus or the default.
func (c *Tuning) GetMatchLocationBonus() float64 {
	if c.MatchLocationBonus == nil {
		return match.DefaultLocationBonus
	}
	return *c.MatchLocationBonus
}

// GetRenderTimeout parses and returns the evidence render deadline or the
// default of 10 seconds.
func (c *Tuning) GetRenderTimeout() time.Duration {
	const defaultRenderTimeout = 10 * time.Second
	if c.RenderTimeout == nil || *c.RenderTimeout == "" {
		return defaultRenderTimeout
	}
	d, err := time.ParseDuration(*c.RenderTimeout)
	if err != nil {
		return defaultRenderTimeout
	}
	return d
}
