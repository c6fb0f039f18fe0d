package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestEmptyTuningDefaults(t *testing.T) {
	cfg := EmptyTuning()

	if got := cfg.GetStopThresholdMps(); got != 0.2235 {
		t.Errorf("GetStopThresholdMps = %v, want 0.2235", got)
	}
	if got := cfg.GetMinStopDurationMs(); got != 2000 {
		t.Errorf("GetMinStopDurationMs = %v, want 2000", got)
	}
	if got := cfg.GetRetentionCap(); got != 120 {
		t.Errorf("GetRetentionCap = %v, want 120", got)
	}
	if got := cfg.GetMatchMaxTimeDiffMs(); got != 300000 {
		t.Errorf("GetMatchMaxTimeDiffMs = %v, want 300000", got)
	}
	if got := cfg.GetMatchLocationBonus(); got != -1000 {
		t.Errorf("GetMatchLocationBonus = %v, want -1000", got)
	}
	if got := cfg.GetRenderTimeout(); got != 10*time.Second {
		t.Errorf("GetRenderTimeout = %v, want 10s", got)
	}
}

func TestLoadTuningPartial(t *testing.T) {
	path := writeConfig(t, `{"retention_cap": 50, "remote_timeout": "2s"}`)

	cfg, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning failed: %v", err)
	}

	if got := cfg.GetRetentionCap(); got != 50 {
		t.Errorf("GetRetentionCap = %v, want 50", got)
	}
	if got := cfg.GetRemoteTimeout(); got != 2*time.Second {
		t.Errorf("GetRemoteTimeout = %v, want 2s", got)
	}
	// Unset fields keep defaults.
	if got := cfg.GetStopThresholdMps(); got != 0.2235 {
		t.Errorf("GetStopThresholdMps = %v, want default 0.2235", got)
	}
}

func TestLoadTuningRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	os.WriteFile(path, []byte("{}"), 0644)

	if _, err := LoadTuning(path); err == nil {
		t.Error("expected error for non-.json extension")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []string{
		`{"stop_threshold_mps": -1}`,
		`{"min_stop_duration_ms": 0}`,
		`{"retention_cap": -5}`,
		`{"match_location_bonus": 10}`,
		`{"remote_timeout": "soon"}`,
		`{"render_timeout": "whenever"}`,
	}
	for _, c := range cases {
		path := writeConfig(t, c)
		if _, err := LoadTuning(path); err == nil {
			t.Errorf("expected validation error for %s", c)
		}
	}
}

func TestMatchOptionsFromTuning(t *testing.T) {
	path := writeConfig(t, `{"match_location_radius_m": 150, "match_location_bonus": -500}`)
	cfg, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning failed: %v", err)
	}

	opts := cfg.MatchOptions()
	if opts.LocationRadiusM != 150 || opts.LocationBonus != -500 {
		t.Errorf("MatchOptions = %+v, want radius 150 bonus -500", opts)
	}
	if opts.MaxTimeDiffMs != 300000 {
		t.Errorf("MaxTimeDiffMs = %v, want default 300000", opts.MaxTimeDiffMs)
	}
}
