package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmptyTuningConfig_Defaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetShardSigma(); got != DefaultShardSigma {
		t.Errorf("GetShardSigma() = %f, want %f", got, DefaultShardSigma)
	}
	if got := cfg.GetShardNeighborhood(); got != 3 {
		t.Errorf("GetShardNeighborhood() = %d, want 3", got)
	}
	if got := cfg.GetVolumeThreshold(); got != 1 {
		t.Errorf("GetVolumeThreshold() = %d, want 1", got)
	}
	if got := cfg.GetInactivityTimeout(); got != 10*time.Second {
		t.Errorf("GetInactivityTimeout() = %v, want 10s", got)
	}
	if got := cfg.GetResultBatchSize(); got != 32 {
		t.Errorf("GetResultBatchSize() = %d, want 32", got)
	}
	if got := cfg.GetSubsampleThreshold(); got != 100000 {
		t.Errorf("GetSubsampleThreshold() = %d, want 100000", got)
	}
	if got := cfg.GetSubsampleFraction(); got != 0.3 {
		t.Errorf("GetSubsampleFraction() = %f, want 0.3", got)
	}
	if got := cfg.GetNeighborRadiusFactor(); got != 1.75 {
		t.Errorf("GetNeighborRadiusFactor() = %f, want 1.75", got)
	}
	if got := cfg.GetWorkers(); got != 0 {
		t.Errorf("GetWorkers() = %d, want 0", got)
	}
	if !cfg.GetIsPore() {
		t.Error("GetIsPore() = false, want true")
	}
	if _, ok := cfg.GetReferenceDirection(); ok {
		t.Error("GetReferenceDirection() reported a direction on an empty config")
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "shard_sigma": 2.5,
  "shard_neighborhood": 5,
  "inactivity_timeout": "250ms",
  "workers": 4,
  "is_pore": false,
  "reference_direction": [1, 0]
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetShardSigma(); got != 2.5 {
		t.Errorf("GetShardSigma() = %f, want 2.5", got)
	}
	if got := cfg.GetShardNeighborhood(); got != 5 {
		t.Errorf("GetShardNeighborhood() = %d, want 5", got)
	}
	if got := cfg.GetInactivityTimeout(); got != 250*time.Millisecond {
		t.Errorf("GetInactivityTimeout() = %v, want 250ms", got)
	}
	if got := cfg.GetWorkers(); got != 4 {
		t.Errorf("GetWorkers() = %d, want 4", got)
	}
	if cfg.GetIsPore() {
		t.Error("GetIsPore() = true, want false")
	}
	dir, ok := cfg.GetReferenceDirection()
	if !ok || dir != [2]float64{1, 0} {
		t.Errorf("GetReferenceDirection() = %v, %v; want [1 0], true", dir, ok)
	}
	// Unset fields keep their defaults.
	if got := cfg.GetVolumeThreshold(); got != DefaultVolumeThreshold {
		t.Errorf("GetVolumeThreshold() = %d, want %d", got, DefaultVolumeThreshold)
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "absent.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"invalid value", write("neg.json", `{"shard_sigma": -1}`), "shard_sigma"},
		{"bad duration", write("dur.json", `{"inactivity_timeout": "soon"}`), "inactivity_timeout"},
		{"bad direction", write("dir.json", `{"reference_direction": [1]}`), "reference_direction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuningConfig(tt.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TuningConfig
		wantErr bool
	}{
		{"empty", TuningConfig{}, false},
		{"zero sigma", TuningConfig{ShardSigma: ptrFloat64(0)}, false},
		{"zero neighborhood", TuningConfig{ShardNeighborhood: ptrInt(0)}, true},
		{"negative workers", TuningConfig{Workers: ptrInt(-1)}, true},
		{"zero queue", TuningConfig{TaskQueueSize: ptrInt(0)}, true},
		{"zero batch", TuningConfig{ResultBatchSize: ptrInt(0)}, true},
		{"zero timeout", TuningConfig{InactivityTimeout: ptrString("0s")}, true},
		{"fraction above one", TuningConfig{SubsampleFraction: ptrFloat64(1.5)}, true},
		{"full fraction", TuningConfig{SubsampleFraction: ptrFloat64(1)}, false},
		{"zero radius", TuningConfig{NeighborRadiusFactor: ptrFloat64(0)}, true},
		{"zero direction", TuningConfig{ReferenceDirection: []float64{0, 0}}, true},
		{"seed and pore", TuningConfig{RandomSeed: ptrInt64(42), IsPore: ptrBool(false)}, false},
		{"zero window", TuningConfig{WindowSize: ptrInt(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if got := cfg.GetShardSigma(); got != DefaultShardSigma {
		t.Errorf("defaults file shard_sigma = %f, want %f", got, DefaultShardSigma)
	}
	if got := cfg.GetInactivityTimeout(); got != DefaultInactivityTimeout {
		t.Errorf("defaults file inactivity_timeout = %v, want %v", got, DefaultInactivityTimeout)
	}
	if got := cfg.GetSubsampleThreshold(); got != DefaultSubsampleThreshold {
		t.Errorf("defaults file subsample_threshold = %d, want %d", got, DefaultSubsampleThreshold)
	}
	if cfg.ShardNeighborhood == nil {
		t.Error("defaults file should set shard_neighborhood explicitly")
	}
}
