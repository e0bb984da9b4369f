// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "venturescope.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadFrom("")
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}

	if cfg.Dataset.Path != "data/businesses.csv" {
		t.Errorf("dataset.path = %q, want data/businesses.csv", cfg.Dataset.Path)
	}
	if cfg.Artifacts.Dir != "data/models" {
		t.Errorf("artifacts.dir = %q, want data/models", cfg.Artifacts.Dir)
	}
	if cfg.Engine.Weights.MarketGap != 0.5 {
		t.Errorf("engine.weights.market_gap = %f, want 0.5", cfg.Engine.Weights.MarketGap)
	}
	if cfg.Training.NumTrees != 100 {
		t.Errorf("training.num_trees = %d, want 100", cfg.Training.NumTrees)
	}
	if cfg.Training.Seed != 42 {
		t.Errorf("training.seed = %d, want 42", cfg.Training.Seed)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
dataset:
  path: /srv/catalog.csv
engine:
  bands:
    excellent: 85
training:
  num_trees: 50
`)

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}

	if cfg.Dataset.Path != "/srv/catalog.csv" {
		t.Errorf("dataset.path = %q, want /srv/catalog.csv", cfg.Dataset.Path)
	}
	if cfg.Engine.Bands.Excellent != 85 {
		t.Errorf("engine.bands.excellent = %f, want 85", cfg.Engine.Bands.Excellent)
	}
	if cfg.Training.NumTrees != 50 {
		t.Errorf("training.num_trees = %d, want 50", cfg.Training.NumTrees)
	}

	// Untouched settings keep their defaults.
	if cfg.Engine.Bands.Good != 65 {
		t.Errorf("engine.bands.good = %f, want default 65", cfg.Engine.Bands.Good)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
dataset:
  path: /srv/catalog.csv
logging:
  level: warn
`)

	t.Setenv("VENTURESCOPE_DATASET_PATH", "/env/catalog.csv")
	t.Setenv("VENTURESCOPE_LOG_LEVEL", "debug")
	t.Setenv("VENTURESCOPE_TRAIN_SEED", "7")

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}

	if cfg.Dataset.Path != "/env/catalog.csv" {
		t.Errorf("dataset.path = %q, want env override /env/catalog.csv", cfg.Dataset.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want env override debug", cfg.Logging.Level)
	}
	if cfg.Training.Seed != 7 {
		t.Errorf("training.seed = %d, want env override 7", cfg.Training.Seed)
	}
}

func TestLoadIgnoresUnmappedEnv(t *testing.T) {
	t.Setenv("VENTURESCOPE_NO_SUCH_SETTING", "boom")
	t.Setenv("PATH_UNRELATED", "boom")

	if _, err := loadFrom(""); err != nil {
		t.Fatalf("loadFrom() error = %v, want unmapped env vars ignored", err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty dataset path", "dataset:\n  path: \"\"\n"},
		{"bands not descending", "engine:\n  bands:\n    good: 90\n"},
		{"zero trees", "training:\n  num_trees: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.yaml)
			if _, err := loadFrom(path); err == nil {
				t.Error("loadFrom() error = nil, want validation error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"VENTURESCOPE_DATASET_PATH", "dataset.path"},
		{"VENTURESCOPE_WEIGHT_MARKET_GAP", "engine.weights.market_gap"},
		{"VENTURESCOPE_BUDGET_RELAX_CUTOFF", "engine.budget.relax_cutoff"},
		{"VENTURESCOPE_LOG_FORMAT", "logging.format"},
		{"RANDOM_VAR", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
