// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"venturescope.yaml",
	"venturescope.yml",
	"/etc/venturescope/config.yaml",
	"/etc/venturescope/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "VENTURESCOPE_CONFIG"

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	return loadFrom(findConfigFile())
}

// loadFrom is Load with an explicit config file path, for tests. An empty
// path skips the file layer.
func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// VENTURESCOPE_LOG_LEVEL -> logging.level, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so unrelated environment noise never
// pollutes the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"venturescope_dataset_path":  "dataset.path",
		"venturescope_artifacts_dir": "artifacts.dir",

		"venturescope_weight_market_gap":     "engine.weights.market_gap",
		"venturescope_weight_budget_fit":     "engine.weights.budget_fit",
		"venturescope_weight_category_match": "engine.weights.category_match",

		"venturescope_band_excellent": "engine.bands.excellent",
		"venturescope_band_good":      "engine.bands.good",
		"venturescope_band_average":   "engine.bands.average",

		"venturescope_budget_relax_cutoff":        "engine.budget.relax_cutoff",
		"venturescope_budget_min_plausible_ratio": "engine.budget.min_plausible_ratio",

		"venturescope_confidence_agreement_weight": "engine.confidence.agreement_weight",
		"venturescope_confidence_density_weight":   "engine.confidence.density_weight",
		"venturescope_confidence_spread_scale":     "engine.confidence.spread_scale",
		"venturescope_confidence_density_baseline": "engine.confidence.density_baseline",
		"venturescope_confidence_low_threshold":    "engine.confidence.low_threshold",

		"venturescope_train_num_trees":         "training.num_trees",
		"venturescope_train_max_depth":         "training.max_depth",
		"venturescope_train_min_samples_split": "training.min_samples_split",
		"venturescope_train_min_samples_leaf":  "training.min_samples_leaf",
		"venturescope_train_seed":              "training.seed",

		"venturescope_log_level":  "logging.level",
		"venturescope_log_format": "logging.format",
		"venturescope_log_output": "logging.output",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
