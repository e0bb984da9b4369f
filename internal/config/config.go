// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package config loads and validates application configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in ascending order of precedence.
package config

import (
	"fmt"

	"github.com/tomtom215/venturescope/internal/engine"
	"github.com/tomtom215/venturescope/internal/logging"
	"github.com/tomtom215/venturescope/internal/model"
)

// Config is the root application configuration.
type Config struct {
	// Dataset configures the business catalog source.
	Dataset DatasetConfig `koanf:"dataset" json:"dataset"`

	// Artifacts configures where trained model artifacts live.
	Artifacts ArtifactsConfig `koanf:"artifacts" json:"artifacts"`

	// Engine configures scoring, ranking, and confidence.
	Engine engine.Config `koanf:"engine" json:"engine"`

	// Training configures the offline model trainer.
	Training model.TrainConfig `koanf:"training" json:"training"`

	// Logging configures log output.
	Logging logging.Config `koanf:"logging" json:"logging"`
}

// DatasetConfig configures the business catalog source.
type DatasetConfig struct {
	// Path is the CSV catalog file.
	Path string `koanf:"path" json:"path"`
}

// ArtifactsConfig configures trained artifact storage.
type ArtifactsConfig struct {
	// Dir holds the codec and model artifact files.
	Dir string `koanf:"dir" json:"dir"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path: "data/businesses.csv",
		},
		Artifacts: ArtifactsConfig{
			Dir: "data/models",
		},
		Engine:   *engine.DefaultConfig(),
		Training: model.DefaultTrainConfig(),
		Logging:  logging.DefaultConfig(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("config: dataset.path must not be empty")
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("config: artifacts.dir must not be empty")
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
