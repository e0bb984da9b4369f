// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package trainer runs the offline training pipeline: load the catalog, fit
// the feature codec, train both regression ensembles, and write the artifact
// bundle the engine loads at startup.
package trainer

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/venturescope/internal/artifact"
	"github.com/tomtom215/venturescope/internal/config"
	"github.com/tomtom215/venturescope/internal/dataset"
	"github.com/tomtom215/venturescope/internal/feature"
	"github.com/tomtom215/venturescope/internal/model"
)

// Result summarizes a completed training run.
type Result struct {
	Records          int      `json:"records"`
	Cities           []string `json:"cities"`
	Categories       []string `json:"categories"`
	CodecFingerprint string   `json:"codec_fingerprint"`
	DemandTrees      int      `json:"demand_trees"`
	CompetitionTrees int      `json:"competition_trees"`
	ArtifactsDir     string   `json:"artifacts_dir"`
	DurationMS       int64    `json:"duration_ms"`
}

// Run executes the full training pipeline and writes artifacts to
// cfg.Artifacts.Dir. Training is deterministic for a fixed catalog, training
// configuration, and seed.
func Run(cfg *config.Config, logger zerolog.Logger) (*Result, error) {
	start := time.Now()
	log := logger.With().Str("component", "trainer").Logger()

	store, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", cfg.Dataset.Path).
		Int("records", store.Len()).
		Int("cities", len(store.Cities())).
		Int("categories", len(store.Categories())).
		Msg("Catalog loaded")

	codec := feature.New()
	codec.Fit(store.Records())

	records := store.Records()
	vectors := make([]feature.Vector, 0, len(records))
	demands := make([]float64, 0, len(records))
	comps := make([]float64, 0, len(records))
	for _, rec := range records {
		vectors = append(vectors, codec.Encode(rec.City, rec.Category, rec.Investment))
		demands = append(demands, rec.Demand)
		comps = append(comps, rec.Competition)
	}

	fp := codec.Fingerprint()
	demand, err := model.Train(cfg.Training, model.TargetDemand, fp, vectors, demands)
	if err != nil {
		return nil, err
	}
	log.Info().Int("trees", len(demand.Trees)).Msg("Demand model trained")

	competition, err := model.Train(cfg.Training, model.TargetCompetition, fp, vectors, comps)
	if err != nil {
		return nil, err
	}
	log.Info().Int("trees", len(competition.Trees)).Msg("Competition model trained")

	if err := artifact.SaveBundle(cfg.Artifacts.Dir, codec, demand, competition, store.Len()); err != nil {
		return nil, err
	}
	log.Info().
		Str("dir", cfg.Artifacts.Dir).
		Str("codec_fingerprint", fp).
		Dur("duration", time.Since(start)).
		Msg("Artifacts written")

	return &Result{
		Records:          store.Len(),
		Cities:           store.Cities(),
		Categories:       store.Categories(),
		CodecFingerprint: fp,
		DemandTrees:      len(demand.Trees),
		CompetitionTrees: len(competition.Trees),
		ArtifactsDir:     cfg.Artifacts.Dir,
		DurationMS:       time.Since(start).Milliseconds(),
	}, nil
}
