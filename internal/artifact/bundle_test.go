// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/venturescope/internal/dataset"
	"github.com/tomtom215/venturescope/internal/feature"
	"github.com/tomtom215/venturescope/internal/model"
)

func trainedBundle(t *testing.T) (*feature.Codec, *model.Forest, *model.Forest) {
	t.Helper()

	records := []dataset.BusinessRecord{
		{City: "Mumbai", Category: "Food", Business: "Cafe", Investment: 500000, Demand: 85, Competition: 30},
		{City: "Mumbai", Category: "Tech", Business: "Studio", Investment: 2000000, Demand: 90, Competition: 45},
		{City: "Pune", Category: "Food", Business: "Bakery", Investment: 400000, Demand: 72, Competition: 40},
		{City: "Pune", Category: "Tech", Business: "Dev Shop", Investment: 1800000, Demand: 78, Competition: 55},
	}

	codec := feature.New()
	codec.Fit(records)

	cfg := model.TrainConfig{NumTrees: 5, MaxDepth: 4, MinSamplesSplit: 2, MinSamplesLeaf: 1, Seed: 42}
	vectors := make([]feature.Vector, 0, len(records))
	demands := make([]float64, 0, len(records))
	comps := make([]float64, 0, len(records))
	for _, rec := range records {
		vectors = append(vectors, codec.Encode(rec.City, rec.Category, rec.Investment))
		demands = append(demands, rec.Demand)
		comps = append(comps, rec.Competition)
	}

	demand, err := model.Train(cfg, model.TargetDemand, codec.Fingerprint(), vectors, demands)
	if err != nil {
		t.Fatalf("Train(demand) error = %v", err)
	}
	competition, err := model.Train(cfg, model.TargetCompetition, codec.Fingerprint(), vectors, comps)
	if err != nil {
		t.Fatalf("Train(competition) error = %v", err)
	}
	return codec, demand, competition
}

func TestBundleRoundTrip(t *testing.T) {
	codec, demand, competition := trainedBundle(t)
	dir := t.TempDir()

	if err := SaveBundle(dir, codec, demand, competition, 4); err != nil {
		t.Fatalf("SaveBundle() error = %v", err)
	}

	loaded, err := LoadBundle(dir)
	if err != nil {
		t.Fatalf("LoadBundle() error = %v", err)
	}

	if loaded.Codec.Fingerprint() != codec.Fingerprint() {
		t.Errorf("loaded codec fingerprint = %s, want %s", loaded.Codec.Fingerprint(), codec.Fingerprint())
	}
	if loaded.Demand.Target != model.TargetDemand {
		t.Errorf("loaded demand target = %q", loaded.Demand.Target)
	}
	if loaded.Competition.Target != model.TargetCompetition {
		t.Errorf("loaded competition target = %q", loaded.Competition.Target)
	}
	if len(loaded.Demand.Trees) != len(demand.Trees) {
		t.Errorf("loaded demand has %d trees, want %d", len(loaded.Demand.Trees), len(demand.Trees))
	}

	// Loaded forests predict identically to the originals.
	v := codec.Encode("Mumbai", "Food", 500000)
	if got, want := loaded.Demand.Predict(v), demand.Predict(v); got != want {
		t.Errorf("loaded demand prediction = %f, want %f", got, want)
	}
}

func TestLoadBundleMissingArtifact(t *testing.T) {
	codec, demand, competition := trainedBundle(t)
	dir := t.TempDir()

	if err := SaveBundle(dir, codec, demand, competition, 4); err != nil {
		t.Fatalf("SaveBundle() error = %v", err)
	}
	if err := os.Remove(filepath.Join(dir, DemandFile)); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	_, err := LoadBundle(dir)
	if !errors.Is(err, ErrMissing) {
		t.Errorf("LoadBundle() error = %v, want ErrMissing", err)
	}
}

func TestLoadBundleCrossRunMismatch(t *testing.T) {
	codec, demand, competition := trainedBundle(t)
	dir := t.TempDir()

	if err := SaveBundle(dir, codec, demand, competition, 4); err != nil {
		t.Fatalf("SaveBundle() error = %v", err)
	}

	// Overwrite the demand artifact with one from a different codec
	// generation, simulating artifacts mixed across training runs.
	stale := *demand
	stale.CodecFingerprint = "00000000000000000000000000000000"
	if err := Save(filepath.Join(dir, DemandFile), Metadata{
		Name:             stale.Target,
		Kind:             KindModel,
		CodecFingerprint: stale.CodecFingerprint,
		RecordCount:      4,
	}, &stale); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, err := LoadBundle(dir)
	if err == nil {
		t.Fatal("LoadBundle() error = nil, want fingerprint mismatch")
	}
	if !strings.Contains(err.Error(), "trained with codec") {
		t.Errorf("LoadBundle() error = %q, want fingerprint mismatch detail", err)
	}
}
