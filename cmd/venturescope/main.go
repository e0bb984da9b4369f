// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package main is the Venturescope command-line interface.
//
// Venturescope ranks business opportunities from a city/category catalog and
// predicts demand and competition for ad-hoc business concepts using frozen
// regression ensembles trained offline.
//
// # Commands
//
//	venturescope train      Train models from the catalog and write artifacts
//	venturescope recommend  Rank business opportunities for a city and budget
//	venturescope predict    Predict market conditions for a business concept
//	venturescope summary    Show per-city market summaries from the catalog
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins):
//   - Environment variables (VENTURESCOPE_* — see internal/config)
//   - Config file (venturescope.yaml, or VENTURESCOPE_CONFIG)
//   - Built-in defaults
//
// Typical workflow:
//
//	export VENTURESCOPE_DATASET_PATH=data/businesses.csv
//	venturescope train
//	venturescope recommend -city Mumbai -budget 3000000 -categories Food,Tech
//	venturescope predict -name "Green Organic Cafe" -category Food -city Pune -investment 500000
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/venturescope/internal/artifact"
	"github.com/tomtom215/venturescope/internal/config"
	"github.com/tomtom215/venturescope/internal/dataset"
	"github.com/tomtom215/venturescope/internal/engine"
	"github.com/tomtom215/venturescope/internal/logging"
	"github.com/tomtom215/venturescope/internal/trainer"
)

const usage = `Venturescope - business opportunity analytics

Usage:
  venturescope <command> [flags]

Commands:
  train      Train models from the catalog and write artifacts
  recommend  Rank business opportunities for a city and budget
  predict    Predict market conditions for a business concept
  summary    Show per-city market summaries from the catalog

Run "venturescope <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "venturescope: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)

	var runErr error
	switch cmd := os.Args[1]; cmd {
	case "train":
		runErr = runTrain(cfg, logger, os.Args[2:])
	case "recommend":
		runErr = runRecommend(cfg, logger, os.Args[2:])
	case "predict":
		runErr = runPredict(cfg, logger, os.Args[2:])
	case "summary":
		runErr = runSummary(cfg, logger, os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "venturescope: unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if runErr != nil {
		if errors.Is(runErr, engine.ErrInvalidInput) {
			fmt.Fprintf(os.Stderr, "venturescope: %v\n", runErr)
			os.Exit(2)
		}
		logger.Error().Err(runErr).Msg("Command failed")
		os.Exit(1)
	}
}

// newEngine loads the catalog and artifacts and wires up the engine.
func newEngine(cfg *config.Config, logger zerolog.Logger) (*engine.Engine, error) {
	store, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	bundle, err := artifact.LoadBundle(cfg.Artifacts.Dir)
	if err != nil {
		if errors.Is(err, artifact.ErrMissing) {
			return nil, fmt.Errorf("%w (run \"venturescope train\" first)", err)
		}
		return nil, err
	}
	return engine.New(&cfg.Engine, logger, store, bundle.Codec, bundle.Demand, bundle.Competition)
}

// emit writes v as indented JSON to stdout.
func emit(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Println(string(out))
	return err
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet("venturescope "+name, flag.ExitOnError)
}

// splitList parses a comma-separated flag value into trimmed entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runTrain(cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := newFlagSet("train")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := trainer.Run(cfg, logger)
	if err != nil {
		return err
	}
	return emit(result)
}

func runRecommend(cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := newFlagSet("recommend")
	city := fs.String("city", "", "city to search (required)")
	budget := fs.Float64("budget", 0, "available investment (required)")
	categories := fs.String("categories", "", "comma-separated business categories (required)")
	count := fs.Int("count", 0, "max recommendations (default 3, max 10)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	result, err := eng.Recommend(engine.RecommendRequest{
		City:       *city,
		Budget:     *budget,
		Categories: splitList(*categories),
		Count:      *count,
	})
	if err != nil {
		return err
	}
	return emit(result)
}

func runPredict(cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := newFlagSet("predict")
	name := fs.String("name", "", "concept name (echoed in output)")
	category := fs.String("category", "", "business category (required)")
	city := fs.String("city", "", "city (required)")
	investment := fs.Float64("investment", 0, "planned investment (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	pred, err := eng.PredictConcept(engine.ConceptRequest{
		Name:       *name,
		Category:   *category,
		City:       *city,
		Investment: *investment,
	})
	if err != nil {
		return err
	}
	return emit(pred)
}

func runSummary(cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := newFlagSet("summary")
	city := fs.String("city", "", "limit output to one city")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return err
	}

	cities := store.Cities()
	if *city != "" {
		cities = []string{*city}
	}

	type citySummary struct {
		Summary    dataset.CitySummary                `json:"summary"`
		Categories map[string]dataset.CategoryProfile `json:"categories"`
	}

	minInv, maxInv := store.InvestmentRange()
	out := struct {
		Records       int                    `json:"records"`
		Categories    []string               `json:"categories"`
		MinInvestment float64                `json:"min_investment"`
		MaxInvestment float64                `json:"max_investment"`
		Cities        map[string]citySummary `json:"cities"`
	}{
		Records:       store.Len(),
		Categories:    store.Categories(),
		MinInvestment: minInv,
		MaxInvestment: maxInv,
		Cities:        make(map[string]citySummary, len(cities)),
	}
	for _, c := range cities {
		summary, ok := store.Summary(c)
		if !ok {
			logger.Warn().Str("city", c).Msg("City not found in catalog")
			continue
		}
		out.Cities[c] = citySummary{
			Summary:    summary,
			Categories: store.CategoryAnalysis(c),
		}
	}
	return emit(out)
}
