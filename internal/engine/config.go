// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package engine

import (
	"fmt"
)

// Default score-band thresholds, from product documentation. Kept as named
// constants so presentation tuning never touches ranking logic.
const (
	DefaultExcellentThreshold = 80.0
	DefaultGoodThreshold      = 65.0
	DefaultAverageThreshold   = 50.0
)

// Default result-count bounds.
const (
	DefaultCount = 3
	MaxCount     = 10
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of each scoring term.
	// Weights are normalized at runtime, so they don't need to sum to 1.0.
	Weights ScoreWeights `koanf:"weights" json:"weights"`

	// Bands holds the score-band thresholds for presentation.
	Bands BandThresholds `koanf:"bands" json:"bands"`

	// Budget holds the budget-fit policy.
	Budget BudgetPolicy `koanf:"budget" json:"budget"`

	// Confidence holds the confidence derivation parameters.
	Confidence ConfidenceConfig `koanf:"confidence" json:"confidence"`
}

// ScoreWeights defines the relative contribution of each scoring term.
type ScoreWeights struct {
	// MarketGap weights the normalized demand-minus-competition term.
	// Default: 0.5.
	MarketGap float64 `koanf:"market_gap" json:"market_gap"`

	// BudgetFit weights the investment-versus-budget term. Default: 0.3.
	BudgetFit float64 `koanf:"budget_fit" json:"budget_fit"`

	// CategoryMatch weights membership in the user's selected categories.
	// Direct filtering already enforces membership; this term exists for
	// synthesized candidates that bypass it. Default: 0.2.
	CategoryMatch float64 `koanf:"category_match" json:"category_match"`
}

// Normalize returns a copy with weights normalized to sum to 1.0.
func (w ScoreWeights) Normalize() ScoreWeights {
	sum := w.MarketGap + w.BudgetFit + w.CategoryMatch
	if sum == 0 {
		const equal = 1.0 / 3.0
		return ScoreWeights{MarketGap: equal, BudgetFit: equal, CategoryMatch: equal}
	}
	return ScoreWeights{
		MarketGap:     w.MarketGap / sum,
		BudgetFit:     w.BudgetFit / sum,
		CategoryMatch: w.CategoryMatch / sum,
	}
}

// BandThresholds holds the score-band cut points.
type BandThresholds struct {
	// Excellent is the minimum score for the excellent band. Default: 80.
	Excellent float64 `koanf:"excellent" json:"excellent"`

	// Good is the minimum score for the good band. Default: 65.
	Good float64 `koanf:"good" json:"good"`

	// Average is the minimum score for the average band. Default: 50.
	Average float64 `koanf:"average" json:"average"`
}

// BudgetPolicy controls how investment relates to the user's budget.
type BudgetPolicy struct {
	// RelaxCutoff re-admits over-budget records, penalized through the
	// score, when the hard cutoff would otherwise empty a non-empty
	// filtered set. Whether the upstream product intended this is an open
	// question, so it is a policy switch rather than a hard rule.
	// Default: true.
	RelaxCutoff bool `koanf:"relax_cutoff" json:"relax_cutoff"`

	// MinPlausibleRatio is the investment/budget ratio below which a
	// candidate is considered implausibly small for the stated budget and
	// its fit score is discounted. Default: 0.05.
	MinPlausibleRatio float64 `koanf:"min_plausible_ratio" json:"min_plausible_ratio"`
}

// ConfidenceConfig parameterizes the confidence derivation. Confidence is a
// monotonic blend of ensemble agreement and historical data density; the
// exact coefficients are tunable, the monotonicity is not.
type ConfidenceConfig struct {
	// AgreementWeight weights the ensemble-agreement term. Default: 0.6.
	AgreementWeight float64 `koanf:"agreement_weight" json:"agreement_weight"`

	// DensityWeight weights the data-density term. Default: 0.4.
	DensityWeight float64 `koanf:"density_weight" json:"density_weight"`

	// SpreadScale converts per-tree spread (score units) into an agreement
	// penalty: agreement = 100 - SpreadScale * spread. Default: 4.
	SpreadScale float64 `koanf:"spread_scale" json:"spread_scale"`

	// DensityBaseline is the record count at which the density term
	// saturates at 100. Default: 25.
	DensityBaseline int `koanf:"density_baseline" json:"density_baseline"`

	// LowThreshold is the confidence at or below which a prediction is
	// flagged as low reliability. Predictions for pairs with zero
	// historical support are capped at this value. Default: 40.
	LowThreshold float64 `koanf:"low_threshold" json:"low_threshold"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: ScoreWeights{
			MarketGap:     0.5,
			BudgetFit:     0.3,
			CategoryMatch: 0.2,
		},
		Bands: BandThresholds{
			Excellent: DefaultExcellentThreshold,
			Good:      DefaultGoodThreshold,
			Average:   DefaultAverageThreshold,
		},
		Budget: BudgetPolicy{
			RelaxCutoff:       true,
			MinPlausibleRatio: 0.05,
		},
		Confidence: ConfidenceConfig{
			AgreementWeight: 0.6,
			DensityWeight:   0.4,
			SpreadScale:     4,
			DensityBaseline: 25,
			LowThreshold:    40,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Weights.MarketGap < 0 || c.Weights.BudgetFit < 0 || c.Weights.CategoryMatch < 0 {
		return fmt.Errorf("engine: weights must be non-negative, got %+v", c.Weights)
	}

	if c.Bands.Excellent <= c.Bands.Good || c.Bands.Good <= c.Bands.Average {
		return fmt.Errorf("engine: bands must be strictly descending, got %+v", c.Bands)
	}
	if c.Bands.Average <= 0 || c.Bands.Excellent > 100 {
		return fmt.Errorf("engine: bands must lie within (0, 100], got %+v", c.Bands)
	}

	if c.Budget.MinPlausibleRatio < 0 || c.Budget.MinPlausibleRatio >= 1 {
		return fmt.Errorf("engine: budget.min_plausible_ratio must be in [0, 1), got %f", c.Budget.MinPlausibleRatio)
	}

	if c.Confidence.AgreementWeight < 0 || c.Confidence.DensityWeight < 0 {
		return fmt.Errorf("engine: confidence weights must be non-negative, got %+v", c.Confidence)
	}
	if c.Confidence.AgreementWeight+c.Confidence.DensityWeight == 0 {
		return fmt.Errorf("engine: confidence weights must not both be zero")
	}
	if c.Confidence.SpreadScale < 0 {
		return fmt.Errorf("engine: confidence.spread_scale must be non-negative, got %f", c.Confidence.SpreadScale)
	}
	if c.Confidence.DensityBaseline < 1 {
		return fmt.Errorf("engine: confidence.density_baseline must be positive, got %d", c.Confidence.DensityBaseline)
	}
	if c.Confidence.LowThreshold < 0 || c.Confidence.LowThreshold > 100 {
		return fmt.Errorf("engine: confidence.low_threshold must be in [0, 100], got %f", c.Confidence.LowThreshold)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs are value types.
	out := *c
	return &out
}

// ScoreBand maps a score onto its presentation band.
func (c *Config) ScoreBand(score float64) Band {
	switch {
	case score >= c.Bands.Excellent:
		return BandExcellent
	case score >= c.Bands.Good:
		return BandGood
	case score >= c.Bands.Average:
		return BandAverage
	default:
		return BandPoor
	}
}
