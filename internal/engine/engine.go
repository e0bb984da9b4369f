// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package engine ranks business opportunities and predicts market conditions
// for ad-hoc business concepts.
//
// Recommend filters the catalog by city, category, and budget, re-scores every
// surviving candidate with the demand and competition models, and returns the
// top candidates by opportunity score. PredictConcept runs the same models for
// a concept that need not exist in the catalog and attaches a confidence
// derived from ensemble agreement and historical data density.
//
// The engine is read-only after construction and safe for concurrent use.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/venturescope/internal/dataset"
	"github.com/tomtom215/venturescope/internal/feature"
	"github.com/tomtom215/venturescope/internal/metrics"
	"github.com/tomtom215/venturescope/internal/model"
	"github.com/tomtom215/venturescope/internal/validation"
)

// Engine scores and ranks business opportunities.
type Engine struct {
	cfg     *Config
	weights ScoreWeights
	logger  zerolog.Logger

	store       *dataset.Store
	codec       *feature.Codec
	demand      *model.Forest
	competition *model.Forest
}

// New constructs an Engine and verifies that the models were trained against
// the supplied codec. A fingerprint mismatch means the artifacts on disk are
// from different training runs and is fatal.
func New(cfg *Config, logger zerolog.Logger, store *dataset.Store, codec *feature.Codec, demand, competition *model.Forest) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || store.Len() == 0 {
		return nil, fmt.Errorf("engine: dataset store is empty")
	}
	if codec == nil || !codec.Fitted() {
		return nil, fmt.Errorf("engine: feature codec is not fitted")
	}

	fp := codec.Fingerprint()
	for _, m := range []struct {
		forest *model.Forest
		target string
	}{
		{demand, model.TargetDemand},
		{competition, model.TargetCompetition},
	} {
		if m.forest == nil {
			return nil, fmt.Errorf("engine: %s model is nil", m.target)
		}
		if err := m.forest.Validate(); err != nil {
			return nil, fmt.Errorf("engine: %s model: %w", m.target, err)
		}
		if m.forest.Target != m.target {
			return nil, fmt.Errorf("engine: model target mismatch: want %s, got %s", m.target, m.forest.Target)
		}
		if m.forest.CodecFingerprint != fp {
			return nil, fmt.Errorf("engine: %s model was trained with codec %s, loaded codec is %s",
				m.target, m.forest.CodecFingerprint, fp)
		}
	}

	e := &Engine{
		cfg:         cfg.Clone(),
		weights:     cfg.Weights.Normalize(),
		logger:      logger.With().Str("component", "engine").Logger(),
		store:       store,
		codec:       codec,
		demand:      demand,
		competition: competition,
	}

	e.logger.Info().
		Str("codec_fingerprint", fp).
		Int("dataset_records", store.Len()).
		Int("demand_trees", len(demand.Trees)).
		Int("competition_trees", len(competition.Trees)).
		Msg("Recommendation engine initialized")

	return e, nil
}

// Recommend returns the top business opportunities for the request, ordered
// best-first. An empty result is a valid outcome, not an error; the only
// error condition is an invalid request.
func (e *Engine) Recommend(req RecommendRequest) (*RecommendResult, error) {
	start := time.Now()

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	log := e.logger.With().Str("request_id", req.RequestID).Logger()

	if err := validation.ValidateStruct(&req); err != nil {
		metrics.ObserveRecommend("invalid", start)
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	count := req.Count
	if count == 0 {
		count = DefaultCount
	}

	result := &RecommendResult{
		RequestID:       req.RequestID,
		Recommendations: []Recommendation{},
	}

	candidates := e.store.Filter(req.City, req.Categories)
	if len(candidates) == 0 {
		log.Debug().
			Str("city", req.City).
			Strs("categories", req.Categories).
			Msg("No catalog records match city and categories")
		metrics.ObserveRecommend("empty", start)
		return result, nil
	}

	within := candidates[:0:0]
	for _, rec := range candidates {
		if rec.Investment <= req.Budget {
			within = append(within, rec)
		}
	}
	if len(within) == 0 {
		if !e.cfg.Budget.RelaxCutoff {
			log.Debug().
				Float64("budget", req.Budget).
				Int("candidates", len(candidates)).
				Msg("All candidates exceed budget, cutoff not relaxed")
			metrics.ObserveRecommend("empty", start)
			return result, nil
		}
		within = candidates
		result.BudgetRelaxed = true
		metrics.BudgetRelaxations.Inc()
		log.Debug().
			Float64("budget", req.Budget).
			Int("candidates", len(candidates)).
			Msg("All candidates exceed budget, relaxing cutoff")
	}

	scored := make([]Recommendation, 0, len(within))
	for _, rec := range within {
		scored = append(scored, e.score(rec, req.Budget, req.Categories))
	}

	// Deterministic order: score descending, then investment ascending,
	// then catalog order (preserved by the stable sort).
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Investment < scored[j].Investment
	})

	if len(scored) > count {
		scored = scored[:count]
	}
	result.Recommendations = scored

	log.Debug().
		Str("city", req.City).
		Int("returned", len(scored)).
		Bool("budget_relaxed", result.BudgetRelaxed).
		Dur("duration", time.Since(start)).
		Msg("Recommendations computed")
	metrics.ObserveRecommend("ok", start)

	return result, nil
}

// score re-scores a single catalog record against the request.
func (e *Engine) score(rec dataset.BusinessRecord, budget float64, categories []string) Recommendation {
	v := e.encode(rec.City, rec.Category, rec.Investment)
	demand := e.demand.Predict(v)
	competition := e.competition.Predict(v)

	gap := demand - competition
	gapScore := clamp((gap+100)/200*100, 0, 100)
	fitScore := e.budgetFitScore(rec.Investment, budget)
	matchScore := 0.0
	if containsFold(categories, rec.Category) {
		matchScore = 100
	}

	score := clamp(e.weights.MarketGap*gapScore+
		e.weights.BudgetFit*fitScore+
		e.weights.CategoryMatch*matchScore, 0, 100)

	return Recommendation{
		Business:             rec.Business,
		Category:             rec.Category,
		City:                 rec.City,
		Investment:           rec.Investment,
		PredictedDemand:      demand,
		PredictedCompetition: competition,
		MarketGap:            gap,
		Score:                score,
		BudgetUsedPct:        rec.Investment / budget * 100,
		OverBudget:           rec.Investment > budget,
		Band:                 e.cfg.ScoreBand(score),
		Explanation:          e.explain(gapScore, fitScore, matchScore > 0),
	}
}

// budgetFitScore maps investment against budget onto [0, 100]. Affordable
// candidates score 100 unless implausibly small for the budget; over-budget
// candidates are penalized in proportion to the shortfall.
func (e *Engine) budgetFitScore(investment, budget float64) float64 {
	if investment > budget {
		return clamp(budget/investment*100, 0, 100)
	}
	floor := e.cfg.Budget.MinPlausibleRatio * budget
	if floor > 0 && investment < floor {
		// Linear discount from 75 up to 100 at the plausibility floor.
		return 75 + 25*investment/floor
	}
	return 100
}

// explain summarizes the score drivers in plain language.
func (e *Engine) explain(gapScore, fitScore float64, matched bool) string {
	parts := make([]string, 0, 3)

	switch {
	case gapScore >= 70:
		parts = append(parts, "high market opportunity with demand well above competition")
	case gapScore >= 50:
		parts = append(parts, "good market potential")
	default:
		parts = append(parts, "competitive market with limited demand headroom")
	}

	switch {
	case fitScore >= 100:
		parts = append(parts, "fits comfortably within budget")
	case fitScore >= 80:
		parts = append(parts, "good budget alignment")
	case fitScore >= 50:
		parts = append(parts, "requires most of the available budget")
	default:
		parts = append(parts, "investment exceeds the stated budget")
	}

	if matched {
		parts = append(parts, "matches your selected categories")
	} else {
		parts = append(parts, "outside your selected categories")
	}

	return strings.Join(parts, "; ")
}

// PredictConcept predicts demand and competition for an ad-hoc business
// concept. The concept name is echoed back and never interpreted.
func (e *Engine) PredictConcept(req ConceptRequest) (*Prediction, error) {
	start := time.Now()

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	log := e.logger.With().Str("request_id", req.RequestID).Logger()

	if err := validation.ValidateStruct(&req); err != nil {
		metrics.ObservePredict("invalid", start)
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	v := e.encode(req.City, req.Category, req.Investment)
	demand, demandSpread := e.demand.PredictWithSpread(v)
	competition, compSpread := e.competition.PredictWithSpread(v)

	support := e.store.Stats(req.City, req.Category).Count
	confidence := e.confidence(demandSpread, compSpread, support)
	low := confidence <= e.cfg.Confidence.LowThreshold
	if low {
		metrics.LowConfidencePredictions.Inc()
	}

	pred := &Prediction{
		RequestID:      req.RequestID,
		Name:           req.Name,
		Category:       req.Category,
		City:           req.City,
		Demand:         demand,
		Competition:    competition,
		MarketGap:      demand - competition,
		Confidence:     confidence,
		LowReliability: low,
		Interpretation: interpret(demand-competition, confidence),
		Advice:         advise(demand, competition, confidence),
	}

	log.Debug().
		Str("city", req.City).
		Str("category", req.Category).
		Float64("demand", demand).
		Float64("competition", competition).
		Float64("confidence", confidence).
		Bool("city_unseen", v.CityUnseen).
		Bool("category_unseen", v.CategoryUnseen).
		Dur("duration", time.Since(start)).
		Msg("Concept prediction computed")
	metrics.ObservePredict("ok", start)

	return pred, nil
}

// encode builds the feature vector and records fallback encodings.
func (e *Engine) encode(city, category string, investment float64) feature.Vector {
	v := e.codec.Encode(city, category, investment)
	if v.CityUnseen {
		metrics.FallbackEncodings.WithLabelValues("city").Inc()
	}
	if v.CategoryUnseen {
		metrics.FallbackEncodings.WithLabelValues("category").Inc()
	}
	return v
}

// confidence blends ensemble agreement with historical data density. More
// records behind a city/category pair never lowers confidence, and a pair
// with zero support is capped at the low-reliability threshold.
func (e *Engine) confidence(demandSpread, compSpread float64, support int) float64 {
	cc := e.cfg.Confidence

	spread := (demandSpread + compSpread) / 2
	agreement := clamp(100-cc.SpreadScale*spread, 0, 100)

	density := float64(support) / float64(cc.DensityBaseline) * 100
	if density > 100 {
		density = 100
	}

	wSum := cc.AgreementWeight + cc.DensityWeight
	conf := (cc.AgreementWeight*agreement + cc.DensityWeight*density) / wSum
	if support == 0 && conf > cc.LowThreshold {
		conf = cc.LowThreshold
	}
	return clamp(conf, 0, 100)
}

// interpret summarizes what a market gap means at a given confidence.
func interpret(gap, confidence float64) string {
	switch {
	case gap > 20 && confidence > 80:
		return "excellent opportunity with high prediction confidence"
	case gap > 15 && confidence > 70:
		return "good opportunity with solid predictions"
	case gap > 5:
		return "moderate opportunity, additional market research advised"
	default:
		return "challenging market, competition likely to meet or exceed demand"
	}
}

// advise gives a one-line go/no-go reading of the prediction.
func advise(demand, competition, confidence float64) string {
	switch {
	case demand > 80 && competition < 40:
		return "highly recommended: high demand with low competition"
	case demand > 70 && competition < 60:
		return "recommended: good market potential"
	case confidence < 60:
		return "needs more research: prediction confidence is low"
	default:
		return "proceed with caution: competitive market"
	}
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
