// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package engine

import "errors"

// ErrInvalidInput marks recoverable request-validation failures. Callers can
// test for it with errors.Is and surface the detail to the user; it never
// indicates a fault in the engine itself.
var ErrInvalidInput = errors.New("invalid input")

// Band is the presentation band a score falls into.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAverage   Band = "average"
	BandPoor      Band = "below_average"
)

// RecommendRequest asks for ranked business opportunities in a city.
type RecommendRequest struct {
	// City to search. Matched exactly against the catalog.
	City string `json:"city" validate:"required"`

	// Budget is the available investment in currency units.
	Budget float64 `json:"budget" validate:"gt=0"`

	// Categories restricts candidates to the given business categories.
	Categories []string `json:"categories" validate:"min=1,dive,required"`

	// Count is the maximum number of recommendations to return.
	// Zero selects the default of 3; the upper bound is 10.
	Count int `json:"count" validate:"gte=0,max=10"`

	// RequestID correlates log lines and results. Generated when empty.
	RequestID string `json:"request_id"`
}

// Recommendation is one ranked business opportunity.
type Recommendation struct {
	Business   string  `json:"business"`
	Category   string  `json:"category"`
	City       string  `json:"city"`
	Investment float64 `json:"investment"`

	// PredictedDemand and PredictedCompetition are model outputs in
	// [0, 100] for this candidate, not the catalog's recorded values.
	PredictedDemand      float64 `json:"predicted_demand"`
	PredictedCompetition float64 `json:"predicted_competition"`

	// MarketGap is predicted demand minus predicted competition,
	// in [-100, 100].
	MarketGap float64 `json:"market_gap"`

	// Score is the opportunity score in [0, 100]. Higher is better.
	Score float64 `json:"score"`

	// BudgetUsedPct is investment as a percentage of the budget. It is
	// reported as-is and exceeds 100 for over-budget candidates admitted
	// under the relaxed cutoff.
	BudgetUsedPct float64 `json:"budget_used_pct"`

	// OverBudget is true when the candidate's investment exceeds the
	// requested budget.
	OverBudget bool `json:"over_budget"`

	// Band is the presentation band the score falls into.
	Band Band `json:"band"`

	// Explanation summarizes the score drivers in plain language.
	Explanation string `json:"explanation"`
}

// RecommendResult is the outcome of a Recommend call.
type RecommendResult struct {
	RequestID string `json:"request_id"`

	// Recommendations is ordered best-first. Empty (never nil) when no
	// candidate matched the request.
	Recommendations []Recommendation `json:"recommendations"`

	// BudgetRelaxed is true when the hard budget cutoff was relaxed to
	// avoid returning an empty result.
	BudgetRelaxed bool `json:"budget_relaxed"`
}

// ConceptRequest asks for demand and competition predictions for a business
// concept that need not exist in the catalog.
type ConceptRequest struct {
	// Name is the concept's display name. Echoed back, never interpreted.
	Name string `json:"name"`

	// Category of the concept. Unseen categories fall back to the most
	// frequent training category and lower the prediction's confidence.
	Category string `json:"category" validate:"required"`

	// City for the concept. Unseen cities fall back likewise.
	City string `json:"city" validate:"required"`

	// Investment is the planned investment in currency units.
	Investment float64 `json:"investment" validate:"gt=0"`

	// RequestID correlates log lines and results. Generated when empty.
	RequestID string `json:"request_id"`
}

// Prediction is the outcome of a PredictConcept call.
type Prediction struct {
	RequestID string `json:"request_id"`

	// Name echoes the requested concept name.
	Name     string `json:"name"`
	Category string `json:"category"`
	City     string `json:"city"`

	// Demand and Competition are model outputs in [0, 100].
	Demand      float64 `json:"demand"`
	Competition float64 `json:"competition"`

	// MarketGap is exactly Demand minus Competition.
	MarketGap float64 `json:"market_gap"`

	// Confidence in [0, 100] blends ensemble agreement with the amount of
	// historical data behind the city/category pair.
	Confidence float64 `json:"confidence"`

	// LowReliability is true when Confidence is at or below the configured
	// threshold, including every prediction that relied on an unseen-label
	// fallback for a pair with no historical support.
	LowReliability bool `json:"low_reliability"`

	// Interpretation summarizes what the numbers mean for this concept.
	Interpretation string `json:"interpretation"`

	// Advice is a one-line go/no-go reading of the prediction.
	Advice string `json:"advice"`
}
