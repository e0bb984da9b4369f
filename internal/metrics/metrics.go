// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package metrics provides Prometheus instrumentation for the engine:
// request counts and latency for both call paths, fallback encodings for
// unseen labels (a data-quality signal, not an error), low-confidence
// predictions, and the budget-relaxation path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendRequests counts recommendation requests by outcome
	// ("ok", "empty", "invalid").
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venturescope_recommend_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	// RecommendDuration tracks recommendation latency.
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venturescope_recommend_duration_seconds",
			Help:    "Recommendation request duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	// PredictRequests counts concept predictions by outcome ("ok", "invalid").
	PredictRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venturescope_predict_requests_total",
			Help: "Total concept prediction requests by outcome",
		},
		[]string{"outcome"},
	)

	// PredictDuration tracks concept prediction latency.
	PredictDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venturescope_predict_duration_seconds",
			Help:    "Concept prediction duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	// FallbackEncodings counts inference-time fallbacks for unseen labels,
	// by field ("city", "category").
	FallbackEncodings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venturescope_fallback_encodings_total",
			Help: "Total encodings that fell back for an unseen label",
		},
		[]string{"field"},
	)

	// LowConfidencePredictions counts predictions at or below the
	// low-confidence threshold.
	LowConfidencePredictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venturescope_low_confidence_predictions_total",
			Help: "Total predictions flagged as low reliability",
		},
	)

	// BudgetRelaxations counts recommendations where the hard budget cutoff
	// was relaxed to avoid an empty result.
	BudgetRelaxations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venturescope_budget_relaxations_total",
			Help: "Total requests where the budget cutoff was relaxed",
		},
	)
)

// ObserveRecommend records one recommendation request.
func ObserveRecommend(outcome string, start time.Time) {
	RecommendRequests.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(time.Since(start).Seconds())
}

// ObservePredict records one concept prediction.
func ObservePredict(outcome string, start time.Time) {
	PredictRequests.WithLabelValues(outcome).Inc()
	PredictDuration.Observe(time.Since(start).Seconds())
}
