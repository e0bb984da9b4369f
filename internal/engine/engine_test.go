// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/venturescope/internal/dataset"
	"github.com/tomtom215/venturescope/internal/feature"
	"github.com/tomtom215/venturescope/internal/logging"
	"github.com/tomtom215/venturescope/internal/model"
)

// engineFixtureCSV is a small catalog with clear structure: Mumbai Food and
// Tech are attractive markets, Mumbai Retail is saturated, Pune has thin
// coverage, and Delhi exists only for Healthcare.
const engineFixtureCSV = `City,Category,Business,Investment,Demand,Competition
Mumbai,Food,Street Cafe,500000,85,30
Mumbai,Food,Family Diner,800000,82,32
Mumbai,Food,Cloud Kitchen,650000,88,28
Mumbai,Food,Juice Bar,400000,80,35
Mumbai,Tech,App Studio,2000000,90,45
Mumbai,Tech,Data Services,2500000,87,48
Mumbai,Tech,Web Agency,1500000,84,50
Mumbai,Retail,Fashion Outlet,1200000,55,85
Mumbai,Retail,Gift Shop,700000,50,88
Pune,Food,Thali House,450000,75,40
Pune,Food,Bakery,380000,72,42
Pune,Tech,Dev Shop,1800000,78,55
Delhi,Healthcare,Dental Clinic,3000000,70,60
Delhi,Healthcare,Diagnostics Lab,4500000,74,58
`

func testTrainConfig() model.TrainConfig {
	return model.TrainConfig{
		NumTrees:        25,
		MaxDepth:        6,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()

	store, err := dataset.Read(strings.NewReader(engineFixtureCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	codec := feature.New()
	codec.Fit(store.Records())

	vectors := make([]feature.Vector, 0, store.Len())
	demands := make([]float64, 0, store.Len())
	comps := make([]float64, 0, store.Len())
	for _, rec := range store.Records() {
		vectors = append(vectors, codec.Encode(rec.City, rec.Category, rec.Investment))
		demands = append(demands, rec.Demand)
		comps = append(comps, rec.Competition)
	}

	demand, err := model.Train(testTrainConfig(), model.TargetDemand, codec.Fingerprint(), vectors, demands)
	if err != nil {
		t.Fatalf("Train(demand) error = %v", err)
	}
	competition, err := model.Train(testTrainConfig(), model.TargetCompetition, codec.Fingerprint(), vectors, comps)
	if err != nil {
		t.Fatalf("Train(competition) error = %v", err)
	}

	eng, err := New(cfg, logging.Nop(), store, codec, demand, competition)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return eng
}

func TestNewRejectsBadInputs(t *testing.T) {
	store, err := dataset.Read(strings.NewReader(engineFixtureCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	codec := feature.New()
	codec.Fit(store.Records())

	vectors := []feature.Vector{codec.Encode("Mumbai", "Food", 500000)}
	targets := []float64{80}
	forest := func(target, fp string) *model.Forest {
		f, err := model.Train(testTrainConfig(), target, fp, vectors, targets)
		if err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		return f
	}
	fp := codec.Fingerprint()

	tests := []struct {
		name        string
		store       *dataset.Store
		codec       *feature.Codec
		demand      *model.Forest
		competition *model.Forest
		wantErr     string
	}{
		{
			name:        "nil store",
			store:       nil,
			codec:       codec,
			demand:      forest(model.TargetDemand, fp),
			competition: forest(model.TargetCompetition, fp),
			wantErr:     "dataset store is empty",
		},
		{
			name:        "unfitted codec",
			store:       store,
			codec:       feature.New(),
			demand:      forest(model.TargetDemand, fp),
			competition: forest(model.TargetCompetition, fp),
			wantErr:     "not fitted",
		},
		{
			name:        "nil demand model",
			store:       store,
			codec:       codec,
			demand:      nil,
			competition: forest(model.TargetCompetition, fp),
			wantErr:     "demand model is nil",
		},
		{
			name:        "swapped targets",
			store:       store,
			codec:       codec,
			demand:      forest(model.TargetCompetition, fp),
			competition: forest(model.TargetDemand, fp),
			wantErr:     "target mismatch",
		},
		{
			name:        "fingerprint mismatch",
			store:       store,
			codec:       codec,
			demand:      forest(model.TargetDemand, "0123456789abcdef0123456789abcdef"),
			competition: forest(model.TargetCompetition, fp),
			wantErr:     "trained with codec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, logging.Nop(), tt.store, tt.codec, tt.demand, tt.competition)
			if err == nil {
				t.Fatal("New() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestRecommendValidRequest(t *testing.T) {
	eng := newTestEngine(t, nil)

	result, err := eng.Recommend(RecommendRequest{
		City:       "Mumbai",
		Budget:     3000000,
		Categories: []string{"Food", "Tech"},
		Count:      3,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if result.RequestID == "" {
		t.Error("Recommend() result has empty request ID")
	}
	if len(result.Recommendations) != 3 {
		t.Fatalf("Recommend() returned %d recommendations, want 3", len(result.Recommendations))
	}
	if result.BudgetRelaxed {
		t.Error("Recommend() relaxed budget with affordable candidates present")
	}

	for i, rec := range result.Recommendations {
		if rec.City != "Mumbai" {
			t.Errorf("recommendation %d city = %q, want Mumbai", i, rec.City)
		}
		if rec.Category != "Food" && rec.Category != "Tech" {
			t.Errorf("recommendation %d category = %q, want Food or Tech", i, rec.Category)
		}
		if rec.Investment > 3000000 {
			t.Errorf("recommendation %d investment %.0f exceeds budget", i, rec.Investment)
		}
		if rec.Score < 0 || rec.Score > 100 {
			t.Errorf("recommendation %d score = %f, want [0, 100]", i, rec.Score)
		}
		if rec.MarketGap != rec.PredictedDemand-rec.PredictedCompetition {
			t.Errorf("recommendation %d market gap %f != demand-competition %f",
				i, rec.MarketGap, rec.PredictedDemand-rec.PredictedCompetition)
		}
		if rec.Explanation == "" {
			t.Errorf("recommendation %d has empty explanation", i)
		}
		if i > 0 && rec.Score > result.Recommendations[i-1].Score {
			t.Errorf("recommendation %d score %f out of order after %f",
				i, rec.Score, result.Recommendations[i-1].Score)
		}
	}
}

func TestRecommendDefaultAndBoundedCount(t *testing.T) {
	eng := newTestEngine(t, nil)

	base := RecommendRequest{
		City:       "Mumbai",
		Budget:     5000000,
		Categories: []string{"Food", "Tech", "Retail"},
	}

	t.Run("zero count uses default", func(t *testing.T) {
		result, err := eng.Recommend(base)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(result.Recommendations) != DefaultCount {
			t.Errorf("Recommend() returned %d recommendations, want default %d",
				len(result.Recommendations), DefaultCount)
		}
	})

	t.Run("count caps large candidate sets", func(t *testing.T) {
		req := base
		req.Count = 2
		result, err := eng.Recommend(req)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(result.Recommendations) != 2 {
			t.Errorf("Recommend() returned %d recommendations, want 2", len(result.Recommendations))
		}
	})

	t.Run("count above candidates returns all", func(t *testing.T) {
		req := base
		req.City = "Pune"
		req.Count = 10
		result, err := eng.Recommend(req)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(result.Recommendations) != 3 {
			t.Errorf("Recommend() returned %d recommendations, want all 3 Pune records",
				len(result.Recommendations))
		}
	})
}

func TestRecommendInvalidInput(t *testing.T) {
	eng := newTestEngine(t, nil)

	valid := RecommendRequest{
		City:       "Mumbai",
		Budget:     1000000,
		Categories: []string{"Food"},
		Count:      3,
	}

	tests := []struct {
		name   string
		mutate func(*RecommendRequest)
	}{
		{"empty city", func(r *RecommendRequest) { r.City = "" }},
		{"zero budget", func(r *RecommendRequest) { r.Budget = 0 }},
		{"negative budget", func(r *RecommendRequest) { r.Budget = -100 }},
		{"no categories", func(r *RecommendRequest) { r.Categories = nil }},
		{"empty category entry", func(r *RecommendRequest) { r.Categories = []string{"Food", ""} }},
		{"negative count", func(r *RecommendRequest) { r.Count = -1 }},
		{"count above maximum", func(r *RecommendRequest) { r.Count = 11 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Categories = append([]string(nil), valid.Categories...)
			tt.mutate(&req)

			_, err := eng.Recommend(req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Recommend() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRecommendEmptyOutcomes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.RelaxCutoff = false
	eng := newTestEngine(t, cfg)

	tests := []struct {
		name string
		req  RecommendRequest
	}{
		{
			name: "unknown city",
			req:  RecommendRequest{City: "Atlantis", Budget: 1000000, Categories: []string{"Food"}},
		},
		{
			name: "unknown category",
			req:  RecommendRequest{City: "Mumbai", Budget: 1000000, Categories: []string{"Aerospace"}},
		},
		{
			name: "budget below every candidate without relaxation",
			req:  RecommendRequest{City: "Mumbai", Budget: 100, Categories: []string{"Tech"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Recommend(tt.req)
			if err != nil {
				t.Fatalf("Recommend() error = %v, want empty result without error", err)
			}
			if result.Recommendations == nil {
				t.Error("Recommend() recommendations = nil, want empty slice")
			}
			if len(result.Recommendations) != 0 {
				t.Errorf("Recommend() returned %d recommendations, want 0", len(result.Recommendations))
			}
		})
	}
}

func TestRecommendRelaxedBudget(t *testing.T) {
	eng := newTestEngine(t, nil)

	result, err := eng.Recommend(RecommendRequest{
		City:       "Mumbai",
		Budget:     100,
		Categories: []string{"Tech"},
		Count:      3,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !result.BudgetRelaxed {
		t.Fatal("Recommend() did not relax budget with no affordable candidates")
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("Recommend() returned no recommendations under relaxed budget")
	}
	for i, rec := range result.Recommendations {
		if !rec.OverBudget {
			t.Errorf("recommendation %d not marked over budget", i)
		}
		if rec.BudgetUsedPct <= 100 {
			t.Errorf("recommendation %d budget used = %f%%, want > 100", i, rec.BudgetUsedPct)
		}
	}
}

func TestRecommendDeterministic(t *testing.T) {
	eng := newTestEngine(t, nil)

	req := RecommendRequest{
		City:       "Mumbai",
		Budget:     3000000,
		Categories: []string{"Food", "Tech"},
		Count:      5,
		RequestID:  "fixed",
	}

	first, err := eng.Recommend(req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := eng.Recommend(req)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !reflect.DeepEqual(first.Recommendations, again.Recommendations) {
			t.Fatalf("Recommend() run %d differs from first run", i+1)
		}
	}
}

func TestRecommendTieBreakByInvestment(t *testing.T) {
	eng := newTestEngine(t, nil)

	result, err := eng.Recommend(RecommendRequest{
		City:       "Mumbai",
		Budget:     5000000,
		Categories: []string{"Food", "Tech", "Retail"},
		Count:      10,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for i := 1; i < len(result.Recommendations); i++ {
		prev, cur := result.Recommendations[i-1], result.Recommendations[i]
		if cur.Score == prev.Score && cur.Investment < prev.Investment {
			t.Errorf("tied candidates out of investment order: %q (%.0f) before %q (%.0f)",
				prev.Business, prev.Investment, cur.Business, cur.Investment)
		}
	}
}

func TestRecommendFavorsOpenMarkets(t *testing.T) {
	eng := newTestEngine(t, nil)

	// Food (high demand, low competition) should outrank Retail (saturated)
	// at a budget that keeps both affordable.
	result, err := eng.Recommend(RecommendRequest{
		City:       "Mumbai",
		Budget:     2000000,
		Categories: []string{"Food", "Retail"},
		Count:      10,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("Recommend() returned no recommendations")
	}
	if got := result.Recommendations[0].Category; got != "Food" {
		t.Errorf("top recommendation category = %q, want Food ahead of saturated Retail", got)
	}
	lastFood, firstRetail := -1, -1
	for i, rec := range result.Recommendations {
		switch rec.Category {
		case "Food":
			lastFood = i
		case "Retail":
			if firstRetail == -1 {
				firstRetail = i
			}
		}
	}
	if firstRetail != -1 && firstRetail < lastFood {
		t.Errorf("Retail at rank %d outranked Food at rank %d", firstRetail, lastFood)
	}
}

func TestPredictConcept(t *testing.T) {
	eng := newTestEngine(t, nil)

	pred, err := eng.PredictConcept(ConceptRequest{
		Name:       "Green Organic Cafe",
		Category:   "Food",
		City:       "Pune",
		Investment: 500000,
	})
	if err != nil {
		t.Fatalf("PredictConcept() error = %v", err)
	}

	if pred.Name != "Green Organic Cafe" {
		t.Errorf("prediction name = %q, want echo of request name", pred.Name)
	}
	if pred.Demand < 0 || pred.Demand > 100 {
		t.Errorf("demand = %f, want [0, 100]", pred.Demand)
	}
	if pred.Competition < 0 || pred.Competition > 100 {
		t.Errorf("competition = %f, want [0, 100]", pred.Competition)
	}
	if pred.MarketGap != pred.Demand-pred.Competition {
		t.Errorf("market gap = %f, want exactly demand-competition = %f",
			pred.MarketGap, pred.Demand-pred.Competition)
	}
	if pred.Confidence < 0 || pred.Confidence > 100 {
		t.Errorf("confidence = %f, want [0, 100]", pred.Confidence)
	}
	if pred.Interpretation == "" || pred.Advice == "" {
		t.Error("prediction missing interpretation or advice")
	}
}

func TestPredictConceptNameDoesNotAffectPrediction(t *testing.T) {
	eng := newTestEngine(t, nil)

	base := ConceptRequest{Category: "Food", City: "Mumbai", Investment: 600000, RequestID: "fixed"}

	var want *Prediction
	for i, name := range []string{"Cafe Uno", "Totally Different Name", ""} {
		req := base
		req.Name = name
		pred, err := eng.PredictConcept(req)
		if err != nil {
			t.Fatalf("PredictConcept() error = %v", err)
		}
		pred.Name = ""
		if i == 0 {
			want = pred
			continue
		}
		if !reflect.DeepEqual(want, pred) {
			t.Errorf("prediction for name %q differs from baseline", name)
		}
	}
}

func TestPredictConceptInvalidInput(t *testing.T) {
	eng := newTestEngine(t, nil)

	tests := []struct {
		name string
		req  ConceptRequest
	}{
		{"negative investment", ConceptRequest{Name: "X", Category: "Food", City: "Pune", Investment: -100}},
		{"zero investment", ConceptRequest{Name: "X", Category: "Food", City: "Pune", Investment: 0}},
		{"empty category", ConceptRequest{Name: "X", City: "Pune", Investment: 100000}},
		{"empty city", ConceptRequest{Name: "X", Category: "Food", Investment: 100000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.PredictConcept(tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("PredictConcept() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPredictConceptUnseenLabelsFallBack(t *testing.T) {
	eng := newTestEngine(t, nil)

	pred, err := eng.PredictConcept(ConceptRequest{
		Name:       "Frontier Venture",
		Category:   "Aerospace",
		City:       "Atlantis",
		Investment: 1000000,
	})
	if err != nil {
		t.Fatalf("PredictConcept() error = %v, want fallback prediction", err)
	}
	if !pred.LowReliability {
		t.Error("prediction for unseen city and category not flagged low reliability")
	}
	if pred.Confidence > eng.cfg.Confidence.LowThreshold {
		t.Errorf("confidence = %f for pair with no historical support, want <= %f",
			pred.Confidence, eng.cfg.Confidence.LowThreshold)
	}
}

func TestConfidenceMonotonicInSupport(t *testing.T) {
	eng := newTestEngine(t, nil)

	// Same spreads, increasing support: confidence must never decrease.
	var prev float64
	for i, support := range []int{0, 1, 5, 10, 25, 100} {
		conf := eng.confidence(5, 5, support)
		if i > 0 && conf < prev {
			t.Errorf("confidence(support=%d) = %f < confidence at lower support %f", support, conf, prev)
		}
		prev = conf
	}

	// Zero support is capped at the low threshold regardless of agreement.
	if conf := eng.confidence(0, 0, 0); conf > eng.cfg.Confidence.LowThreshold {
		t.Errorf("confidence(spread=0, support=0) = %f, want <= %f",
			conf, eng.cfg.Confidence.LowThreshold)
	}

	// Wider ensemble spread lowers confidence at fixed support.
	if tight, loose := eng.confidence(1, 1, 10), eng.confidence(15, 15, 10); loose > tight {
		t.Errorf("confidence with loose spread %f > tight spread %f", loose, tight)
	}
}

func TestBudgetFitScore(t *testing.T) {
	eng := newTestEngine(t, nil)

	tests := []struct {
		name       string
		investment float64
		budget     float64
		want       float64
	}{
		{"exactly on budget", 1000000, 1000000, 100},
		{"comfortably affordable", 600000, 1000000, 100},
		{"at plausibility floor", 50000, 1000000, 100},
		{"implausibly small", 25000, 1000000, 87.5},
		{"double the budget", 2000000, 1000000, 50},
		{"four times the budget", 4000000, 1000000, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.budgetFitScore(tt.investment, tt.budget)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("budgetFitScore(%.0f, %.0f) = %f, want %f",
					tt.investment, tt.budget, got, tt.want)
			}
		})
	}
}

func TestScoreBands(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		score float64
		want  Band
	}{
		{95, BandExcellent},
		{80, BandExcellent},
		{79.9, BandGood},
		{65, BandGood},
		{64.9, BandAverage},
		{50, BandAverage},
		{49.9, BandPoor},
		{0, BandPoor},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score_%g", tt.score), func(t *testing.T) {
			if got := cfg.ScoreBand(tt.score); got != tt.want {
				t.Errorf("ScoreBand(%g) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative weight", func(c *Config) { c.Weights.MarketGap = -0.1 }, true},
		{"bands not descending", func(c *Config) { c.Bands.Good = 90 }, true},
		{"band above 100", func(c *Config) { c.Bands.Excellent = 101 }, true},
		{"plausible ratio at one", func(c *Config) { c.Budget.MinPlausibleRatio = 1 }, true},
		{"both confidence weights zero", func(c *Config) {
			c.Confidence.AgreementWeight = 0
			c.Confidence.DensityWeight = 0
		}, true},
		{"zero density baseline", func(c *Config) { c.Confidence.DensityBaseline = 0 }, true},
		{"low threshold above 100", func(c *Config) { c.Confidence.LowThreshold = 101 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScoreWeightsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreWeights
		want ScoreWeights
	}{
		{
			name: "defaults already sum to one",
			in:   ScoreWeights{MarketGap: 0.5, BudgetFit: 0.3, CategoryMatch: 0.2},
			want: ScoreWeights{MarketGap: 0.5, BudgetFit: 0.3, CategoryMatch: 0.2},
		},
		{
			name: "scaled weights normalize",
			in:   ScoreWeights{MarketGap: 5, BudgetFit: 3, CategoryMatch: 2},
			want: ScoreWeights{MarketGap: 0.5, BudgetFit: 0.3, CategoryMatch: 0.2},
		},
		{
			name: "all zero falls back to equal",
			in:   ScoreWeights{},
			want: ScoreWeights{MarketGap: 1.0 / 3, BudgetFit: 1.0 / 3, CategoryMatch: 1.0 / 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			for _, pair := range [][2]float64{
				{got.MarketGap, tt.want.MarketGap},
				{got.BudgetFit, tt.want.BudgetFit},
				{got.CategoryMatch, tt.want.CategoryMatch},
			} {
				if diff := pair[0] - pair[1]; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
					break
				}
			}
		})
	}
}
