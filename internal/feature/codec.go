// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package feature provides the deterministic feature codec shared by model
// training and inference.
//
// The codec maps (city, category, investment) to a fixed-order numeric
// vector: integer label codes for the categorical fields, standardized
// investment transforms, and per-city / per-category aggregates derived from
// the catalog. It is fitted exactly once against the full historical dataset
// and frozen; after Fit all state is read-only and safe to share across
// goroutines.
//
// Encoding an unseen city or category never fails. It degrades to the most
// frequent label observed at fit time and flags the vector so callers can
// log the fallback as a quality signal. Calling Encode before Fit is a
// programming error and panics.
package feature

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/venturescope/internal/dataset"
)

// NumFeatures is the length of every encoded vector. The order is fixed:
// city code, category code, log1p(investment), investment in millions,
// city mean demand, city mean competition, city mean investment (millions),
// category mean demand, category mean competition.
const NumFeatures = 9

// Vector is the codec output consumed by the prediction models.
type Vector struct {
	// Values holds the standardized features in fixed order.
	Values [NumFeatures]float64

	// CityUnseen and CategoryUnseen report that the corresponding label was
	// not part of the fitted catalog and the fallback code was used.
	CityUnseen     bool
	CategoryUnseen bool
}

// Aggregate holds the catalog means backing the derived features for one
// label. Investment is kept in millions so the raw features stay in
// comparable ranges before standardization.
type Aggregate struct {
	Demand            float64
	Competition       float64
	InvestmentMillion float64
}

// Params is the frozen, serializable codec state. It is the artifact written
// by training and loaded at engine startup.
type Params struct {
	// Cities and Categories map labels to integer codes. Codes are assigned
	// in sorted label order, so fitting the same catalog always yields the
	// same maps.
	Cities     map[string]int
	Categories map[string]int

	// CityFallback and CategoryFallback are the most frequent labels at fit
	// time, used for unseen inputs.
	CityFallback     string
	CategoryFallback string

	// Mean and Std are the per-feature standardization parameters.
	Mean []float64
	Std  []float64

	// CityAgg and CategoryAgg hold the derived aggregate features.
	CityAgg     map[string]Aggregate
	CategoryAgg map[string]Aggregate
}

// Codec encodes categorical and continuous inputs into model features.
type Codec struct {
	fitted bool
	params Params
}

// New returns an unfitted codec. Fit must be called before Encode.
func New() *Codec {
	return &Codec{}
}

// NewFromParams restores a codec from frozen parameters, typically loaded
// from the encoder artifact.
func NewFromParams(p Params) *Codec {
	return &Codec{fitted: true, params: p}
}

// Fit builds the label maps, aggregates and scaler parameters from the full
// catalog. It must be called exactly once, before any Encode.
func (c *Codec) Fit(records []dataset.BusinessRecord) {
	cityCount := make(map[string]int)
	categoryCount := make(map[string]int)
	for _, rec := range records {
		cityCount[rec.City]++
		categoryCount[rec.Category]++
	}

	c.params = Params{
		Cities:           assignCodes(cityCount),
		Categories:       assignCodes(categoryCount),
		CityFallback:     mostFrequent(cityCount),
		CategoryFallback: mostFrequent(categoryCount),
		CityAgg:          aggregateBy(records, func(r dataset.BusinessRecord) string { return r.City }),
		CategoryAgg:      aggregateBy(records, func(r dataset.BusinessRecord) string { return r.Category }),
	}

	// Fit the scaler on the raw vectors of the full catalog.
	columns := make([][]float64, NumFeatures)
	for i := range columns {
		columns[i] = make([]float64, 0, len(records))
	}
	for _, rec := range records {
		raw := c.rawVector(rec.City, rec.Category, rec.Investment)
		for i, v := range raw {
			columns[i] = append(columns[i], v)
		}
	}

	c.params.Mean = make([]float64, NumFeatures)
	c.params.Std = make([]float64, NumFeatures)
	for i, col := range columns {
		mean, std := stat.MeanStdDev(col, nil)
		if math.IsNaN(std) || std == 0 {
			std = 1 // constant column, leave values centered only
		}
		c.params.Mean[i] = mean
		c.params.Std[i] = std
	}

	c.fitted = true
}

// Encode maps (city, category, investment) to a standardized feature vector.
// Unseen labels fall back to the most frequent label's code and aggregates.
// Encode panics if the codec has not been fitted.
func (c *Codec) Encode(city, category string, investment float64) Vector {
	if !c.fitted {
		panic("feature: Encode called before Fit")
	}

	var v Vector
	if _, ok := c.params.Cities[city]; !ok {
		city = c.params.CityFallback
		v.CityUnseen = true
	}
	if _, ok := c.params.Categories[category]; !ok {
		category = c.params.CategoryFallback
		v.CategoryUnseen = true
	}

	raw := c.rawVector(city, category, investment)
	for i, x := range raw {
		v.Values[i] = (x - c.params.Mean[i]) / c.params.Std[i]
	}
	return v
}

// rawVector builds the pre-standardization feature values. city and category
// must already be known labels.
func (c *Codec) rawVector(city, category string, investment float64) [NumFeatures]float64 {
	cityAgg := c.params.CityAgg[city]
	categoryAgg := c.params.CategoryAgg[category]

	return [NumFeatures]float64{
		float64(c.params.Cities[city]),
		float64(c.params.Categories[category]),
		math.Log1p(investment),
		investment / 1e6,
		cityAgg.Demand,
		cityAgg.Competition,
		cityAgg.InvestmentMillion,
		categoryAgg.Demand,
		categoryAgg.Competition,
	}
}

// Fitted reports whether Fit has completed.
func (c *Codec) Fitted() bool {
	return c.fitted
}

// Params returns the frozen codec state for persistence. The caller must not
// mutate the returned maps.
func (c *Codec) Params() Params {
	return c.params
}

// Fingerprint returns a stable hash of the fitted state. Models record the
// fingerprint of the codec they were trained against; a mismatch at load
// time means the artifacts are incompatible.
func (c *Codec) Fingerprint() string {
	if !c.fitted {
		panic("feature: Fingerprint called before Fit")
	}

	h := sha256.New()
	writeLabelMap(h, c.params.Cities)
	writeLabelMap(h, c.params.Categories)
	for i := range c.params.Mean {
		writeFloat(h, c.params.Mean[i])
		writeFloat(h, c.params.Std[i])
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func writeLabelMap(h interface{ Write(p []byte) (int, error) }, m map[string]int) {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		_, _ = h.Write([]byte(label))
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(m[label]))
		_, _ = h.Write(buf[:])
	}
}

func writeFloat(h interface{ Write(p []byte) (int, error) }, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, _ = h.Write(buf[:])
}

// assignCodes assigns integer codes in sorted label order.
func assignCodes(counts map[string]int) map[string]int {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	codes := make(map[string]int, len(labels))
	for i, label := range labels {
		codes[label] = i
	}
	return codes
}

// mostFrequent returns the label with the highest count; ties break
// alphabetically for determinism.
func mostFrequent(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var best string
	bestCount := -1
	for _, label := range labels {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}

func aggregateBy(records []dataset.BusinessRecord, key func(dataset.BusinessRecord) string) map[string]Aggregate {
	type acc struct {
		demand, competition, investment float64
		count                           int
	}
	accs := make(map[string]*acc)
	for _, rec := range records {
		k := key(rec)
		a, ok := accs[k]
		if !ok {
			a = &acc{}
			accs[k] = a
		}
		a.demand += rec.Demand
		a.competition += rec.Competition
		a.investment += rec.Investment
		a.count++
	}

	out := make(map[string]Aggregate, len(accs))
	for k, a := range accs {
		n := float64(a.count)
		out[k] = Aggregate{
			Demand:            a.demand / n,
			Competition:       a.competition / n,
			InvestmentMillion: a.investment / n / 1e6,
		}
	}
	return out
}
