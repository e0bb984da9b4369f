// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package dataset loads and indexes the historical business catalog.
//
// The catalog is a CSV file with a fixed column schema (City, Category,
// Business, Investment, Demand, Competition). It is loaded once at process
// start and is immutable afterwards; all lookups are read-only and safe for
// concurrent use without locking.
//
// A missing or malformed catalog is a fatal startup condition: the engine
// cannot serve any request without it. Filtering, by contrast, never fails —
// an empty result is a valid outcome that signals "no match" to the caller.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
)

// Required CSV columns, in no particular order. The header may contain
// additional columns; they are ignored.
const (
	colCity        = "City"
	colCategory    = "Category"
	colBusiness    = "Business"
	colInvestment  = "Investment"
	colDemand      = "Demand"
	colCompetition = "Competition"
)

// Score bounds for demand and competition values.
const (
	ScoreMin = 0.0
	ScoreMax = 100.0
)

var (
	// ErrMissingFile indicates the catalog file does not exist.
	ErrMissingFile = errors.New("dataset: catalog file not found")

	// ErrSchema indicates the catalog header is missing required columns.
	ErrSchema = errors.New("dataset: catalog schema mismatch")

	// ErrMalformedRow indicates a row could not be parsed into a record.
	ErrMalformedRow = errors.New("dataset: malformed catalog row")
)

// BusinessRecord is one row of the historical catalog.
//
// Demand and Competition are always within [0, 100] and Investment is always
// positive; Load enforces both. The Business name is advisory only and never
// feeds the numeric models.
type BusinessRecord struct {
	City        string  `json:"city"`
	Category    string  `json:"category"`
	Business    string  `json:"business"`
	Investment  float64 `json:"investment"`
	Demand      float64 `json:"demand"`
	Competition float64 `json:"competition"`
}

// Stats aggregates the catalog rows for a (city, category) pair.
// A Count of zero signals that the pair has no historical support.
type Stats struct {
	MeanDemand      float64 `json:"mean_demand"`
	MeanCompetition float64 `json:"mean_competition"`
	MeanInvestment  float64 `json:"mean_investment"`
	Count           int     `json:"count"`
}

// CitySummary aggregates all catalog rows for a single city.
type CitySummary struct {
	TotalBusinesses int     `json:"total_businesses"`
	Categories      int     `json:"categories"`
	AvgDemand       float64 `json:"avg_demand"`
	AvgCompetition  float64 `json:"avg_competition"`
	MinInvestment   float64 `json:"min_investment"`
	MaxInvestment   float64 `json:"max_investment"`
	AvgInvestment   float64 `json:"avg_investment"`
	TopCategory     string  `json:"top_category"`
}

// CategoryProfile aggregates the rows of one category within a city.
type CategoryProfile struct {
	AvgDemand      float64 `json:"avg_demand"`
	AvgCompetition float64 `json:"avg_competition"`
	AvgInvestment  float64 `json:"avg_investment"`
	MinInvestment  float64 `json:"min_investment"`
	MaxInvestment  float64 `json:"max_investment"`
	BusinessCount  int     `json:"business_count"`
	MarketGap      float64 `json:"market_gap"`
}

// pairKey indexes records by (city, category).
type pairKey struct {
	city     string
	category string
}

// Store holds the loaded catalog and its indexes. Records never mutate after
// Load; the Store owns them for the process lifetime.
type Store struct {
	records []BusinessRecord

	byCity     map[string][]int
	byPair     map[pairKey][]int
	byCategory map[string][]int

	minInvestment float64
	maxInvestment float64
}

// Load reads the catalog from path and builds the in-memory indexes.
// Any failure here is fatal to the caller: a missing file returns
// ErrMissingFile, a header without the required columns returns ErrSchema,
// and an unparseable row returns ErrMalformedRow. All are wrapped with
// positional detail.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, fmt.Errorf("dataset: open catalog: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a catalog from r. Exposed separately so tests and tooling can
// load fixtures without touching the filesystem.
func Read(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: empty catalog", ErrSchema)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	s := &Store{
		byCity:        make(map[string][]int),
		byPair:        make(map[pairKey][]int),
		byCategory:    make(map[string][]int),
		minInvestment: math.Inf(1),
		maxInvestment: math.Inf(-1),
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		rec, err := parseRecord(row, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		idx := len(s.records)
		s.records = append(s.records, rec)
		s.byCity[rec.City] = append(s.byCity[rec.City], idx)
		s.byCategory[rec.Category] = append(s.byCategory[rec.Category], idx)
		key := pairKey{city: rec.City, category: rec.Category}
		s.byPair[key] = append(s.byPair[key], idx)

		if rec.Investment < s.minInvestment {
			s.minInvestment = rec.Investment
		}
		if rec.Investment > s.maxInvestment {
			s.maxInvestment = rec.Investment
		}
	}

	if len(s.records) == 0 {
		return nil, fmt.Errorf("%w: catalog has no rows", ErrMalformedRow)
	}

	return s, nil
}

// mapColumns resolves required column names to indexes in the header.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	for _, required := range []string{colCity, colCategory, colBusiness, colInvestment, colDemand, colCompetition} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchema, required)
		}
	}

	return cols, nil
}

// parseRecord converts a CSV row into a BusinessRecord, enforcing the
// catalog invariants: positive investment, scores clamped to [0, 100].
func parseRecord(row []string, cols map[string]int) (BusinessRecord, error) {
	get := func(col string) (string, error) {
		i := cols[col]
		if i >= len(row) {
			return "", fmt.Errorf("short row: no value for %q", col)
		}
		return row[i], nil
	}

	var rec BusinessRecord
	var err error

	if rec.City, err = get(colCity); err != nil {
		return rec, err
	}
	if rec.Category, err = get(colCategory); err != nil {
		return rec, err
	}
	if rec.Business, err = get(colBusiness); err != nil {
		return rec, err
	}
	if rec.City == "" || rec.Category == "" {
		return rec, fmt.Errorf("empty city or category")
	}

	if rec.Investment, err = parseFloat(row, cols, colInvestment); err != nil {
		return rec, err
	}
	if rec.Investment <= 0 {
		return rec, fmt.Errorf("non-positive investment %v", rec.Investment)
	}

	if rec.Demand, err = parseFloat(row, cols, colDemand); err != nil {
		return rec, err
	}
	if rec.Competition, err = parseFloat(row, cols, colCompetition); err != nil {
		return rec, err
	}

	rec.Demand = clampScore(rec.Demand)
	rec.Competition = clampScore(rec.Competition)

	return rec, nil
}

func parseFloat(row []string, cols map[string]int, col string) (float64, error) {
	i := cols[col]
	if i >= len(row) {
		return 0, fmt.Errorf("short row: no value for %q", col)
	}
	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %v", col, err)
	}
	return v, nil
}

func clampScore(v float64) float64 {
	if v < ScoreMin {
		return ScoreMin
	}
	if v > ScoreMax {
		return ScoreMax
	}
	return v
}

// Len returns the number of catalog records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns all catalog records in load order. The returned slice must
// be treated as read-only.
func (s *Store) Records() []BusinessRecord {
	return s.records
}

// Filter returns the records for city whose category is in categories,
// preserving catalog order. An empty categories set matches nothing; a city
// with no rows yields an empty result. Filter never fails.
func (s *Store) Filter(city string, categories []string) []BusinessRecord {
	idxs, ok := s.byCity[city]
	if !ok || len(categories) == 0 {
		return nil
	}

	want := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		want[c] = struct{}{}
	}

	var out []BusinessRecord
	for _, i := range idxs {
		if _, ok := want[s.records[i].Category]; ok {
			out = append(out, s.records[i])
		}
	}
	return out
}

// Stats aggregates the rows for (city, category). A zero Count means the
// pair has no historical support; callers use that as a sparsity signal.
func (s *Store) Stats(city, category string) Stats {
	return s.statsOf(s.byPair[pairKey{city: city, category: category}])
}

// CategoryStats aggregates all rows for a category across every city. It is
// the fallback when a (city, category) pair is unseen.
func (s *Store) CategoryStats(category string) Stats {
	return s.statsOf(s.byCategory[category])
}

func (s *Store) statsOf(idxs []int) Stats {
	if len(idxs) == 0 {
		return Stats{}
	}

	var st Stats
	for _, i := range idxs {
		st.MeanDemand += s.records[i].Demand
		st.MeanCompetition += s.records[i].Competition
		st.MeanInvestment += s.records[i].Investment
	}
	n := float64(len(idxs))
	st.MeanDemand /= n
	st.MeanCompetition /= n
	st.MeanInvestment /= n
	st.Count = len(idxs)
	return st
}

// Cities returns the distinct cities in the catalog, sorted.
func (s *Store) Cities() []string {
	return sortedKeys(s.byCity)
}

// Categories returns the distinct categories in the catalog, sorted.
func (s *Store) Categories() []string {
	return sortedKeys(s.byCategory)
}

// InvestmentRange returns the minimum and maximum investment in the catalog.
func (s *Store) InvestmentRange() (min, max float64) {
	return s.minInvestment, s.maxInvestment
}

// Summary aggregates all rows of a city for the dashboard overview.
// The second return value is false when the city has no rows.
func (s *Store) Summary(city string) (CitySummary, bool) {
	idxs, ok := s.byCity[city]
	if !ok {
		return CitySummary{}, false
	}

	sum := CitySummary{
		TotalBusinesses: len(idxs),
		MinInvestment:   math.Inf(1),
		MaxInvestment:   math.Inf(-1),
	}

	counts := make(map[string]int)
	for _, i := range idxs {
		rec := s.records[i]
		sum.AvgDemand += rec.Demand
		sum.AvgCompetition += rec.Competition
		sum.AvgInvestment += rec.Investment
		counts[rec.Category]++
		if rec.Investment < sum.MinInvestment {
			sum.MinInvestment = rec.Investment
		}
		if rec.Investment > sum.MaxInvestment {
			sum.MaxInvestment = rec.Investment
		}
	}

	n := float64(len(idxs))
	sum.AvgDemand /= n
	sum.AvgCompetition /= n
	sum.AvgInvestment /= n
	sum.Categories = len(counts)
	sum.TopCategory = topCategory(counts)

	return sum, true
}

// CategoryAnalysis returns per-category aggregates for a city, keyed by
// category. An unknown city yields an empty map.
func (s *Store) CategoryAnalysis(city string) map[string]CategoryProfile {
	idxs := s.byCity[city]
	out := make(map[string]CategoryProfile)

	type acc struct {
		demand, competition, investment float64
		min, max                        float64
		count                           int
	}
	accs := make(map[string]*acc)

	for _, i := range idxs {
		rec := s.records[i]
		a, ok := accs[rec.Category]
		if !ok {
			a = &acc{min: math.Inf(1), max: math.Inf(-1)}
			accs[rec.Category] = a
		}
		a.demand += rec.Demand
		a.competition += rec.Competition
		a.investment += rec.Investment
		a.count++
		if rec.Investment < a.min {
			a.min = rec.Investment
		}
		if rec.Investment > a.max {
			a.max = rec.Investment
		}
	}

	for category, a := range accs {
		n := float64(a.count)
		p := CategoryProfile{
			AvgDemand:      a.demand / n,
			AvgCompetition: a.competition / n,
			AvgInvestment:  a.investment / n,
			MinInvestment:  a.min,
			MaxInvestment:  a.max,
			BusinessCount:  a.count,
		}
		p.MarketGap = p.AvgDemand - p.AvgCompetition
		out[category] = p
	}

	return out
}

// topCategory returns the most frequent category; ties break alphabetically
// for determinism.
func topCategory(counts map[string]int) string {
	var best string
	bestCount := -1
	for _, category := range sortedKeys(counts) {
		if counts[category] > bestCount {
			best = category
			bestCount = counts[category]
		}
	}
	return best
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
