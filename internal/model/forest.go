// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package model implements the demand and competition regressors.
//
// Each model is an ensemble of regression trees (random-forest style) whose
// parameters are produced by an offline training step and frozen. At
// inference a prediction is a pure function of the feature vector: no locks,
// no side effects, no shared mutable state. Outputs are clamped to [0, 100]
// because the underlying regressor has no hard output bound.
//
// The per-tree spread of an ensemble prediction is exposed alongside the
// mean; the engine folds it into its confidence derivation.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/venturescope/internal/feature"
)

// Model targets. A forest predicts exactly one of these.
const (
	TargetDemand      = "demand"
	TargetCompetition = "competition"
)

// Output bounds applied after prediction.
const (
	OutputMin = 0.0
	OutputMax = 100.0
)

// Node is one node of a regression tree. Leaves have Feature == -1 and carry
// the prediction in Value; internal nodes route on Values[Feature] <= Threshold.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a single regression tree stored as a flat node array. Node 0 is
// the root.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(values [feature.NumFeatures]float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if values[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is a frozen regression ensemble for a single target.
type Forest struct {
	// Target is TargetDemand or TargetCompetition.
	Target string

	// CodecFingerprint identifies the feature codec the forest was trained
	// against. The engine refuses forests whose fingerprint does not match
	// the loaded codec.
	CodecFingerprint string

	// Trees are the ensemble members.
	Trees []Tree

	// TrainedOn is the number of catalog records used for training.
	TrainedOn int
}

// Validate checks that the forest is structurally usable.
func (f *Forest) Validate() error {
	switch f.Target {
	case TargetDemand, TargetCompetition:
	default:
		return fmt.Errorf("model: unknown target %q", f.Target)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("model: %s forest has no trees", f.Target)
	}
	for i := range f.Trees {
		if len(f.Trees[i].Nodes) == 0 {
			return fmt.Errorf("model: %s forest tree %d is empty", f.Target, i)
		}
	}
	return nil
}

// Predict returns the ensemble mean for v, clamped to [0, 100].
func (f *Forest) Predict(v feature.Vector) float64 {
	mean, _ := f.PredictWithSpread(v)
	return mean
}

// PredictWithSpread returns the clamped ensemble mean and the standard
// deviation across the constituent trees. A small spread means the trees
// agree; the engine uses it as one input to confidence.
func (f *Forest) PredictWithSpread(v feature.Vector) (mean, spread float64) {
	preds := make([]float64, len(f.Trees))
	for i := range f.Trees {
		preds[i] = f.Trees[i].Predict(v.Values)
	}

	m, std := stat.MeanStdDev(preds, nil)
	if len(preds) < 2 {
		std = 0
	}
	return clamp(m), std
}

func clamp(v float64) float64 {
	if v < OutputMin {
		return OutputMin
	}
	if v > OutputMax {
		return OutputMax
	}
	return v
}
