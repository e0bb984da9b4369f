// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

package model

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/tomtom215/venturescope/internal/feature"
)

// TrainConfig controls the offline training step. It mirrors the
// hyperparameters the catalog models were originally tuned with.
type TrainConfig struct {
	// NumTrees is the ensemble size. Default: 100.
	NumTrees int `koanf:"num_trees" json:"num_trees"`

	// MaxDepth limits tree depth. Default: 10.
	MaxDepth int `koanf:"max_depth" json:"max_depth"`

	// MinSamplesSplit is the minimum node size eligible for splitting.
	// Default: 5.
	MinSamplesSplit int `koanf:"min_samples_split" json:"min_samples_split"`

	// MinSamplesLeaf is the minimum number of samples in a leaf. Default: 2.
	MinSamplesLeaf int `koanf:"min_samples_leaf" json:"min_samples_leaf"`

	// Seed drives bootstrap sampling. Training with the same seed and data
	// always produces the same forest. Default: 42.
	Seed int64 `koanf:"seed" json:"seed"`
}

// DefaultTrainConfig returns the standard hyperparameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// Validate checks the hyperparameters.
func (c TrainConfig) Validate() error {
	if c.NumTrees < 1 {
		return fmt.Errorf("model: num_trees must be positive, got %d", c.NumTrees)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("model: max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("model: min_samples_split must be >= 2, got %d", c.MinSamplesSplit)
	}
	if c.MinSamplesLeaf < 1 {
		return fmt.Errorf("model: min_samples_leaf must be positive, got %d", c.MinSamplesLeaf)
	}
	return nil
}

// Train fits a regression forest for target on the encoded catalog. It is an
// offline batch step: the serving engine only ever sees the resulting frozen
// Forest. Training is deterministic for a fixed config and input.
func Train(cfg TrainConfig, target, codecFingerprint string, vectors []feature.Vector, targets []float64) (*Forest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch target {
	case TargetDemand, TargetCompetition:
	default:
		return nil, fmt.Errorf("model: unknown target %q", target)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("model: no training data for %s", target)
	}
	if len(vectors) != len(targets) {
		return nil, fmt.Errorf("model: %d vectors but %d targets", len(vectors), len(targets))
	}

	xs := make([][feature.NumFeatures]float64, len(vectors))
	for i, v := range vectors {
		xs[i] = v.Values
	}

	f := &Forest{
		Target:           target,
		CodecFingerprint: codecFingerprint,
		Trees:            make([]Tree, cfg.NumTrees),
		TrainedOn:        len(vectors),
	}

	for t := 0; t < cfg.NumTrees; t++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(t))) //nolint:gosec // deterministic bootstrap, not crypto
		sample := bootstrap(rng, len(xs))
		f.Trees[t] = growTree(cfg, xs, targets, sample)
	}

	return f, nil
}

// bootstrap draws n indices with replacement.
func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

// growTree builds a single CART regression tree on the sampled indices.
func growTree(cfg TrainConfig, xs [][feature.NumFeatures]float64, ys []float64, idx []int) Tree {
	b := &treeBuilder{cfg: cfg, xs: xs, ys: ys}
	b.grow(idx, 0)
	return Tree{Nodes: b.nodes}
}

type treeBuilder struct {
	cfg   TrainConfig
	xs    [][feature.NumFeatures]float64
	ys    []float64
	nodes []Node
}

// grow appends the subtree for idx and returns its root node index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	node := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: meanOf(b.ys, idx)})

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit {
		return node
	}

	feat, threshold, ok := b.bestSplit(idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.xs[i][feat] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.cfg.MinSamplesLeaf || len(right) < b.cfg.MinSamplesLeaf {
		return node
	}

	leftNode := b.grow(left, depth+1)
	rightNode := b.grow(right, depth+1)

	b.nodes[node].Feature = feat
	b.nodes[node].Threshold = threshold
	b.nodes[node].Left = leftNode
	b.nodes[node].Right = rightNode
	return node
}

// bestSplit searches every feature for the threshold with the largest sum of
// squared error reduction. Candidates are midpoints between adjacent
// distinct values, ensuring both sides honor MinSamplesLeaf.
func (b *treeBuilder) bestSplit(idx []int) (feat int, threshold float64, ok bool) {
	bestSSE := sseOf(b.ys, idx)
	if bestSSE <= 0 {
		return 0, 0, false // node is already pure
	}

	n := len(idx)
	order := make([]int, n)
	for f := 0; f < feature.NumFeatures; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool {
			return b.xs[order[a]][f] < b.xs[order[c]][f]
		})

		var leftSum, leftSq float64
		totalSum, totalSq := sumsOf(b.ys, idx)

		for i := 0; i < n-1; i++ {
			y := b.ys[order[i]]
			leftSum += y
			leftSq += y * y

			lo, hi := b.xs[order[i]][f], b.xs[order[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < b.cfg.MinSamplesLeaf || nr < b.cfg.MinSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE {
				bestSSE = sse
				feat = f
				threshold = (lo + hi) / 2
				ok = true
			}
		}
	}

	return feat, threshold, ok
}

func meanOf(ys []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += ys[i]
	}
	return sum / float64(len(idx))
}

func sumsOf(ys []float64, idx []int) (sum, sq float64) {
	for _, i := range idx {
		sum += ys[i]
		sq += ys[i] * ys[i]
	}
	return sum, sq
}

func sseOf(ys []float64, idx []int) float64 {
	sum, sq := sumsOf(ys, idx)
	return sq - sum*sum/float64(len(idx))
}
