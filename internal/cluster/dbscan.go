// Package implementing density based clustering of trees over their
// precomputed pairwise scores
package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"
)

const Noise = -1

var ErrInvalidConfig = errors.New("invalid cluster config")

type Config struct {
	Epsilon   float64 // largest score between two neighbors (inclusive)
	MinPoints int     // neighbors (self included) needed for a core point
}

func (cfg Config) Validate() error {
	if cfg.Epsilon < 0 || math.IsNaN(cfg.Epsilon) {
		return fmt.Errorf("%w, epsilon must be non-negative, but is %f", ErrInvalidConfig, cfg.Epsilon)
	}
	if cfg.MinPoints < 1 {
		return fmt.Errorf("%w, min points must be at least 1, but is %d", ErrInvalidConfig, cfg.MinPoints)
	}
	return nil
}

type Result struct {
	Labels   []int // cluster of each tree (0-indexed) or Noise
	Clusters int   // number of clusters found
	Core     *bitset.BitSet
}

// Runs DBSCAN over a symmetric score matrix. Negative scores mark pairs that
// are not comparable; such trees are never neighbors. Cluster ids follow the
// order in which their first core point appears.
func DBSCAN(scores mat.Symmetric, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := scores.SymmetricDim()
	neighbors := make([][]int, n)
	core := bitset.New(uint(n))
	for i := range n {
		for j := range n {
			if s := scores.At(i, j); i == j || (s >= 0 && s <= cfg.Epsilon) {
				neighbors[i] = append(neighbors[i], j)
			}
		}
		if len(neighbors[i]) >= cfg.MinPoints {
			core.Set(uint(i))
		}
	}
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	visited := bitset.New(uint(n))
	cluster := 0
	for i := range n {
		if visited.Test(uint(i)) || !core.Test(uint(i)) {
			continue
		}
		queue := []int{i}
		visited.Set(uint(i))
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			labels[p] = cluster
			if !core.Test(uint(p)) {
				continue
			}
			for _, q := range neighbors[p] {
				if visited.Test(uint(q)) {
					continue
				}
				visited.Set(uint(q))
				queue = append(queue, q)
			}
		}
		cluster++
	}
	return &Result{Labels: labels, Clusters: cluster, Core: core}, nil
}
