package score

import (
	"context"
	"log"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	gr "github.com/jsdoublel/lineage/internal/graphs"
)

// Pairwise scores of a batch of trees: 0 on the diagonal, NotComparable for
// pairs sharing too few nodes
func Matrix(trees []*gr.TreeData, nprocs int, opts Options) *mat.SymDense {
	n := len(trees)
	log.Printf("comparing %d pairs of trees", n*(n-1)/2)
	if n == 0 {
		return &mat.SymDense{}
	}
	scores := mat.NewSymDense(n, nil)
	rows := make([][]float64, n)
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(max(nprocs, 1))
	for i := range n {
		g.Go(func() error {
			rows[i] = make([]float64, n)
			for j := i + 1; j < n; j++ {
				rows[i][j] = Compare(trees[i], trees[j], opts).Score()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			scores.SetSym(i, j, rows[i][j])
		}
	}
	return scores
}

// Scores of the comparable pairs above the diagonal
func Comparable(scores mat.Symmetric) []float64 {
	n := scores.SymmetricDim()
	values := make([]float64, 0, n*(n-1)/2)
	for i := range n {
		for j := i + 1; j < n; j++ {
			if s := scores.At(i, j); s != NotComparable {
				values = append(values, s)
			}
		}
	}
	return values
}

type Summary struct {
	Pairs      int // all pairs
	Comparable int // pairs with a score
	Mean       float64
	StdDev     float64
	Median     float64
	Min        float64
	Max        float64
}

// Summary statistics over the comparable scores; the statistics are NaN when
// no pair is comparable
func Summarize(scores mat.Symmetric) Summary {
	n := scores.SymmetricDim()
	values := Comparable(scores)
	sum := Summary{Pairs: n * (n - 1) / 2, Comparable: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		sum.Mean, sum.StdDev, sum.Median, sum.Min, sum.Max = nan, nan, nan, nan, nan
		return sum
	}
	slices.Sort(values)
	sum.Mean, sum.StdDev = stat.MeanStdDev(values, nil)
	sum.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	sum.Min, sum.Max = values[0], values[len(values)-1]
	return sum
}
