package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	gr "github.com/jsdoublel/lineage/internal/graphs"
)

func TestMatrix(t *testing.T) {
	trees := []*gr.TreeData{
		treeData(t, "(@2A:1,B:2,C:3)naive:0;"),
		treeData(t, "(A:1,B:1,D:1)naive:0;"),
		treeData(t, "(X:1,Y:1)naive:0;"),
		treeData(t, "(@2A:1,B:2,C:3)naive:0;"),
	}
	for _, nprocs := range []int{1, 3} {
		scores := Matrix(trees, nprocs, DefaultOptions())
		n := scores.SymmetricDim()
		assert.Equal(t, len(trees), n)
		for i := range n {
			assert.Zero(t, scores.At(i, i))
			for j := range n {
				assert.Equal(t, scores.At(i, j), scores.At(j, i))
			}
		}
		assert.InDelta(t, 0.6*(5+math.Sqrt(61)), scores.At(0, 1), 1e-12)
		assert.Equal(t, NotComparable, scores.At(0, 2))
		assert.Equal(t, NotComparable, scores.At(1, 2))
		assert.Zero(t, scores.At(0, 3))
	}
}

func TestSummarize(t *testing.T) {
	trees := []*gr.TreeData{
		treeData(t, "(@2A:1,B:2,C:3)naive:0;"),
		treeData(t, "(A:1,B:1,D:1)naive:0;"),
		treeData(t, "(X:1,Y:1)naive:0;"),
		treeData(t, "(@2A:1,B:2,C:3)naive:0;"),
	}
	scores := Matrix(trees, 2, DefaultOptions())
	comparable := Comparable(scores)
	assert.Len(t, comparable, 3)

	sum := Summarize(scores)
	assert.Equal(t, 6, sum.Pairs)
	assert.Equal(t, 3, sum.Comparable)
	s := 0.6 * (5 + math.Sqrt(61))
	assert.InDelta(t, 2*s/3, sum.Mean, 1e-12)
	assert.InDelta(t, s, sum.Median, 1e-12)
	assert.Zero(t, sum.Min)
	assert.InDelta(t, s, sum.Max, 1e-12)

	none := Summarize(Matrix(trees[2:3], 1, DefaultOptions()))
	assert.Equal(t, 0, none.Pairs)
	assert.True(t, math.IsNaN(none.Mean))
}
