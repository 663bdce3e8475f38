package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gr "github.com/jsdoublel/lineage/internal/graphs"
	pr "github.com/jsdoublel/lineage/internal/prep"
)

func treeData(t *testing.T, newick string) *gr.TreeData {
	t.Helper()
	td, err := pr.ProcessTree(newick, nil)
	require.NoError(t, err)
	return td
}

func TestCompare(t *testing.T) {
	testCases := []struct {
		name     string
		t1, t2   string
		opts     Options
		expected Result
		score    float64
	}{
		{
			name: "identical",
			t1:   "(@3A:1,@5B:2)@2naive:0;",
			t2:   "(@3A:1,@5B:2)@2naive:0;",
			opts: DefaultOptions(),
			expected: Result{
				Penalty: 1, Shared: 3, Total: 3, Comparable: true,
			},
			score: 0,
		},
		{
			name: "different leaves",
			t1:   "(@2A:1,B:2,C:3)naive:0;",
			t2:   "(A:1,B:1,D:1)naive:0;",
			opts: DefaultOptions(),
			expected: Result{
				Penalty: 0.6, Weight: 3, Dist: math.Sqrt(61), Connect: 2,
				Shared: 3, Total: 5, Comparable: true,
			},
			score: 0.6 * (5 + math.Sqrt(61)),
		},
		{
			name: "different leaves without connectivity",
			t1:   "(@2A:1,B:2,C:3)naive:0;",
			t2:   "(A:1,B:1,D:1)naive:0;",
			opts: Options{Connectivity: false},
			expected: Result{
				Penalty: 0.6, Weight: 3, Dist: math.Sqrt(61), Connect: 2,
				Shared: 3, Total: 5, Comparable: true,
			},
			score: 0.6 * (3 + math.Sqrt(61)),
		},
		{
			name:     "two shared names",
			t1:       "(A:1,B:1)naive:0;",
			t2:       "(A:1,C:1)naive:0;",
			opts:     DefaultOptions(),
			expected: Result{Shared: 2, Total: 4},
			score:    NotComparable,
		},
		{
			name:     "disjoint",
			t1:       "(A:1,B:1)r:0;",
			t2:       "(C:1,D:1)s:0;",
			opts:     DefaultOptions(),
			expected: Result{Shared: 0, Total: 6},
			score:    NotComparable,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			t1, t2 := treeData(t, test.t1), treeData(t, test.t2)
			res := Compare(t1, t2, test.opts)
			assert.Equal(t, test.expected.Comparable, res.Comparable)
			assert.Equal(t, test.expected.Shared, res.Shared)
			assert.Equal(t, test.expected.Total, res.Total)
			assert.InDelta(t, test.expected.Penalty, res.Penalty, 1e-12)
			assert.InDelta(t, test.expected.Weight, res.Weight, 1e-12)
			assert.InDelta(t, test.expected.Dist, res.Dist, 1e-12)
			assert.InDelta(t, test.expected.Connect, res.Connect, 1e-12)
			assert.InDelta(t, test.score, res.Score(), 1e-12)

			reverse := Compare(t2, t1, test.opts)
			assert.InDelta(t, res.Score(), reverse.Score(), 1e-9)
		})
	}
}

// the naive root offset cancels between trees with the same shape
func TestCompareRootOffset(t *testing.T) {
	t1 := treeData(t, "(A:1,(B:1,C:2)D:3)naive:0.5;")
	t2 := treeData(t, "(A:1,(B:1,C:2)D:3)naive:0.5;")
	assert.Zero(t, Compare(t1, t2, DefaultOptions()).Score())

	t3 := treeData(t, "(A:1,(B:1,C:2)D:3)naive:0;")
	res := Compare(t1, t3, DefaultOptions())
	require.True(t, res.Comparable)
	assert.Zero(t, res.Weight)
	assert.Zero(t, res.Connect)
	// only the four distances to naive differ, each by 0.5
	assert.InDelta(t, 1.0, res.Dist, 1e-12)
}

func TestSharedNames(t *testing.T) {
	t1 := treeData(t, "((seq10:1,seq2:1):1,seq1:2)naive:0;")
	t2 := treeData(t, "(seq1:1,seq2:1,seq10:1,seq3:1)naive:0;")
	assert.Equal(t, []string{"seq1", "seq2", "naive", "seq10"}, SharedNames(t1, t2))
}

func TestCompareOrderIndependent(t *testing.T) {
	a := treeData(t, "((A:1,B:2)E:1,(C:1,D:3)F:2)naive:0.2;")
	b := treeData(t, "((D:3,C:1)F:2,(B:2,A:1)E:1)naive:0.2;")
	res := Compare(a, b, DefaultOptions())
	require.True(t, res.Comparable)
	assert.InDelta(t, 0, res.Score(), 1e-12)
}
