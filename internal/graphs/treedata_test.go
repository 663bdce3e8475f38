package graphs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeTreeData(t *testing.T) {
	testCases := []struct {
		name     string
		lineage  func() *Lineage
		expected map[[2]string]float64
	}{
		{
			name:    "cherry",
			lineage: cherry,
			expected: map[[2]string]float64{
				{"A", "B"}:       3,
				{"A", NaiveName}: 1,
				{"B", NaiveName}: 2,
			},
		},
		{
			name:    "root offset",
			lineage: offsetTree,
			expected: map[[2]string]float64{
				{"A", NaiveName}: 1.5,
				{"D", NaiveName}: 3.5,
				{"B", NaiveName}: 4.5,
				{"A", "D"}:       4,
				{"A", "B"}:       5,
				{"A", "C"}:       6,
				{"B", "C"}:       3,
				{"B", "D"}:       1,
			},
		},
		{
			name:    "synthesized",
			lineage: synthTree,
			expected: map[[2]string]float64{
				{"A", "B"}:       2,
				{"A", "node1"}:   1,
				{"A", "C"}:       4,
				{"A", NaiveName}: 2,
				{"C", "node1"}:   3,
			},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			td := MakeTreeData(test.lineage())
			require.NoError(t, td.Verify())
			for pair, want := range test.expected {
				got, ok := td.NamedDistance(pair[0], pair[1])
				require.True(t, ok)
				assert.InDelta(t, want, got, 1e-12, "distance %s-%s", pair[0], pair[1])
			}
		})
	}
}

func TestTreeDataProperties(t *testing.T) {
	for name, lineage := range map[string]func() *Lineage{
		"cherry":      cherry,
		"root offset": offsetTree,
		"synthesized": synthTree,
	} {
		t.Run(name, func(t *testing.T) {
			td := MakeTreeData(lineage())
			n := td.FullSize()
			for i := range n {
				assert.Zero(t, td.Distance(i, i))
				for j := range n {
					assert.Equal(t, td.Distance(i, j), td.Distance(j, i))
					assert.Equal(t, td.Adjacent(i, j), td.Adjacent(j, i))
					assert.False(t, math.IsInf(td.Distance(i, j), 0))
				}
			}
			for _, e := range td.Edges {
				assert.True(t, td.Adjacent(e.Child, e.Parent))
			}
		})
	}
}

// distances add up along a path: B -> D -> naive -> A
func TestPathAdditivity(t *testing.T) {
	td := MakeTreeData(offsetTree())
	id := td.NameToID
	b, c, d, a := id["B"], id["C"], id["D"], id["A"]
	assert.InDelta(t, td.Distance(b, d)+td.Distance(d, c), td.Distance(b, c), 1e-12)
	assert.InDelta(t, td.Distance(b, d)+td.Distance(d, a), td.Distance(b, a), 1e-12)
}

func TestAdjacency(t *testing.T) {
	td := MakeTreeData(synthTree())
	id := td.NameToID
	assert.True(t, td.Adjacent(id["A"], id["node1"]))
	assert.True(t, td.Adjacent(id["node1"], id[NaiveName]))
	assert.False(t, td.Adjacent(id["A"], id["B"]))
	assert.False(t, td.Adjacent(id["A"], id[NaiveName]))
	assert.Equal(t, uint(3), td.Neighbors(id["node1"]))
	assert.Equal(t, uint(1), td.Neighbors(id["C"]))
	assert.Equal(t, []float64{0, 2, 2, 2, 1}, td.DistanceRow(id[NaiveName]))
}

func TestNamedDistanceMissing(t *testing.T) {
	td := MakeTreeData(cherry())
	_, ok := td.NamedDistance("A", "Z")
	assert.False(t, ok)
}

func TestVerifyDisconnected(t *testing.T) {
	l := cherry()
	l.Edges = l.Edges[:1]
	td := MakeTreeData(l)
	assert.Error(t, td.Verify())
}
