package graphs

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"
)

// Lineage with its preprocessed distance and adjacency matrices. Read-only
// once made; safe to share between goroutines.
type TreeData struct {
	*Lineage
	dist *mat.SymDense    // patristic distance for every pair of node ids
	adj  []*bitset.BitSet // adj[i] has bit j set iff an edge joins i and j
}

// Builds distance and adjacency matrices for a parsed lineage
func MakeTreeData(l *Lineage) *TreeData {
	dist, adj := seedMatrices(l)
	floyd(dist, l.Naive, l.RootOffset)
	return &TreeData{Lineage: l, dist: dist, adj: adj}
}

// Direct distances from the edge list (+Inf between non adjacent nodes)
func seedMatrices(l *Lineage) (*mat.SymDense, []*bitset.BitSet) {
	n := l.FullSize()
	dist := mat.NewSymDense(n, nil)
	adj := make([]*bitset.BitSet, n)
	for i := range n {
		adj[i] = bitset.New(uint(n))
		for j := i + 1; j < n; j++ {
			dist.SetSym(i, j, math.Inf(1))
		}
	}
	for _, e := range l.Edges {
		dist.SetSym(e.Child, e.Parent, e.Weight())
		adj[e.Child].Set(uint(e.Parent))
		adj[e.Parent].Set(uint(e.Child))
	}
	return dist, adj
}

// All pairs shortest paths. Branches hanging from the naive root carry the
// root offset, so a path routed through the root counts it twice and has
// 2*offset removed.
func floyd(dist *mat.SymDense, root int, offset float64) {
	n, _ := dist.Dims()
	for k := range n {
		correction := 0.0
		if k == root {
			correction = 2 * offset
		}
		for i := range n {
			dik := dist.At(i, k)
			if math.IsInf(dik, 1) {
				continue
			}
			for j := i + 1; j < n; j++ {
				through := dik + dist.At(k, j)
				if through < dist.At(i, j) {
					dist.SetSym(i, j, through-correction)
				}
			}
		}
	}
}

// Patristic distance between node ids i and j
func (td *TreeData) Distance(i, j int) float64 {
	return td.dist.At(i, j)
}

// Nodes i and j are joined by an edge
func (td *TreeData) Adjacent(i, j int) bool {
	return td.adj[i].Test(uint(j))
}

// Distance between two named nodes; ok is false if either name is absent
func (td *TreeData) NamedDistance(a, b string) (d float64, ok bool) {
	i, okA := td.NameToID[a]
	j, okB := td.NameToID[b]
	if !okA || !okB {
		return 0, false
	}
	return td.Distance(i, j), true
}

// Copy of row i of the distance matrix
func (td *TreeData) DistanceRow(i int) []float64 {
	row := make([]float64, td.FullSize())
	mat.Row(row, i, td.dist)
	return row
}

// Number of neighbors (parent and children) of node i
func (td *TreeData) Neighbors(i int) uint {
	return td.adj[i].Count()
}

// Verify that every pair of nodes got a finite distance, which holds when the
// edges form a single connected tree
func (td *TreeData) Verify() error {
	n := td.FullSize()
	for i := range n {
		for j := i + 1; j < n; j++ {
			if math.IsInf(td.Distance(i, j), 1) {
				return fmt.Errorf("no path between %s and %s", td.Nodes[i].Name, td.Nodes[j].Name)
			}
		}
	}
	return nil
}
