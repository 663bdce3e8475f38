// Package implementing the dissimilarity score between lineage trees
package score

import (
	"math"

	gr "github.com/jsdoublel/lineage/internal/graphs"
)

const (
	NotComparable = -1.0 // score of a pair sharing too few nodes
	MinShared     = 3    // fewest shared names for a pair to be comparable
)

type Options struct {
	Connectivity bool // add the adjacency difference term to the score
}

func DefaultOptions() Options {
	return Options{Connectivity: true}
}

// Terms of the comparison of two trees
type Result struct {
	Penalty    float64 // shared / total
	Weight     float64 // sum of abundance differences
	Dist       float64 // euclidean distance between the aligned distance matrices
	Connect    float64 // number of node pairs adjacent in only one tree
	Shared     int     // names in both trees
	Total      int     // names in either tree
	Comparable bool    // at least MinShared names are shared
	opts       Options
}

// Combined score, NotComparable when the trees share too few nodes
func (r Result) Score() float64 {
	if !r.Comparable {
		return NotComparable
	}
	sum := r.Weight + r.Dist
	if r.opts.Connectivity {
		sum += r.Connect
	}
	return r.Penalty * sum
}

// Node aligned across two trees by name; NoNode where the name is absent
type alignedNode struct {
	name string
	id1  int
	id2  int
}

// Compares two trees after aligning their nodes by name
func Compare(t1, t2 *gr.TreeData, opts Options) Result {
	union, shared := align(t1, t2)
	res := Result{Shared: shared, Total: len(union), opts: opts}
	if shared < MinShared {
		return res
	}
	res.Comparable = true
	res.Penalty = float64(shared) / float64(len(union))
	for _, n := range union {
		res.Weight += math.Abs(float64(abundance(t1, n.id1) - abundance(t2, n.id2)))
	}
	var sq float64
	for i, a := range union {
		for _, b := range union[i+1:] {
			d1 := distance(t1, a.id1, b.id1)
			d2 := distance(t2, a.id2, b.id2)
			sq += (d1 - d2) * (d1 - d2)
			if adjacent(t1, a.id1, b.id1) != adjacent(t2, a.id2, b.id2) {
				res.Connect++
			}
		}
	}
	res.Dist = math.Sqrt(sq)
	return res
}

// Union of the node names of both trees: shared names first, then names
// only in t1, then names only in t2, each group in name order. Also returns
// the number of shared names.
func align(t1, t2 *gr.TreeData) ([]alignedNode, int) {
	shared, only1, only2 := make([]string, 0), make([]string, 0), make([]string, 0)
	for name := range t1.NameToID {
		if _, ok := t2.NameToID[name]; ok {
			shared = append(shared, name)
		} else {
			only1 = append(only1, name)
		}
	}
	for name := range t2.NameToID {
		if _, ok := t1.NameToID[name]; !ok {
			only2 = append(only2, name)
		}
	}
	union := make([]alignedNode, 0, len(shared)+len(only1)+len(only2))
	for _, group := range [][]string{shared, only1, only2} {
		for _, name := range gr.SortNames(group) {
			union = append(union, alignedNode{
				name: name,
				id1:  lookup(t1, name),
				id2:  lookup(t2, name),
			})
		}
	}
	return union, len(shared)
}

func lookup(td *gr.TreeData, name string) int {
	if id, ok := td.NameToID[name]; ok {
		return id
	}
	return gr.NoNode
}

func abundance(td *gr.TreeData, id int) int {
	if id == gr.NoNode {
		return 0
	}
	return td.Nodes[id].Abundance
}

// Distance between two nodes, 0 when either is absent or unreachable
func distance(td *gr.TreeData, i, j int) float64 {
	if i == gr.NoNode || j == gr.NoNode {
		return 0
	}
	d := td.Distance(i, j)
	if math.IsInf(d, 0) {
		return 0
	}
	return d
}

func adjacent(td *gr.TreeData, i, j int) bool {
	return i != gr.NoNode && j != gr.NoNode && td.Adjacent(i, j)
}

// Names shared by both trees in name order
func SharedNames(t1, t2 *gr.TreeData) []string {
	union, shared := align(t1, t2)
	names := make([]string, shared)
	for i := range shared {
		names[i] = union[i].name
	}
	return names
}
