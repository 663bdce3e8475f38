// Package containing the lineage tree model and the per-tree data (distance
// and adjacency matrices) derived from it
package graphs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/evolbioinfo/gotree/tree"
)

const (
	NaiveName       = "naive" // name of the root (unmutated ancestor) of a lineage tree
	SyntheticPrefix = "node"  // prefix of names generated for unnamed nodes
	NoNode          = -1
)

// A node of a lineage tree, indexed by id in Lineage.Nodes
type Node struct {
	Name      string // name from the newick string or synthesized
	Abundance int    // observed count (from @ tag, 1 when absent)
	Naive     bool   // node is the naive cell
	Synthetic bool   // name was synthesized during parsing
}

// Branch between a child and its parent. RootOffset is only set on branches
// hanging from the naive root and holds the naive node's own branch length.
type Edge struct {
	Child      int
	Parent     int
	Length     float64
	RootOffset float64
}

// Weight used to seed the distance matrix
func (e Edge) Weight() float64 {
	return e.Length + e.RootOffset
}

// Parsed lineage tree. Ids are dense in [0, FullSize()); id 0 is the naive
// node when the tree has one.
type Lineage struct {
	Nodes          []Node         // node records (index = id)
	Edges          []Edge         // child -> parent branches in reduction order
	NameToID       map[string]int // inverse of node names
	NamedCount     int            // nodes named in the input
	SyntheticCount int            // nodes with synthesized names
	Root           int            // id of the root (last collapsed node)
	Naive          int            // id of the naive node or NoNode
	RootOffset     float64        // branch length attached to the naive root
}

// Total number of nodes (named + synthesized)
func (l *Lineage) FullSize() int {
	return l.NamedCount + l.SyntheticCount
}

// Abundance of the node with the given name; 0 if the name is not in the tree
func (l *Lineage) Abundance(name string) int {
	id, ok := l.NameToID[name]
	if !ok {
		return 0
	}
	return l.Nodes[id].Abundance
}

// Abundances keyed by node name
func (l *Lineage) AbundanceMap() map[string]int {
	result := make(map[string]int, len(l.Nodes))
	for _, n := range l.Nodes {
		result[n.Name] = n.Abundance
	}
	return result
}

// Replace abundances with looked up values; names for which lookup returns
// false keep their current abundance. Returns the number of nodes updated.
func (l *Lineage) SetAbundances(lookup func(name string) (int, bool)) int {
	updated := 0
	for i := range l.Nodes {
		if ab, ok := lookup(l.Nodes[i].Name); ok {
			l.Nodes[i].Abundance = ab
			updated++
		}
	}
	return updated
}

// Children ids for each node, in edge order
func (l *Lineage) Children() [][]int {
	children := make([][]int, l.FullSize())
	for _, e := range l.Edges {
		children[e.Parent] = append(children[e.Parent], e.Child)
	}
	return children
}

// Number of children of node id
func (l *Lineage) Degree(id int) int {
	d := 0
	for _, e := range l.Edges {
		if e.Parent == id {
			d++
		}
	}
	return d
}

// Names sorted in id order
func (l *Lineage) Names() []string {
	names := make([]string, len(l.Nodes))
	for i, n := range l.Nodes {
		names[i] = n.Name
	}
	return names
}

// Checks the structural invariants of a parsed lineage: one parent per
// non-root node, fullSize-1 edges, names and ids agree
func (l *Lineage) Validate() error {
	n := l.FullSize()
	if len(l.Nodes) != n {
		return fmt.Errorf("lineage has %d node records but a size of %d", len(l.Nodes), n)
	}
	if n > 0 && len(l.Edges) != n-1 {
		return fmt.Errorf("lineage with %d nodes has %d edges", n, len(l.Edges))
	}
	seen := make([]bool, n)
	for _, e := range l.Edges {
		if e.Child < 0 || e.Child >= n || e.Parent < 0 || e.Parent >= n {
			return fmt.Errorf("edge %d -> %d out of range", e.Child, e.Parent)
		}
		if seen[e.Child] {
			return fmt.Errorf("node %s has more than one parent", l.Nodes[e.Child].Name)
		}
		if e.Child == l.Root {
			return fmt.Errorf("root %s has a parent", l.Nodes[e.Child].Name)
		}
		seen[e.Child] = true
	}
	for name, id := range l.NameToID {
		if l.Nodes[id].Name != name {
			return fmt.Errorf("name %s maps to node %d named %s", name, id, l.Nodes[id].Name)
		}
	}
	return nil
}

// Convert lineage to a gotree tree. Abundances other than 1 are kept as
// "@n" node comments; the naive root offset is dropped since the root has no
// branch in gotree.
func (l *Lineage) Tree() (*tree.Tree, error) {
	tre := tree.NewTree()
	nodes := make([]*tree.Node, l.FullSize())
	for i, n := range l.Nodes {
		nodes[i] = tre.NewNode()
		nodes[i].SetName(n.Name)
		if n.Abundance != 1 {
			nodes[i].AddComment(fmt.Sprintf("@%d", n.Abundance))
		}
	}
	for _, e := range l.Edges {
		edge := tre.ConnectNodes(nodes[e.Parent], nodes[e.Child])
		edge.SetLength(e.Length)
	}
	tre.SetRoot(nodes[l.Root])
	if err := tre.UpdateTipIndex(); err != nil {
		return nil, fmt.Errorf("lineage %w", err)
	}
	return tre, nil
}

// Orders names by length first so that seq2 comes before seq10
func CompareNames(a, b string) int {
	if diff := len(a) - len(b); diff != 0 {
		return diff
	}
	return strings.Compare(a, b)
}

// Sorts names in place with CompareNames and returns them
func SortNames(names []string) []string {
	slices.SortFunc(names, CompareNames)
	return names
}
