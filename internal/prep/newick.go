package prep

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	gr "github.com/jsdoublel/lineage/internal/graphs"
)

var ErrMalformedTree = errors.New("malformed tree")

// Checks the newick string before parsing. The string must begin with '(',
// contain at least one ':', have balanced parentheses, end with its only ';'
// and contain no '%'.
func CheckFormat(newick string) error {
	start := strings.IndexFunc(newick, func(r rune) bool { return !unicode.IsSpace(r) })
	if start == -1 {
		return fmt.Errorf("%w, empty newick string", ErrInvalidFormat)
	}
	if newick[start] != '(' {
		return fmt.Errorf("%w, newick string must begin with a '(' character", ErrInvalidFormat)
	}
	if !strings.Contains(newick, ":") {
		return fmt.Errorf("%w, edge lengths must be indicated after ':' characters", ErrInvalidFormat)
	}
	depth := 0
	for i, c := range newick {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w, unmatched ')' at position %d", ErrInvalidFormat, i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w, number of right parentheses must be equal to number of left parentheses", ErrInvalidFormat)
	}
	switch strings.Count(newick, ";") {
	case 0:
		return fmt.Errorf("%w, newick string must be followed by a ';' character", ErrInvalidFormat)
	case 1:
		if !strings.HasSuffix(strings.TrimRightFunc(newick, unicode.IsSpace), ";") {
			return fmt.Errorf("%w, ';' must be the last character of the newick string", ErrInvalidFormat)
		}
	default:
		return fmt.Errorf("%w, newick string must contain (in the end) only one ';' character", ErrInvalidFormat)
	}
	if i := strings.IndexByte(newick, '%'); i != -1 {
		return fmt.Errorf("%w, newick string cannot contain '%%' character (position %d)", ErrInvalidFormat, i)
	}
	return nil
}

type tokenKind int

const (
	tokOpen  tokenKind = iota // (
	tokClose                  // )
	tokComma                  // ,
	tokEnd                    // ;
	tokLabel                  // [@abundance][name][:length]
	tokRef                    // node collapsed by a previous reduction
)

type token struct {
	kind      tokenKind
	pos       int     // byte offset in the input
	text      string  // tokLabel only
	id        int     // tokRef only
	length    float64 // tokRef only
	hasLength bool    // tokRef only
}

// Node annotation read from a label token
type label struct {
	name         string
	abundance    int
	length       float64
	hasLength    bool
	hasAbundance bool
	pos          int
}

// Splits the newick string into structural tokens and labels. Whitespace is
// dropped everywhere (also inside names). An empty label is inserted where a
// child has no text at all, e.g. "(,A:1)".
func tokenize(newick string) []token {
	toks := make([]token, 0, len(newick)/2)
	var buf strings.Builder
	labelPos := -1
	flush := func() {
		if labelPos != -1 {
			toks = append(toks, token{kind: tokLabel, pos: labelPos, text: buf.String()})
			buf.Reset()
			labelPos = -1
		}
	}
	emptyChild := func(pos int) {
		if n := len(toks); n > 0 && (toks[n-1].kind == tokOpen || toks[n-1].kind == tokComma) {
			toks = append(toks, token{kind: tokLabel, pos: pos})
		}
	}
	for i, c := range newick {
		switch {
		case unicode.IsSpace(c):
			continue
		case c == '(':
			flush()
			toks = append(toks, token{kind: tokOpen, pos: i})
		case c == ')':
			flush()
			emptyChild(i)
			toks = append(toks, token{kind: tokClose, pos: i})
		case c == ',':
			flush()
			emptyChild(i)
			toks = append(toks, token{kind: tokComma, pos: i})
		case c == ';':
			flush()
			toks = append(toks, token{kind: tokEnd, pos: i})
		default:
			if labelPos == -1 {
				labelPos = i
			}
			buf.WriteRune(c)
		}
	}
	flush()
	return toks
}

// Reads "[@abundance][name][:length]"
func parseLabel(tok token) (label, error) {
	lb := label{abundance: 1, pos: tok.pos}
	text := tok.text
	if strings.HasPrefix(text, "@") {
		end := 1
		for end < len(text) && text[end] >= '0' && text[end] <= '9' {
			end++
		}
		if end == 1 {
			return lb, fmt.Errorf("%w, abundance tag without a value at position %d", ErrMalformedTree, tok.pos)
		}
		ab, err := strconv.Atoi(text[1:end])
		if err != nil {
			return lb, fmt.Errorf("%w, invalid abundance %q at position %d", ErrMalformedTree, text[1:end], tok.pos)
		}
		lb.abundance, lb.hasAbundance = ab, true
		text = text[end:]
	}
	name, length, found := strings.Cut(text, ":")
	if strings.ContainsRune(name, '@') {
		return lb, fmt.Errorf("%w, abundance tag must precede the node name %q at position %d", ErrMalformedTree, name, tok.pos)
	}
	lb.name = name
	if found {
		l, err := strconv.ParseFloat(length, 64)
		if err != nil {
			return lb, fmt.Errorf("%w, invalid branch length %q at position %d", ErrMalformedTree, length, tok.pos)
		}
		lb.length, lb.hasLength = l, true
	}
	return lb, nil
}

// Per tree parsing state; holds the synthetic name counter so parses never
// share ids
type reducer struct {
	lineage   *gr.Lineage
	synthetic int
}

// Assigns ids to every explicitly named node in text order. The naive node
// takes id 0 when present.
func (r *reducer) assignNames(toks []token) error {
	labels := make([]label, 0)
	hasNaive := false
	for _, tok := range toks {
		if tok.kind != tokLabel {
			continue
		}
		lb, err := parseLabel(tok)
		if err != nil {
			return err
		}
		if lb.name == "" {
			continue
		}
		if lb.name == gr.NaiveName {
			hasNaive = true
		}
		labels = append(labels, lb)
	}
	l := r.lineage
	l.Nodes = make([]gr.Node, 0, 2*len(labels))
	if hasNaive {
		l.Nodes = append(l.Nodes, gr.Node{Name: gr.NaiveName, Naive: true})
		l.NameToID[gr.NaiveName] = 0
		l.Naive = 0
	}
	naiveSeen := false
	for _, lb := range labels {
		if lb.name == gr.NaiveName && !naiveSeen {
			l.Nodes[0].Abundance = lb.abundance
			naiveSeen = true
			continue
		}
		if _, ok := l.NameToID[lb.name]; ok {
			return fmt.Errorf("%w, duplicate node name %q at position %d", ErrMalformedTree, lb.name, lb.pos)
		}
		l.NameToID[lb.name] = len(l.Nodes)
		l.Nodes = append(l.Nodes, gr.Node{Name: lb.name, Abundance: lb.abundance})
	}
	l.NamedCount = len(l.Nodes)
	return nil
}

// Creates a node named node<k>, skipping names already used in the tree
func (r *reducer) synthesize(abundance int) int {
	l := r.lineage
	var name string
	for {
		r.synthetic++
		name = gr.SyntheticPrefix + strconv.Itoa(r.synthetic)
		if _, ok := l.NameToID[name]; !ok {
			break
		}
	}
	id := len(l.Nodes)
	l.Nodes = append(l.Nodes, gr.Node{Name: name, Abundance: abundance, Synthetic: true})
	l.NameToID[name] = id
	l.SyntheticCount++
	return id
}

// Resolves a label to a node id, creating a synthetic node if it has no name
func (r *reducer) node(lb label) int {
	if lb.name == "" {
		return r.synthesize(lb.abundance)
	}
	return r.lineage.NameToID[lb.name]
}

// Collapses the innermost leftmost group into a single reference token and
// records one edge per child
func (r *reducer) reduce(toks []token) ([]token, error) {
	closeIdx := -1
	for i, tok := range toks {
		if tok.kind == tokClose {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return nil, fmt.Errorf("%w, more than one root at position %d", ErrMalformedTree, toks[0].pos)
	}
	openIdx := -1
	for i := closeIdx - 1; i >= 0; i-- {
		if toks[i].kind == tokOpen {
			openIdx = i
			break
		}
	}
	if openIdx == -1 {
		return nil, fmt.Errorf("%w, unmatched ')' at position %d", ErrMalformedTree, toks[closeIdx].pos)
	}
	end := closeIdx + 1
	ann := label{abundance: 1, pos: toks[closeIdx].pos}
	if end < len(toks) && toks[end].kind == tokLabel {
		var err error
		if ann, err = parseLabel(toks[end]); err != nil {
			return nil, err
		}
		end++
	}
	parent := r.node(ann)
	for i := openIdx + 1; i < closeIdx; i++ {
		tok := toks[i]
		if (i-openIdx)%2 == 0 {
			if tok.kind != tokComma {
				return nil, fmt.Errorf("%w, expected ',' between children at position %d", ErrMalformedTree, tok.pos)
			}
			continue
		}
		var child int
		var length float64
		switch tok.kind {
		case tokRef:
			child, length = tok.id, tok.length
		case tokLabel:
			lb, err := parseLabel(tok)
			if err != nil {
				return nil, err
			}
			if !lb.hasLength {
				return nil, fmt.Errorf("%w, missing branch length for leaf %q at position %d", ErrMalformedTree, lb.name, tok.pos)
			}
			child, length = r.node(lb), lb.length
		default:
			return nil, fmt.Errorf("%w, unexpected character at position %d", ErrMalformedTree, tok.pos)
		}
		r.lineage.Edges = append(r.lineage.Edges, gr.Edge{Child: child, Parent: parent, Length: length})
	}
	ref := token{kind: tokRef, pos: toks[openIdx].pos, id: parent, length: ann.length, hasLength: ann.hasLength}
	reduced := make([]token, 0, len(toks)-(end-openIdx)+1)
	reduced = append(reduced, toks[:openIdx]...)
	reduced = append(reduced, ref)
	return append(reduced, toks[end:]...), nil
}

// Parses an annotated newick lineage tree. Unnamed nodes get synthesized
// names (node1, node2, ...); a branch length on the naive root is kept as the
// root offset.
func ParseLineage(newick string) (*gr.Lineage, error) {
	if err := CheckFormat(newick); err != nil {
		return nil, err
	}
	toks := tokenize(newick)
	r := &reducer{lineage: &gr.Lineage{NameToID: make(map[string]int), Naive: gr.NoNode}}
	if err := r.assignNames(toks); err != nil {
		return nil, err
	}
	for !(len(toks) == 2 && toks[0].kind == tokRef && toks[1].kind == tokEnd) {
		if len(toks) < 2 || toks[len(toks)-1].kind != tokEnd {
			return nil, fmt.Errorf("%w, unexpected text after the last ')'", ErrMalformedTree)
		}
		var err error
		if toks, err = r.reduce(toks); err != nil {
			return nil, err
		}
	}
	l := r.lineage
	l.Root = toks[0].id
	if l.Root == l.Naive && toks[0].hasLength {
		l.RootOffset = toks[0].length
		for i := range l.Edges {
			if l.Edges[i].Parent == l.Naive {
				l.Edges[i].RootOffset = l.RootOffset
			}
		}
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w, %s", ErrMalformedTree, err)
	}
	return l, nil
}
