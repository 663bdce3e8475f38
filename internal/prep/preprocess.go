// Package used for reading, validating and preprocessing lineage trees, and
// for writing results
package prep

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	gr "github.com/jsdoublel/lineage/internal/graphs"
)

type Options struct {
	NProcs     int        // number of parallel processes
	Abundances Abundances // overrides @ tags when not nil
}

// Tree that could not be parsed and why
type Failure struct {
	ID  string
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("tree %s: %s", f.ID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Preprocessed batch of trees. Trees[i] came from the record with id IDs[i];
// trees that failed are left out and listed in Failures (in input order).
type Batch struct {
	Trees    []*gr.TreeData
	IDs      []string
	Failures []Failure
}

// Parses every record and builds its distance and adjacency matrices in
// parallel. A bad tree never aborts the batch; it is logged and skipped.
func Preprocess(records []Record, opts Options) *Batch {
	log.Printf("building distance matrices for %d trees", len(records))
	trees := make([]*gr.TreeData, len(records))
	errs := make([]error, len(records))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(opts.NProcs, 1))
	for i, rec := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trees[i], errs[i] = ProcessTree(rec.Text, opts.Abundances)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(fmt.Sprintf("tree workers returned an error, %s", err))
	}
	batch := &Batch{
		Trees: make([]*gr.TreeData, 0, len(records)),
		IDs:   make([]string, 0, len(records)),
	}
	for i, rec := range records {
		if errs[i] != nil {
			f := Failure{ID: rec.ID, Err: errs[i]}
			log.Printf("WARNING: skipping %s", f)
			batch.Failures = append(batch.Failures, f)
			continue
		}
		batch.Trees = append(batch.Trees, trees[i])
		batch.IDs = append(batch.IDs, rec.ID)
	}
	log.Printf("%d trees processed, %d skipped", len(batch.Trees), len(batch.Failures))
	return batch
}

// Parses one tree, applies the abundance overrides (if any) and builds its
// matrices
func ProcessTree(newick string, abundances Abundances) (*gr.TreeData, error) {
	lineage, err := ParseLineage(newick)
	if err != nil {
		return nil, err
	}
	if abundances != nil {
		lineage.SetAbundances(abundances.Lookup)
	}
	td := gr.MakeTreeData(lineage)
	if err := td.Verify(); err != nil {
		return nil, fmt.Errorf("%w, %s", ErrMalformedTree, err)
	}
	return td, nil
}
