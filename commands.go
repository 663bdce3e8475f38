package main

import (
	"bufio"
	"fmt"
	"log"

	"github.com/js-arias/command"
	"gonum.org/v1/gonum/mat"

	"github.com/jsdoublel/lineage/internal/cluster"
	"github.com/jsdoublel/lineage/internal/config"
	pr "github.com/jsdoublel/lineage/internal/prep"
	"github.com/jsdoublel/lineage/internal/score"
)

var matrixCmd = &command.Command{
	Usage: `matrix [--nodes] [--fasta <file>] [-n <number>]
	[--precision <number>] [-o|--output <file>] [<tree-file>...]`,
	Short: "write distance matrices of lineage trees",
	Long: `
Command matrix reads one or more lineage trees and writes, for each tree, its
identifier, its number of nodes (named and synthesized) and its patristic
distance matrix with one row per node.

With the flag --nodes a tab-delimited node table (id, name, abundance and
number of children) is written before each matrix.

Abundances are read from the @ tags of the trees. With --fasta, each node
named like a sequence id of the FASTA file gets the number of entries with
that id as its abundance.
	`,
	SetFlags: func(c *command.Command) {
		setCommonFlags(c)
		c.Flags().BoolVar(&writeNodes, "nodes", false, "")
	},
	Run: logged(runMatrix),
}

var writeNodes bool

func runMatrix(c *command.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batch, err := readBatch(c, args, cfg)
	if err != nil {
		return err
	}
	w, closeOut, err := openOutput(c)
	if err != nil {
		return err
	}
	for i, td := range batch.Trees {
		if writeNodes {
			if err := pr.WriteNodeTable(w, td); err != nil {
				return err
			}
		}
		if err := pr.WriteDistanceMatrix(w, batch.IDs[i], td, cfg.Precision); err != nil {
			return err
		}
	}
	return closeOut()
}

var noConnect bool
var plotPrefix string

var compareCmd = &command.Command{
	Usage: `compare [--no-connect] [--plot <prefix>] [--fasta <file>]
	[-n <number>] [--precision <number>] [-o|--output <file>] [<tree-file>...]`,
	Short: "write the pairwise dissimilarity matrix of lineage trees",
	Long: `
Command compare reads a set of lineage trees and writes a tab-delimited
matrix with the dissimilarity score of every pair of trees. The diagonal is 0
and pairs sharing fewer than three node names are not comparable and get -1.

The score of two trees is the fraction of shared nodes times the sum of the
abundance differences, the euclidean distance between their distance
matrices and the number of node pairs adjacent in only one tree. Use
--no-connect to leave the adjacency term out.

With --plot, a histogram of the comparable scores is saved as <prefix>.png.
	`,
	SetFlags: func(c *command.Command) {
		setCommonFlags(c)
		c.Flags().BoolVar(&noConnect, "no-connect", false, "")
		c.Flags().StringVar(&plotPrefix, "plot", "", "")
	},
	Run: logged(runCompare),
}

func runCompare(c *command.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batch, err := readBatch(c, args, cfg)
	if err != nil {
		return err
	}
	scores := pairwiseScores(batch, cfg)
	w, closeOut, err := openOutput(c)
	if err != nil {
		return err
	}
	if err := pr.WriteScoreMatrix(w, batch.IDs, scores, cfg.Precision); err != nil {
		return err
	}
	return closeOut()
}

// Scores every pair of trees, logs a summary and saves the histogram if asked
func pairwiseScores(batch *pr.Batch, cfg *config.Config) *mat.SymDense {
	if noConnect {
		cfg.Connectivity = false
	}
	if plotPrefix != "" {
		cfg.Plot = plotPrefix
	}
	scores := score.Matrix(batch.Trees, cfg.Workers, scoreOptions(cfg))
	sum := score.Summarize(scores)
	log.Printf("%d of %d pairs comparable; mean %.4f, sd %.4f, median %.4f, range [%.4f, %.4f]",
		sum.Comparable, sum.Pairs, sum.Mean, sum.StdDev, sum.Median, sum.Min, sum.Max)
	if cfg.Plot != "" {
		if err := pr.WriteScoreHistogram(score.Comparable(scores), cfg.Plot); err != nil {
			log.Printf("WARNING: could not save score histogram, %s", err)
		}
	}
	return scores
}

var (
	epsilon   float64
	minPoints int
)

var clusterCmd = &command.Command{
	Usage: `cluster [--eps <number>] [--min-points <number>] [--no-connect]
	[--plot <prefix>] [--fasta <file>] [-n <number>] [-o|--output <file>]
	[<tree-file>...]`,
	Short: "cluster lineage trees by dissimilarity",
	Long: `
Command cluster scores every pair of trees like the command compare and
groups the trees with DBSCAN over the score matrix. Two trees are neighbors
when their score is at most --eps; a tree with at least --min-points
neighbors (itself included) is a core tree. Pairs that are not comparable are
never neighbors.

The output is a tab-delimited file with the tree id and its cluster (starting
at 0); -1 marks noise.
	`,
	SetFlags: func(c *command.Command) {
		setCommonFlags(c)
		c.Flags().Float64Var(&epsilon, "eps", -1, "")
		c.Flags().IntVar(&minPoints, "min-points", 0, "")
		c.Flags().BoolVar(&noConnect, "no-connect", false, "")
		c.Flags().StringVar(&plotPrefix, "plot", "", "")
	},
	Run: logged(runCluster),
}

func runCluster(c *command.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ccfg := cluster.Config{Epsilon: cfg.Cluster.Epsilon, MinPoints: cfg.Cluster.MinPoints}
	if epsilon >= 0 {
		ccfg.Epsilon = epsilon
	}
	if minPoints > 0 {
		ccfg.MinPoints = minPoints
	}
	if err := ccfg.Validate(); err != nil {
		return c.UsageError(err.Error())
	}
	batch, err := readBatch(c, args, cfg)
	if err != nil {
		return err
	}
	res, err := cluster.DBSCAN(pairwiseScores(batch, cfg), ccfg)
	if err != nil {
		return err
	}
	log.Printf("%d clusters found", res.Clusters)
	w, closeOut, err := openOutput(c)
	if err != nil {
		return err
	}
	if err := pr.WriteClusters(w, batch.IDs, res.Labels); err != nil {
		return err
	}
	return closeOut()
}

var newickCmd = &command.Command{
	Usage: `newick [--fasta <file>] [-o|--output <file>] [<tree-file>...]`,
	Short: "rewrite lineage trees as standard newick",
	Long: `
Command newick reads lineage trees and writes them in standard newick, one
tree per line. Unnamed nodes keep their synthesized names, abundances other
than 1 are written as [@n] comments and the branch length of the naive root
is dropped.
	`,
	SetFlags: setCommonFlags,
	Run:      logged(runNewick),
}

func runNewick(c *command.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batch, err := readBatch(c, args, cfg)
	if err != nil {
		return err
	}
	w, closeOut, err := openOutput(c)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, td := range batch.Trees {
		tre, err := td.Tree()
		if err != nil {
			return fmt.Errorf("tree %s: %w", batch.IDs[i], err)
		}
		fmt.Fprintln(bw, tre.Newick())
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w, %s", pr.ErrWritingFile, err)
	}
	return closeOut()
}
