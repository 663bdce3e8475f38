/*
Lineage compares B-cell clonal lineage trees written in annotated newick
(@abundance name:length) and scores how dissimilar each pair of trees is.

usage: lineage <command> [<argument>...]

commands:

	matrix		writes the node table and patristic distance matrix of each tree
	compare		writes the pairwise dissimilarity matrix of a set of trees
	cluster		clusters trees with DBSCAN over their pairwise dissimilarities
	newick		rewrites trees as standard newick (abundances as comments)
	version		prints version number and exits

Trees are read from the files given as arguments (standard input when there
are none), one tree per ';'. Run "lineage help <command>" for the flags of a
command.

examples:

	  compare command example:
		lineage compare -n 8 --fasta reads.fa trees.nwk > scores.tsv 2> log.txt

	  cluster command example:
		lineage cluster --eps 2.5 --min-points 3 trees.nwk > clusters.tsv
*/
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/js-arias/command"

	"github.com/jsdoublel/lineage/internal/config"
	pr "github.com/jsdoublel/lineage/internal/prep"
	"github.com/jsdoublel/lineage/internal/score"
)

const (
	Version    = "v0.1.0"
	ErrMessage = "lineage incountered an error ::"
)

var app = &command.Command{
	Usage: "lineage <command> [<argument>...]",
	Short: "compare and cluster clonal lineage trees",
}

func init() {
	app.Add(matrixCmd)
	app.Add(compareCmd)
	app.Add(clusterCmd)
	app.Add(newickCmd)
	app.Add(versionCmd)
}

// flags shared by every command that reads trees
var (
	configFile string
	fastaFile  string
	outFile    string
	nprocs     int
	precision  int
)

func setCommonFlags(c *command.Command) {
	c.Flags().StringVar(&configFile, "config", "", "")
	c.Flags().StringVar(&fastaFile, "fasta", "", "")
	c.Flags().StringVar(&outFile, "o", "", "")
	c.Flags().StringVar(&outFile, "output", "", "")
	c.Flags().IntVar(&nprocs, "n", 0, "")
	c.Flags().IntVar(&precision, "precision", -1, "")
}

func setNProcs(nprocs int) int {
	maxProcs := runtime.GOMAXPROCS(0)
	switch {
	case nprocs > maxProcs:
		log.Printf("%d is greater than available processes (%d); limit set to %d\n", nprocs, maxProcs, maxProcs)
		return maxProcs
	case nprocs <= 0:
		log.Printf("number of processes not set; defaulting to %d processes\n", maxProcs)
		return maxProcs
	default:
		return nprocs
	}
}

// Loads the config file and lets command line flags override it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if nprocs != 0 {
		cfg.Workers = nprocs
	}
	cfg.Workers = setNProcs(cfg.Workers)
	if precision >= 0 {
		cfg.Precision = precision
	}
	return cfg, cfg.Validate()
}

// Reads, parses and preprocesses the trees named by args (stdin when empty)
func readBatch(c *command.Command, args []string, cfg *config.Config) (*pr.Batch, error) {
	log.Printf("reading trees")
	var records []pr.Record
	var err error
	if len(args) == 0 {
		records, err = pr.ReadTrees(c.Stdin())
	} else {
		records, err = pr.ReadTreeFiles(args)
	}
	if err != nil {
		return nil, err
	}
	opts := pr.Options{NProcs: cfg.Workers}
	if fastaFile != "" {
		log.Printf("counting abundances in %s", fastaFile)
		if opts.Abundances, err = pr.ReadAbundanceFile(fastaFile); err != nil {
			return nil, err
		}
	}
	batch := pr.Preprocess(records, opts)
	if len(batch.Trees) == 0 {
		return nil, fmt.Errorf("%w, none of the %d trees could be read", pr.ErrInvalidFile, len(records))
	}
	return batch, nil
}

// Output file from the -o flag, or the command's standard output
func openOutput(c *command.Command) (io.Writer, func() error, error) {
	if outFile == "" {
		return c.Stdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, fmt.Errorf("%w, %s", pr.ErrWritingFile, err)
	}
	return f, f.Close, nil
}

func scoreOptions(cfg *config.Config) score.Options {
	opts := score.DefaultOptions()
	opts.Connectivity = cfg.Connectivity
	return opts
}

// Logs failures with the error prefix before handing them back to the
// command runner
func logged(run func(c *command.Command, args []string) error) func(c *command.Command, args []string) error {
	return func(c *command.Command, args []string) error {
		if err := run(c, args); err != nil {
			log.Printf("%s %s", ErrMessage, err)
			return err
		}
		return nil
	}
}

var versionCmd = &command.Command{
	Usage: "version",
	Short: "print version number",
	Run: func(c *command.Command, args []string) error {
		fmt.Fprintf(c.Stdout(), "lineage version %s\n", Version)
		return nil
	},
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	app.Main()
}
