package prep

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gr "github.com/jsdoublel/lineage/internal/graphs"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
	ErrWritingFile   = errors.New("error writing file")

	plotFillColor = color.RGBA{R: 37, G: 150, B: 190, A: 255}
)

const (
	plotH = 4 * vg.Inch
	plotW = 6 * vg.Inch

	histBins   = 20
	maxLineLen = 64 * 1024 * 1024
	commentTag = "#"
)

// One raw tree string with where it came from
type Record struct {
	ID   string // 1-based position, prefixed by the file name for multi-file input
	Text string // newick text up to and including ';'
	Line int    // line the record starts on
}

// Splits a stream into one record per ';' terminated tree. Blank lines and
// lines starting with '#' are skipped; a tree may span several lines. Text
// left without a ';' at the end of the stream becomes a record of its own
// (and fails validation later).
func ReadTrees(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	records := make([]Record, 0)
	var cur strings.Builder
	start := 0
	emit := func(text string) {
		records = append(records, Record{ID: strconv.Itoa(len(records) + 1), Text: text, Line: start})
	}
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentTag) {
			continue
		}
		for line != "" {
			if cur.Len() == 0 {
				start = i
			}
			before, after, found := strings.Cut(line, ";")
			if !found {
				cur.WriteString(before)
				break
			}
			cur.WriteString(before)
			cur.WriteByte(';')
			emit(cur.String())
			cur.Reset()
			line = strings.TrimSpace(after)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w, %s", ErrInvalidFile, err)
	}
	if cur.Len() != 0 {
		emit(cur.String())
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w, no trees found", ErrInvalidFile)
	}
	return records, nil
}

// Reads trees from every file. Ids are prefixed with the file's base name
// when more than one file is given.
func ReadTreeFiles(files []string) ([]Record, error) {
	all := make([]Record, 0)
	for _, name := range files {
		records, err := readTreeFile(name)
		if err != nil {
			return nil, err
		}
		if len(files) > 1 {
			for i := range records {
				records[i].ID = filepath.Base(name) + ":" + records[i].ID
			}
		}
		all = append(all, records...)
	}
	return all, nil
}

func readTreeFile(name string) ([]Record, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", name, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", name, err))
		}
	}()
	records, err := ReadTrees(file)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, name)
	}
	return records, nil
}

// Writes the tree id, its node count and the distance matrix with names
// padded to the longest one, one row per node in id order
func WriteDistanceMatrix(w io.Writer, id string, td *gr.TreeData, precision int) error {
	bw := bufio.NewWriter(w)
	n := td.FullSize()
	width := 0
	for _, node := range td.Nodes {
		width = max(width, len(node.Name))
	}
	fmt.Fprintf(bw, "%s\tnumber of nodes: %d", id, n)
	for i := range n {
		fmt.Fprintf(bw, "\n%-*s", width, td.Nodes[i].Name)
		for j := range n {
			fmt.Fprintf(bw, "  %.*f", precision, td.Distance(i, j))
		}
	}
	fmt.Fprint(bw, "\n\n\n")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w, %s", ErrWritingFile, err)
	}
	return nil
}

// Writes a tab separated table of node id, name, abundance and number of
// children
func WriteNodeTable(w io.Writer, td *gr.TreeData) error {
	data := make([][]string, td.FullSize()+1)
	data[0] = []string{"id", "name", "abundance", "children"}
	for i, node := range td.Nodes {
		data[i+1] = []string{
			strconv.Itoa(i),
			node.Name,
			strconv.Itoa(node.Abundance),
			strconv.Itoa(td.Degree(i)),
		}
	}
	return writeTSV(w, data)
}

// Writes the N×N score matrix with a header row of tree ids
func WriteScoreMatrix(w io.Writer, ids []string, scores mat.Symmetric, precision int) error {
	n := scores.SymmetricDim()
	if n != len(ids) {
		panic(fmt.Sprintf("%d ids for a %d×%d score matrix", len(ids), n, n))
	}
	data := make([][]string, n+1)
	data[0] = append([]string{"tree"}, ids...)
	for i := range n {
		data[i+1] = make([]string, n+1)
		data[i+1][0] = ids[i]
		for j := range n {
			data[i+1][j+1] = strconv.FormatFloat(scores.At(i, j), 'f', precision, 64)
		}
	}
	return writeTSV(w, data)
}

// Writes one row per tree with its cluster label (-1 is noise)
func WriteClusters(w io.Writer, ids []string, labels []int) error {
	if len(ids) != len(labels) {
		panic(fmt.Sprintf("%d ids for %d cluster labels", len(ids), len(labels)))
	}
	data := make([][]string, len(ids)+1)
	data[0] = []string{"tree", "cluster"}
	for i, id := range ids {
		data[i+1] = []string{id, strconv.Itoa(labels[i])}
	}
	return writeTSV(w, data)
}

func writeTSV(w io.Writer, data [][]string) (err error) {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		} else if writer.Error() != nil {
			log.Printf("error when flushing output table, %s", writer.Error())
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w, %s", ErrWritingFile, err)
		return
	}
	return
}

// Saves a histogram of the pairwise scores to <prefix>.png
func WriteScoreHistogram(scores []float64, prefix string) error {
	if len(scores) == 0 {
		return fmt.Errorf("%w, no comparable pairs to plot", ErrWritingFile)
	}
	p := plot.New()
	p.Title.Text = "Pairwise lineage dissimilarity"
	p.X.Label.Text = "Score"
	p.Y.Label.Text = "Number of Pairs"
	h, err := plotter.NewHist(plotter.Values(scores), histBins)
	if err != nil {
		return err
	}
	h.FillColor = plotFillColor
	p.Add(h)
	return p.Save(plotW, plotH, fmt.Sprintf("%s.png", prefix))
}
