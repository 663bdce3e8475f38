package prep

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TuftsBCB/io/fasta"
)

// Number of FASTA entries per sequence id (first word of the header)
type Abundances map[string]int

// Counts the entries of a FASTA stream by header id. Sequences are not
// checked, only headers matter.
func ReadAbundances(r io.Reader) (Abundances, error) {
	reader := fasta.NewReader(r)
	reader.TrustSequences = true
	counts := make(Abundances)
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w, %s", ErrInvalidFile, err)
		}
		id := headerID(entry.Header)
		if id == "" {
			return nil, fmt.Errorf("%w, fasta entry with an empty header", ErrInvalidFile)
		}
		counts[id]++
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w, no fasta entries found", ErrInvalidFile)
	}
	return counts, nil
}

func ReadAbundanceFile(name string) (Abundances, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", name, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", name, err))
		}
	}()
	ab, err := ReadAbundances(file)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, name)
	}
	return ab, nil
}

// Count for name; ok is false when no entry carries that id
func (a Abundances) Lookup(name string) (count int, ok bool) {
	count, ok = a[name]
	return
}

func headerID(header string) string {
	if fields := strings.Fields(header); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
