package prep

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAbundances(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    Abundances
		expectedErr error
	}{
		{
			name:     "basic",
			input:    ">seq1\nACGT\n>seq2\nAC\n>seq1\nAA\n",
			expected: Abundances{"seq1": 2, "seq2": 1},
		},
		{
			name:     "header descriptions",
			input:    ">seq1 count=3\nACGT\n>seq10 x\nAC\n>seq1\tlane 2\nAA",
			expected: Abundances{"seq1": 2, "seq10": 1},
		},
		{name: "empty", input: "", expectedErr: ErrInvalidFile},
		{name: "no header", input: "ACGT\n", expectedErr: ErrInvalidFile},
		{name: "empty header", input: ">\nACGT\n", expectedErr: ErrInvalidFile},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			ab, err := ReadAbundances(strings.NewReader(test.input))
			if !errors.Is(err, test.expectedErr) {
				t.Fatalf("got %v, expected %v", err, test.expectedErr)
			}
			assert.Equal(t, test.expected, ab)
		})
	}
}

func TestReadAbundanceFile(t *testing.T) {
	ab, err := ReadAbundanceFile("testdata/reads.fa")
	require.NoError(t, err)
	assert.Equal(t, Abundances{"seq1": 3, "seq2": 1, "seq3": 1}, ab)

	count, ok := ab.Lookup("seq1")
	assert.True(t, ok)
	assert.Equal(t, 3, count)
	_, ok = ab.Lookup("seq")
	assert.False(t, ok)
}
