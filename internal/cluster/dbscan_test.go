package cluster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func scoreMatrix() *mat.SymDense {
	return mat.NewSymDense(6, []float64{
		0, 1, 1.5, 10, 10, -1,
		1, 0, 1, 10, 10, -1,
		1.5, 1, 0, 10, 10, -1,
		10, 10, 10, 0, 0.5, -1,
		10, 10, 10, 0.5, 0, -1,
		-1, -1, -1, -1, -1, 0,
	})
}

func TestDBSCAN(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      Config
		labels   []int
		clusters int
		core     []uint
	}{
		{
			name:     "two clusters",
			cfg:      Config{Epsilon: 1, MinPoints: 2},
			labels:   []int{0, 0, 0, 1, 1, Noise},
			clusters: 2,
			core:     []uint{0, 1, 2, 3, 4},
		},
		{
			name:     "border points",
			cfg:      Config{Epsilon: 1, MinPoints: 3},
			labels:   []int{0, 0, 0, Noise, Noise, Noise},
			clusters: 1,
			core:     []uint{1},
		},
		{
			name:     "every tree alone",
			cfg:      Config{Epsilon: 0.1, MinPoints: 1},
			labels:   []int{0, 1, 2, 3, 4, 5},
			clusters: 6,
			core:     []uint{0, 1, 2, 3, 4, 5},
		},
		{
			name:     "one cluster",
			cfg:      Config{Epsilon: 10, MinPoints: 2},
			labels:   []int{0, 0, 0, 0, 0, Noise},
			clusters: 1,
			core:     []uint{0, 1, 2, 3, 4},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			res, err := DBSCAN(scoreMatrix(), test.cfg)
			require.NoError(t, err)
			assert.Equal(t, test.labels, res.Labels)
			assert.Equal(t, test.clusters, res.Clusters)
			core := make([]uint, 0)
			for i, ok := res.Core.NextSet(0); ok; i, ok = res.Core.NextSet(i + 1) {
				core = append(core, i)
			}
			assert.Equal(t, test.core, core)
		})
	}
}

func TestDBSCANInvalidConfig(t *testing.T) {
	for _, cfg := range []Config{{Epsilon: -1, MinPoints: 2}, {Epsilon: 1, MinPoints: 0}} {
		_, err := DBSCAN(scoreMatrix(), cfg)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	}
}
