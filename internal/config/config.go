// Package holding run settings read from a YAML file, a .env file and the
// environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "LINEAGE_"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Workers      int  `yaml:"workers"`      // parallel processes (0 = all available)
	Connectivity bool `yaml:"connectivity"` // add the adjacency term to scores
	Precision    int  `yaml:"precision"`    // decimals written in output matrices
	Cluster      struct {
		Epsilon   float64 `yaml:"epsilon"`
		MinPoints int     `yaml:"min_points"`
	} `yaml:"cluster"`
	Plot string `yaml:"plot"` // prefix of the score histogram, empty for none
}

func Default() *Config {
	cfg := &Config{Connectivity: true, Precision: 5}
	cfg.Cluster.Epsilon = 0.5
	cfg.Cluster.MinPoints = 2
	return cfg
}

// Loads defaults, then the YAML file at path (skipped when path is empty),
// then LINEAGE_* environment variables. A .env file in the working directory
// is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("%w, %s: %s", ErrInvalidConfig, path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) applyEnv() error {
	ints := map[string]*int{
		"WORKERS":            &cfg.Workers,
		"PRECISION":          &cfg.Precision,
		"CLUSTER_MIN_POINTS": &cfg.Cluster.MinPoints,
	}
	for key, field := range ints {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w, %s%s=%q is not an integer", ErrInvalidConfig, envPrefix, key, v)
			}
			*field = n
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "CONNECTIVITY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w, %sCONNECTIVITY=%q is not a boolean", ErrInvalidConfig, envPrefix, v)
		}
		cfg.Connectivity = b
	}
	if v, ok := os.LookupEnv(envPrefix + "CLUSTER_EPSILON"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w, %sCLUSTER_EPSILON=%q is not a number", ErrInvalidConfig, envPrefix, v)
		}
		cfg.Cluster.Epsilon = f
	}
	if v, ok := os.LookupEnv(envPrefix + "PLOT"); ok {
		cfg.Plot = v
	}
	return nil
}

func (cfg *Config) Validate() error {
	if cfg.Workers < 0 {
		return fmt.Errorf("%w, workers must be non-negative, but is %d", ErrInvalidConfig, cfg.Workers)
	}
	if cfg.Precision < 0 || cfg.Precision > 17 {
		return fmt.Errorf("%w, precision must be in [0, 17], but is %d", ErrInvalidConfig, cfg.Precision)
	}
	return nil
}
