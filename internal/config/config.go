package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sink kinds accepted by --sink.
const (
	SinkCSV      = "csv"
	SinkParquet  = "parquet"
	SinkPostgres = "postgres"
)

// Config holds all runtime configuration for a factload run.
type Config struct {
	DSN           string
	VocabPath     string `yaml:"vocab"`
	HospitalsPath string `yaml:"hospitals"`
	InputDir      string `yaml:"input_dir"`
	OutDir        string `yaml:"out_dir"`
	Sink          string `yaml:"sink"`
	RulesPath     string `yaml:"rules"` // optional override of the embedded rule table
	Workers       int    `yaml:"workers"`
	LogFormat     string // "text" or "json"
}

// LoadFromFile reads a YAML config file and merges non-zero values into
// Config. Flags win over file values, so merge runs before flag parsing
// applies.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.VocabPath == "" {
		c.VocabPath = fc.VocabPath
	}
	if c.HospitalsPath == "" {
		c.HospitalsPath = fc.HospitalsPath
	}
	if c.InputDir == "" {
		c.InputDir = fc.InputDir
	}
	if c.OutDir == "" {
		c.OutDir = fc.OutDir
	}
	if c.Sink == "" {
		c.Sink = fc.Sink
	}
	if c.RulesPath == "" {
		c.RulesPath = fc.RulesPath
	}
	if c.Workers == 0 {
		c.Workers = fc.Workers
	}
	return nil
}

// Validate checks required fields for a full run.
func (c *Config) Validate() error {
	if c.VocabPath == "" {
		return fmt.Errorf("--vocab is required")
	}
	if _, err := os.Stat(c.VocabPath); err != nil {
		return fmt.Errorf("vocabulary not accessible: %w", err)
	}
	if c.HospitalsPath == "" {
		return fmt.Errorf("--hospitals is required")
	}
	if _, err := os.Stat(c.HospitalsPath); err != nil {
		return fmt.Errorf("hospital dimension not accessible: %w", err)
	}
	if c.InputDir == "" {
		return fmt.Errorf("--input is required")
	}
	if _, err := os.Stat(c.InputDir); err != nil {
		return fmt.Errorf("input dir not accessible: %w", err)
	}

	switch c.Sink {
	case SinkCSV, SinkParquet:
		if c.OutDir == "" {
			return fmt.Errorf("--out is required for the %s sink", c.Sink)
		}
	case SinkPostgres:
		if c.DSN == "" {
			return fmt.Errorf("--dsn or DATABASE_URL is required for the postgres sink")
		}
	default:
		return fmt.Errorf("unknown sink %q (want csv, parquet, or postgres)", c.Sink)
	}

	if c.Workers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	return nil
}
