package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/pricefacts/internal/config"
	"github.com/gyeh/pricefacts/internal/db"
	"github.com/gyeh/pricefacts/internal/emit"
	"github.com/gyeh/pricefacts/internal/exitcode"
	"github.com/gyeh/pricefacts/internal/hospitals"
	"github.com/gyeh/pricefacts/internal/logging"
	"github.com/gyeh/pricefacts/internal/pipeline"
	"github.com/gyeh/pricefacts/internal/registry"
	"github.com/gyeh/pricefacts/internal/vocab"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process all hospitals and emit canonical price facts",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&cfg.VocabPath, "vocab", "", "Path to the CONCEPT vocabulary file (.csv or .csv.gz)")
	f.StringVar(&cfg.HospitalsPath, "hospitals", "", "Path to the hospital dimension CSV")
	f.StringVar(&cfg.InputDir, "input", "", "Directory of per-hospital source files")
	f.StringVar(&cfg.OutDir, "out", "", "Output directory for csv/parquet sinks")
	f.StringVar(&cfg.Sink, "sink", "", "Output sink: csv, parquet, or postgres (default csv)")
	f.StringVar(&cfg.RulesPath, "rules", "", "Override the embedded adapter rule table")
	f.IntVar(&cfg.Workers, "workers", 0, "Worker count (0 = number of CPUs)")
	f.StringVar(&configPath, "config", "", "Optional YAML config file")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			log.Error().Err(err).Msg("config load failed")
			os.Exit(exitcode.UsageError)
		}
	}
	// Sink defaults after the merge so a config file can still choose one.
	if cfg.Sink == "" {
		cfg.Sink = config.SinkCSV
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	reg, err := loadRegistry()
	if err != nil {
		log.Error().Err(err).Msg("adapter rule table failed to load")
		os.Exit(exitcode.ValidationError)
	}

	idx, err := vocab.OpenFile(cfg.VocabPath)
	if err != nil {
		log.Error().Err(err).Msg("vocabulary load failed")
		os.Exit(exitcode.ValidationError)
	}
	log.Info().Int("codes", idx.Len()).Msg("concept index built")

	hs, err := hospitals.OpenFile(cfg.HospitalsPath)
	if err != nil {
		log.Error().Err(err).Msg("hospital dimension load failed")
		os.Exit(exitcode.ValidationError)
	}

	loadRunID := uuid.New()

	var sink emit.Sink
	switch cfg.Sink {
	case config.SinkCSV:
		sink = &emit.CSVSink{Dir: cfg.OutDir}
	case config.SinkParquet:
		sink = &emit.ParquetSink{Dir: cfg.OutDir}
	case config.SinkPostgres:
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		if err := db.UpsertHospitals(ctx, pool, hs); err != nil {
			log.Error().Err(err).Msg("hospital dimension upsert failed")
			os.Exit(exitcode.LoadError)
		}
		sink = &db.FactStore{Pool: pool, LoadRunID: loadRunID}
	}

	summary, err := pipeline.Run(ctx, log, pipeline.Options{
		Registry:  reg,
		Index:     idx,
		Hospitals: hs,
		Sources:   &pipeline.DirSource{Dir: cfg.InputDir},
		Sink:      sink,
		Workers:   cfg.Workers,
		LoadRunID: loadRunID.String(),
	})
	if err != nil {
		log.Error().Err(err).Msg("load run aborted")
		os.Exit(exitcode.LoadError)
	}

	fmt.Printf("Run complete: %d hospitals emitted, %d empty, %d unsupported, %d failed, %d facts (%.1fs)\n",
		summary.Emitted, summary.Empty, summary.Unsupported, summary.Failed,
		summary.TotalFacts, summary.Duration.Seconds())

	if summary.Failed > 0 || summary.Unsupported > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

// loadRegistry returns the embedded rule table, or an external one when
// --rules is set.
func loadRegistry() (*registry.Registry, error) {
	if cfg.RulesPath == "" {
		return registry.Load()
	}
	f, err := os.Open(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	return registry.LoadFrom(f)
}
