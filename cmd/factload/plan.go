package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gyeh/pricefacts/internal/exitcode"
	"github.com/gyeh/pricefacts/internal/hospitals"
	"github.com/gyeh/pricefacts/internal/logging"
	"github.com/gyeh/pricefacts/internal/pipeline"
	"github.com/gyeh/pricefacts/internal/vocab"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run adapter coverage and vocabulary stats (no writes)",
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&cfg.VocabPath, "vocab", "", "Path to the CONCEPT vocabulary file (.csv or .csv.gz)")
	f.StringVar(&cfg.HospitalsPath, "hospitals", "", "Path to the hospital dimension CSV")
	f.StringVar(&cfg.InputDir, "input", "", "Directory of per-hospital source files")
	f.StringVar(&cfg.RulesPath, "rules", "", "Override the embedded adapter rule table")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if cfg.HospitalsPath == "" || cfg.InputDir == "" {
		log.Error().Msg("--hospitals and --input are required")
		os.Exit(exitcode.UsageError)
	}

	reg, err := loadRegistry()
	if err != nil {
		log.Error().Err(err).Msg("adapter rule table failed to load")
		os.Exit(exitcode.ValidationError)
	}

	hs, err := hospitals.OpenFile(cfg.HospitalsPath)
	if err != nil {
		log.Error().Err(err).Msg("hospital dimension load failed")
		os.Exit(exitcode.ValidationError)
	}

	sources := &pipeline.DirSource{Dir: cfg.InputDir}

	type gap struct {
		h      hospitals.Hospital
		reason string
	}
	var covered, positional int
	var gaps []gap
	ruleUse := make(map[string]int)

	for _, h := range hs {
		src, ok := sources.Resolve(h.ID)
		if !ok {
			reason := "no source file"
			if reg.Supported(h.ID) {
				reason = "no source file (adapter registered)"
			}
			gaps = append(gaps, gap{h, reason})
			continue
		}
		rule, ok := reg.Lookup(h.ID, src.Format)
		if !ok {
			gaps = append(gaps, gap{h, fmt.Sprintf("no adapter for format %s", src.Format)})
			continue
		}
		covered++
		ruleUse[rule.Name]++
		if rule.Positional() {
			positional++
			log.Warn().
				Int64("hospital_id", h.ID).
				Str("rule", rule.Name).
				Msg("rule binds columns by position")
		}
	}

	fmt.Println("=== factload plan ===")
	fmt.Printf("Hospitals:        %d\n", len(hs))
	fmt.Printf("Covered:          %d\n", covered)
	fmt.Printf("Gaps:             %d\n", len(gaps))
	fmt.Printf("Positional rules: %d hospitals\n", positional)
	fmt.Printf("Rules registered: %d\n", len(reg.Rules()))

	if cfg.VocabPath != "" {
		idx, err := vocab.OpenFile(cfg.VocabPath)
		if err != nil {
			log.Error().Err(err).Msg("vocabulary load failed")
			os.Exit(exitcode.ValidationError)
		}
		fmt.Printf("Vocabulary codes: %d\n", idx.Len())
	}

	if len(ruleUse) > 0 {
		fmt.Println()
		fmt.Println("Rule usage:")
		names := make([]string, 0, len(ruleUse))
		for name := range ruleUse {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-28s %d hospitals\n", name, ruleUse[name])
		}
	}

	if len(gaps) > 0 {
		fmt.Println()
		fmt.Println("Coverage gaps:")
		for _, g := range gaps {
			fmt.Printf("  %6d  %-32s %s\n", g.h.ID, g.h.Name, g.reason)
		}
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
