// Package pipeline orchestrates a load run: for each hospital, select the
// adapter rule, extract candidates from the raw table, conform them into
// facts, and emit the batch. Hospitals are independent and processed by a
// bounded worker pool sharing only the read-only concept index; a failure
// on one hospital never aborts the others.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/pricefacts/internal/conform"
	"github.com/gyeh/pricefacts/internal/emit"
	"github.com/gyeh/pricefacts/internal/extract"
	"github.com/gyeh/pricefacts/internal/hospitals"
	"github.com/gyeh/pricefacts/internal/logging"
	"github.com/gyeh/pricefacts/internal/model"
	"github.com/gyeh/pricefacts/internal/rawtable"
	"github.com/gyeh/pricefacts/internal/registry"
	"github.com/gyeh/pricefacts/internal/vocab"
)

// Options configures a load run.
type Options struct {
	Registry  *registry.Registry
	Index     *vocab.Index
	Hospitals []hospitals.Hospital
	Sources   SourceResolver
	Sink      emit.Sink
	Workers   int // <= 0 defaults to runtime.NumCPU()
	LoadRunID string
}

// Run processes every hospital in the dimension and returns the aggregated
// summary. The only error return is context cancellation; per-hospital
// outcomes, including failures, live on the summary.
func Run(ctx context.Context, log zerolog.Logger, opts Options) (*model.RunSummary, error) {
	start := time.Now()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(opts.Hospitals) && len(opts.Hospitals) > 0 {
		workers = len(opts.Hospitals)
	}

	jobs := make(chan hospitals.Hospital)
	results := make(chan model.HospitalResult)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for h := range jobs {
				results <- processHospital(ctx, log, &opts, h)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, h := range opts.Hospitals {
			select {
			case jobs <- h:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &model.RunSummary{LoadRunID: opts.LoadRunID}
	for r := range results {
		logResult(log, r)
		summary.Add(r)
	}
	summary.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	log.Info().
		Int("hospitals", len(summary.Hospitals)).
		Int("emitted", summary.Emitted).
		Int("empty", summary.Empty).
		Int("unsupported", summary.Unsupported).
		Int("failed", summary.Failed).
		Int64("total_facts", summary.TotalFacts).
		Str("duration", summary.Duration.String()).
		Msg("load run complete")

	return summary, nil
}

// processHospital runs the extract → conform → emit sequence for one
// hospital. All state is local; nothing here mutates shared scope.
func processHospital(ctx context.Context, log zerolog.Logger, opts *Options, h hospitals.Hospital) model.HospitalResult {
	start := time.Now()
	hlog := logging.ForHospital(log, h.ID)
	res := model.HospitalResult{HospitalID: h.ID, Affiliation: h.Affiliation}

	fail := func(phase string, err error) model.HospitalResult {
		res.Status = model.StatusFailed
		res.Err = &HospitalError{HospitalID: h.ID, Phase: phase, Err: err}
		res.Duration = time.Since(start)
		return res
	}

	src, ok := opts.Sources.Resolve(h.ID)
	if !ok {
		return fail("discover", errors.New("no source file delivered"))
	}

	rule, ok := opts.Registry.Lookup(h.ID, src.Format)
	if !ok {
		res.Status = model.StatusUnsupported
		res.Err = &UnsupportedHospitalError{HospitalID: h.ID, Format: src.Format}
		res.Duration = time.Since(start)
		return res
	}

	if rule.Positional() {
		hlog.Warn().
			Str("rule", rule.Name).
			Msg("rule binds columns by position; not stable across file revisions")
	}

	table, err := rawtable.Open(src.Path, src.Format, rule.SkipRows)
	if err != nil {
		return fail("open", err)
	}
	defer table.Close()

	extracted, err := extract.Extract(table, rule)
	if err != nil {
		// Missing columns mean upstream format drift: withhold the
		// hospital's output entirely, never emit a partial fact set.
		return fail("extract", err)
	}
	res.RowsRead = extracted.RowsRead
	res.Candidates = int64(len(extracted.Candidates))

	facts, skips := conform.Conform(extracted.Candidates, opts.Index, h.ID)
	res.EmptyCodes = skips.EmptyCode
	res.UnresolvedCodes = skips.UnresolvedCode
	res.BadAmounts = skips.BadAmount
	res.NonPositive = skips.NonPositive

	n, err := emit.Emit(ctx, h.ID, facts, opts.Sink)
	if err != nil {
		return fail("emit", err)
	}
	res.Facts = n

	if n == 0 {
		res.Status = model.StatusEmpty
	} else {
		res.Status = model.StatusEmitted
	}
	res.Duration = time.Since(start)
	return res
}

func logResult(log zerolog.Logger, r model.HospitalResult) {
	ev := log.Info()
	switch r.Status {
	case model.StatusUnsupported:
		// Distinct from "adapter ran, zero valid rows": operators must be
		// able to tell "we never built this hospital" apart.
		log.Warn().Int64("hospital_id", r.HospitalID).Err(r.Err).Msg("hospital unsupported")
		return
	case model.StatusFailed:
		log.Error().Int64("hospital_id", r.HospitalID).Err(r.Err).Msg("hospital failed, output withheld")
		return
	case model.StatusEmpty:
		ev = log.Info().Str("outcome", "no valid prices this run")
	}
	ev.
		Int64("hospital_id", r.HospitalID).
		Str("affiliation", r.Affiliation).
		Int64("rows_read", r.RowsRead).
		Int64("candidates", r.Candidates).
		Int64("facts", r.Facts).
		Int64("empty_codes", r.EmptyCodes).
		Int64("unresolved_codes", r.UnresolvedCodes).
		Int64("bad_amounts", r.BadAmounts).
		Int64("non_positive", r.NonPositive).
		Str("duration", r.Duration.String()).
		Msg("hospital complete")
}
