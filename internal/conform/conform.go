// Package conform turns wide candidate records into canonical long-form
// price facts: code filtering, vocabulary resolution, wide-to-long reshape,
// numeric cleaning, and the strictly-positive range filter. Every step is
// a total function over its input; per-row data quality issues are counted,
// never errored.
package conform

import (
	"github.com/gyeh/pricefacts/internal/model"
	"github.com/gyeh/pricefacts/internal/normalize"
	"github.com/gyeh/pricefacts/internal/vocab"
)

// placeholderCode is the literal some hospitals publish for "no code".
const placeholderCode = "*"

// Skips counts rows dropped by each filter. These are expected noise in
// source data and surface only as summary counts.
type Skips struct {
	EmptyCode      int64
	UnresolvedCode int64
	BadAmount      int64
	NonPositive    int64
}

// Total returns the sum of all skip counters.
func (s Skips) Total() int64 {
	return s.EmptyCode + s.UnresolvedCode + s.BadAmount + s.NonPositive
}

// Conform validates and reshapes candidates into facts for one hospital.
// The index is read-only and shared across hospitals. The steps run in a
// fixed order: the code filter precedes resolution so empty and placeholder
// codes never attempt a vocabulary lookup. Applying Conform to the string
// rendering of its own output is a no-op.
func Conform(candidates []model.CandidateRecord, idx *vocab.Index, hospitalID int64) ([]model.PriceFact, Skips) {
	var facts []model.PriceFact
	var skips Skips

	for i := range candidates {
		c := &candidates[i]

		// Step 1: code filter.
		if c.Code == "" || c.Code == placeholderCode {
			skips.EmptyCode++
			continue
		}

		// Step 2: code resolution. Unresolved codes are dropped, not
		// errored.
		conceptID, ok := idx.Resolve(c.Code)
		if !ok {
			skips.UnresolvedCode++
			continue
		}

		// Step 3: wide-to-long. One fact per price field present on the
		// row; a row with only gross yields one, all four yield four.
		for _, pt := range model.AllPriceTypes {
			raw := c.Amount(pt)
			if raw == nil || *raw == "" {
				continue
			}

			// Step 4: numeric cleaning. Non-numeric amounts (descriptive
			// text captured by loose source columns) are treated as
			// absent.
			amount, ok := normalize.CleanAmount(*raw)
			if !ok {
				skips.BadAmount++
				continue
			}

			// Step 5: range filter. Zero and negative amounts are
			// "not applicable" sentinels.
			if amount <= 0 {
				skips.NonPositive++
				continue
			}

			// Step 6: hospital tagging.
			facts = append(facts, model.PriceFact{
				HospitalID: hospitalID,
				ConceptID:  conceptID,
				PriceType:  pt,
				Amount:     amount,
			})
		}
	}

	return facts, skips
}
