package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/pricefacts/internal/model"
)

// FactSource implements pgx.CopyFromSource over a finished fact batch,
// tagging every row with the load run id.
type FactSource struct {
	facts     []model.PriceFact
	loadRunID uuid.UUID
	pos       int
}

// NewFactSource creates a CopyFromSource for one hospital's fact batch.
func NewFactSource(facts []model.PriceFact, loadRunID uuid.UUID) *FactSource {
	return &FactSource{facts: facts, loadRunID: loadRunID}
}

// Next advances to the next fact.
func (s *FactSource) Next() bool {
	if s.pos >= len(s.facts) {
		return false
	}
	s.pos++
	return true
}

// Values returns the current fact's values in COPY column order.
func (s *FactSource) Values() ([]any, error) {
	return s.facts[s.pos-1].CopyValues(s.loadRunID), nil
}

// Err returns any error encountered during iteration.
func (s *FactSource) Err() error { return nil }

// Compile-time check that FactSource satisfies the interface.
var _ pgx.CopyFromSource = (*FactSource)(nil)
