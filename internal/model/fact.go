package model

import "github.com/google/uuid"

// PriceFact is the canonical long-form output unit: one price of one type
// for one standardized procedure at one hospital. Facts are created per run,
// never mutated, and fully replace the hospital's prior output downstream.
type PriceFact struct {
	HospitalID int64
	ConceptID  int64
	PriceType  PriceType
	Amount     float64
}

// FactColumns returns the fixed column order at the output boundary.
func FactColumns() []string {
	return []string{
		"hospital_id",
		"concept_id",
		"price_type",
		"amount",
	}
}

// DBColumns returns the column order for COPY into facts.price_facts,
// which carries the load run id alongside the boundary columns.
func DBColumns() []string {
	return append(FactColumns(), "load_run_id")
}

// CopyValues returns the row values in DBColumns() order, suitable for
// pgx CopyFromSource.
func (f *PriceFact) CopyValues(loadRunID uuid.UUID) []any {
	return []any{
		f.HospitalID,
		f.ConceptID,
		string(f.PriceType),
		f.Amount,
		loadRunID,
	}
}

// FactRow mirrors the Parquet schema for a single emitted fact.
type FactRow struct {
	HospitalID int64   `parquet:"hospital_id"`
	ConceptID  int64   `parquet:"concept_id"`
	PriceType  string  `parquet:"price_type"`
	Amount     float64 `parquet:"amount"`
}

// ToRow converts a fact to its Parquet representation.
func (f *PriceFact) ToRow() FactRow {
	return FactRow{
		HospitalID: f.HospitalID,
		ConceptID:  f.ConceptID,
		PriceType:  string(f.PriceType),
		Amount:     f.Amount,
	}
}
