package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/pricefacts/internal/hospitals"
	"github.com/gyeh/pricefacts/internal/model"
)

// FactStore writes fact batches into Postgres. It implements emit.Sink:
// each hospital's batch replaces that hospital's prior rows in one
// transaction, so a run's output supersedes the previous run's.
type FactStore struct {
	Pool      *pgxpool.Pool
	LoadRunID uuid.UUID
}

// Write deletes the hospital's existing facts and COPY-loads the new batch
// atomically.
func (s *FactStore) Write(ctx context.Context, hospitalID int64, facts []model.PriceFact) (int64, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin fact load: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM facts.price_facts WHERE hospital_id = $1",
		hospitalID,
	); err != nil {
		return 0, fmt.Errorf("clear prior facts for hospital %d: %w", hospitalID, err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"facts", "price_facts"},
		model.DBColumns(),
		NewFactSource(facts, s.LoadRunID),
	)
	if err != nil {
		return 0, fmt.Errorf("copy facts for hospital %d: %w", hospitalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit fact load: %w", err)
	}
	return n, nil
}

// UpsertHospitals refreshes the hospital dimension table from the loaded
// dimension file.
func UpsertHospitals(ctx context.Context, pool *pgxpool.Pool, hs []hospitals.Hospital) error {
	batch := &pgx.Batch{}
	for _, h := range hs {
		batch.Queue(
			`INSERT INTO ref.hospitals (hospital_id, name, affiliation)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (hospital_id)
			 DO UPDATE SET name = EXCLUDED.name, affiliation = EXCLUDED.affiliation`,
			h.ID, h.Name, h.Affiliation,
		)
	}
	br := pool.SendBatch(ctx, batch)
	defer br.Close()
	for range hs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert hospitals: %w", err)
		}
	}
	return nil
}
