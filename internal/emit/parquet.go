package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/pricefacts/internal/model"
)

// ParquetSink writes one Parquet file per hospital under Dir, named
// <hospital_id>.parquet, using the model.FactRow schema.
type ParquetSink struct {
	Dir string
}

func (s *ParquetSink) Write(ctx context.Context, hospitalID int64, facts []model.PriceFact) (int64, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%d.parquet", hospitalID))
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	w := parquet.NewGenericWriter[model.FactRow](f)
	rows := make([]model.FactRow, len(facts))
	for i := range facts {
		rows[i] = facts[i].ToRow()
	}

	var n int64
	for len(rows) > 0 {
		if err := ctx.Err(); err != nil {
			f.Close()
			os.Remove(path)
			return 0, err
		}
		wrote, err := w.Write(rows)
		if err != nil {
			f.Close()
			os.Remove(path)
			return 0, fmt.Errorf("write parquet rows: %w", err)
		}
		n += int64(wrote)
		rows = rows[wrote:]
	}

	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return n, nil
}
