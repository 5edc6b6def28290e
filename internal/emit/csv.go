package emit

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gyeh/pricefacts/internal/model"
)

// CSVSink writes one headerless CSV file per hospital under Dir, named
// <hospital_id>.csv. Values are already cleaned: no thousands separators,
// no currency symbols.
type CSVSink struct {
	Dir string
}

func (s *CSVSink) Write(ctx context.Context, hospitalID int64, facts []model.PriceFact) (int64, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%d.csv", hospitalID))
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	var n int64
	for i := range facts {
		if err := ctx.Err(); err != nil {
			f.Close()
			os.Remove(path)
			return 0, err
		}
		fa := &facts[i]
		rec := []string{
			strconv.FormatInt(fa.HospitalID, 10),
			strconv.FormatInt(fa.ConceptID, 10),
			string(fa.PriceType),
			strconv.FormatFloat(fa.Amount, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			os.Remove(path)
			return 0, fmt.Errorf("write fact row: %w", err)
		}
		n++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return n, nil
}
