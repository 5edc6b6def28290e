package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gyeh/pricefacts/internal/rawtable"
)

// Source is one hospital's raw file as delivered by the acquisition
// collaborator: already fetched and decompressed.
type Source struct {
	Path   string
	Format rawtable.Format
}

// SourceResolver locates the source file for a hospital. ok=false means no
// file was delivered for this hospital this run.
type SourceResolver interface {
	Resolve(hospitalID int64) (Source, bool)
}

// DirSource resolves sources from a flat directory of per-hospital files
// named <hospital_id>.<ext>. Spreadsheet sources arrive pre-converted as
// <hospital_id>.xlsx.csv, keeping their provenance in the name so the
// registry can key on the original format.
type DirSource struct {
	Dir string
}

func (d *DirSource) Resolve(hospitalID int64) (Source, bool) {
	candidates := []struct {
		suffix string
		format rawtable.Format
	}{
		{".csv", rawtable.FormatCSV},
		{".json", rawtable.FormatJSON},
		{".xlsx.csv", rawtable.FormatXLSX},
	}
	for _, c := range candidates {
		path := filepath.Join(d.Dir, fmt.Sprintf("%d%s", hospitalID, c.suffix))
		if _, err := os.Stat(path); err == nil {
			return Source{Path: path, Format: c.format}, true
		}
	}
	return Source{}, false
}
