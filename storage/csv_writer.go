package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ceni-cache/models"
)

// CSVWriter writes dated price snapshots as CSV files under a cache
// directory: <dir>/<date>.csv for the combined snapshot and
// <dir>/<date>-<brand>.csv for per-brand subsets.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates the cache directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create cache dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Write creates (or truncates) the snapshot file for the given key and writes
// a header row plus one row per record.
func (c *CSVWriter) Write(date, brand string, records []*models.PriceRecord) error {
	path := SnapshotPath(c.dir, date, brand, "csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"market_id", "market_name", "brand", "name", "unit", "price", "date",
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range records {
		row := []string{r.MarketID, r.MarketName, r.Brand, r.Name, r.Unit, r.Price, r.Date}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// Close is a no-op: each snapshot file is opened and closed per Write.
func (c *CSVWriter) Close() error { return nil }

// SnapshotPath builds the dated snapshot filename for a format. Brand is
// optional and lowercased into the name when present.
func SnapshotPath(dir, date, brand, ext string) string {
	name := date
	if brand != "" {
		name += "-" + strings.ToLower(brand)
	}
	return filepath.Join(dir, name+"."+ext)
}
