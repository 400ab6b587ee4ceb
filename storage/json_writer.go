package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"ceni-cache/models"
)

// JSONWriter mirrors CSVWriter with a structured-document format:
// <dir>/<date>.json and <dir>/<date>-<brand>.json.
type JSONWriter struct {
	dir string
}

// NewJSONWriter creates the cache directory if needed.
func NewJSONWriter(dir string) (*JSONWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("json: create cache dir: %w", err)
	}
	return &JSONWriter{dir: dir}, nil
}

// Write marshals the records as an indented JSON array.
func (j *JSONWriter) Write(date, brand string, records []*models.PriceRecord) error {
	path := SnapshotPath(j.dir, date, brand, "json")

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("json: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("json: write file %q: %w", path, err)
	}
	return nil
}

// Close is a no-op: each snapshot file is written atomically per Write.
func (j *JSONWriter) Close() error { return nil }
