package storage

import "ceni-cache/models"

// SnapshotWriter is the interface any snapshot backend must satisfy. A
// snapshot is addressed by its logical date and an optional brand: an empty
// brand means the combined run-wide snapshot.
type SnapshotWriter interface {
	Write(date, brand string, records []*models.PriceRecord) error
	Close() error
}
