package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"ceni-cache/models"
	"ceni-cache/utils"
)

// PostgresWriter persists snapshots to PostgreSQL in addition to the on-disk
// cache. Optional: only wired when POSTGRES_ENABLED is set.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS prices (
			id          SERIAL PRIMARY KEY,
			market_id   VARCHAR(100) NOT NULL,
			market_name TEXT         NOT NULL,
			brand       VARCHAR(50)  NOT NULL,
			name        TEXT         NOT NULL,
			unit        TEXT         NOT NULL DEFAULT '',
			price       TEXT         NOT NULL,
			date        DATE         NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_prices_date  ON prices(date);
		CREATE INDEX IF NOT EXISTS idx_prices_brand ON prices(brand);
		CREATE INDEX IF NOT EXISTS idx_prices_name  ON prices(name);
	`)
	return err
}

// Write replaces the snapshot for (date, brand) and batch-inserts the given
// records. Each run is a full, independent snapshot.
func (pw *PostgresWriter) Write(date, brand string, records []*models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := pw.clear(date, brand); err != nil {
		return err
	}

	const batchSize = 100
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) clear(date, brand string) error {
	var err error
	if brand == "" {
		_, err = pw.db.Exec("DELETE FROM prices WHERE date = $1", date)
	} else {
		_, err = pw.db.Exec("DELETE FROM prices WHERE date = $1 AND brand = $2", date, brand)
	}
	if err != nil {
		return fmt.Errorf("postgres: clear snapshot: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.PriceRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*7)

	for idx, r := range batch {
		base := idx * 7
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			r.MarketID, r.MarketName, r.Brand, r.Name, r.Unit, r.Price, r.Date)
	}

	query := fmt.Sprintf(`
		INSERT INTO prices (market_id, market_name, brand, name, unit, price, date)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
