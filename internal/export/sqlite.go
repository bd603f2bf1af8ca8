// Package export hands a Measurement Table to downstream tools as a SQLite
// database or CSV.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id            TEXT PRIMARY KEY,
		label             TEXT,
		loaded_at         TEXT,
		row_count         BIGINT,
		notes             TEXT
	);
	CREATE TABLE IF NOT EXISTS measurements (
		run_id            TEXT NOT NULL,
		source            TEXT NOT NULL,
		instrument        TEXT NOT NULL,
		profile_number    TEXT NOT NULL,
		longitude         DOUBLE,
		latitude          DOUBLE,
		timestamp         TEXT,
		format            TEXT,
		notes             TEXT,
		temp              DOUBLE NOT NULL,
		salt              DOUBLE NOT NULL,
		p                 DOUBLE NOT NULL,
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
	CREATE INDEX IF NOT EXISTS idx_measurements_profile
		ON measurements (run_id, source, instrument, profile_number);
`

const insertMeasurement = `
	INSERT INTO measurements (
		run_id, source, instrument, profile_number, longitude, latitude,
		timestamp, format, notes, temp, salt, p
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteSQLite appends t to the database at path under its run ID, creating
// the schema if needed. label names the plot record that produced t. The
// run is written in one transaction.
func WriteSQLite(ctx context.Context, path, label string, t *domain.Table) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, label, loaded_at, row_count, notes) VALUES (?, ?, ?, ?, ?)`,
		t.RunID, label, t.LoadedAt.UTC().Format(time.RFC3339), t.Len(), t.Notes(),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", t.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertMeasurement)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range t.Rows() {
		if _, err := stmt.ExecContext(ctx,
			t.RunID, string(r.Source), r.Instrument, r.ProfileNumber,
			nullFloat(r.Longitude), nullFloat(r.Latitude), nullTime(r.Timestamp),
			r.FormatTag(), r.Notes, r.Temperature, r.Salinity, r.Pressure,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.UTC().Format(time.RFC3339), Valid: true}
}
