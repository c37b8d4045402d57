package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// NewSQLiteDB opens the SQLite file at dbPath.
func NewSQLiteDB(dbPath string, readonly bool) (*sql.DB, error) {
	if readonly {
		dbPath = "file:" + dbPath + "?mode=ro&immutable=1"
	}
	slog.Info("opening SQLite DB", "dbPath", dbPath)
	db, err := sql.Open(SQLiteDriverName, dbPath)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SQLiteRecordSource reads records from the waste_records table.
type SQLiteRecordSource struct {
	db *sql.DB
}

func NewSQLiteRecordSource(db *sql.DB) *SQLiteRecordSource {
	return &SQLiteRecordSource{db: db}
}

const recordsQuery = `SELECT year, state, sector, sub_sector, food_type, tons_waste
	FROM waste_records ORDER BY rowid`

func (s *SQLiteRecordSource) LoadRecords(ctx context.Context) ([]WasteRecord, error) {
	rows, err := s.db.QueryContext(ctx, recordsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying waste_records: %w", err)
	}
	defer rows.Close()

	var records []WasteRecord
	for rows.Next() {
		var r WasteRecord
		var sector, subSector, foodType sql.NullString
		var tons sql.NullFloat64
		if err := rows.Scan(&r.Year, &r.State, &sector, &subSector, &foodType, &tons); err != nil {
			return nil, fmt.Errorf("scanning waste_records: %w", err)
		}
		r.Sector, r.SubSector, r.FoodType = sector.String, subSector.String, foodType.String
		r.TonsWaste = tons.Float64
		records = append(records, r)
	}
	return records, rows.Err()
}

// InitSQLiteSchema creates the waste_records table when missing.
func InitSQLiteSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS waste_records (
			year INTEGER NOT NULL,
			state TEXT NOT NULL,
			sector TEXT,
			sub_sector TEXT,
			food_type TEXT,
			tons_waste REAL
		);
		CREATE INDEX IF NOT EXISTS idx_waste_records_year_state ON waste_records(year, state);
	`)
	if err != nil {
		return fmt.Errorf("failed to create waste_records table: %w", err)
	}
	return nil
}

// ImportRecords replaces the contents of waste_records with records in one
// transaction.
func ImportRecords(ctx context.Context, db *sql.DB, records []WasteRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM waste_records"); err != nil {
		return fmt.Errorf("clearing waste_records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO waste_records
		(year, state, sector, sub_sector, food_type, tons_waste) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Year, r.State, r.Sector, r.SubSector, r.FoodType, r.TonsWaste); err != nil {
			return fmt.Errorf("inserting %d/%s: %w", r.Year, r.State, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("imported records into SQLite", "rows", len(records))
	return nil
}
