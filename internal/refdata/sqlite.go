package refdata

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ecobuild/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS city_pollution (
	city      TEXT NOT NULL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL,
	pm25      REAL NOT NULL,
	no2       REAL NOT NULL,
	so2       REAL NOT NULL,
	co_mg_m3  REAL NOT NULL,
	o3        REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS sensitive_zones (
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	lat      REAL NOT NULL,
	lng      REAL NOT NULL
);
`

// SQLiteDB stores the reference tables in a SQLite file. It is both a Source
// and an import target.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database at dsn and configures WAL mode.
func OpenSQLite(dsn string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteDB{db: db}, nil
}

// Migrate creates the reference tables if missing.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Name implements Source.
func (s *SQLiteDB) Name() string { return "sqlite" }

// LoadCities implements Source. Rows come back in insertion order.
func (s *SQLiteDB) LoadCities(ctx context.Context) ([]model.CityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT city, latitude, longitude, pm25, no2, so2, co_mg_m3, o3 FROM city_pollution ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query cities")
	}
	defer rows.Close() //nolint:errcheck

	var cities []model.CityRecord
	for rows.Next() {
		var c model.CityRecord
		if err := rows.Scan(&c.Name, &c.Latitude, &c.Longitude, &c.PM25, &c.NO2, &c.SO2, &c.CO, &c.O3); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city")
		}
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "sqlite: iterate cities")
}

// LoadZones implements Source.
func (s *SQLiteDB) LoadZones(ctx context.Context) ([]model.SensitiveZone, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, category, lat, lng FROM sensitive_zones ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query zones")
	}
	defer rows.Close() //nolint:errcheck

	var zones []model.SensitiveZone
	for rows.Next() {
		var z model.SensitiveZone
		if err := rows.Scan(&z.Name, &z.Category, &z.Latitude, &z.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan zone")
		}
		zones = append(zones, z)
	}
	return zones, eris.Wrap(rows.Err(), "sqlite: iterate zones")
}

// ReplaceCities implements Writer.
func (s *SQLiteDB) ReplaceCities(ctx context.Context, cities []model.CityRecord) (int64, error) {
	rows := make([][]any, len(cities))
	for i, c := range cities {
		rows[i] = cityRow(c)
	}
	return s.replace(ctx, "city_pollution", CityColumns, rows)
}

// ReplaceZones implements Writer.
func (s *SQLiteDB) ReplaceZones(ctx context.Context, zones []model.SensitiveZone) (int64, error) {
	rows := make([][]any, len(zones))
	for i, z := range zones {
		rows[i] = zoneRow(z)
	}
	return s.replace(ctx, "sensitive_zones", ZoneColumns, rows)
}

func (s *SQLiteDB) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: begin tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: clear", table)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: prepare", table)
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: replace %s: insert", table)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: commit", table)
	}
	return int64(len(rows)), nil
}

func insertSQL(table string, columns []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + marks + ")"
}

func cityRow(c model.CityRecord) []any {
	return []any{c.Name, c.Latitude, c.Longitude, c.PM25, c.NO2, c.SO2, c.CO, c.O3}
}

func zoneRow(z model.SensitiveZone) []any {
	return []any{z.Name, z.Category, z.Latitude, z.Longitude}
}
