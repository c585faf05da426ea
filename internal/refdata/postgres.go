package refdata

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ecobuild/internal/db"
	"github.com/sells-group/ecobuild/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS city_pollution (
	id        BIGSERIAL PRIMARY KEY,
	city      TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	pm25      DOUBLE PRECISION NOT NULL,
	no2       DOUBLE PRECISION NOT NULL,
	so2       DOUBLE PRECISION NOT NULL,
	co_mg_m3  DOUBLE PRECISION NOT NULL,
	o3        DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS sensitive_zones (
	id       BIGSERIAL PRIMARY KEY,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	lat      DOUBLE PRECISION NOT NULL,
	lng      DOUBLE PRECISION NOT NULL
);
`

// Postgres stores the reference tables in PostgreSQL. It is both a Source
// and an import target.
type Postgres struct {
	pool db.Pool
}

// NewPostgres wraps a pool.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the reference tables if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)
	return eris.Wrap(err, "postgres: migrate")
}

// Name implements Source.
func (p *Postgres) Name() string { return "postgres" }

// LoadCities implements Source.
func (p *Postgres) LoadCities(ctx context.Context) ([]model.CityRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT city, latitude, longitude, pm25, no2, so2, co_mg_m3, o3 FROM city_pollution ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query cities")
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CityRecord, error) {
		var c model.CityRecord
		err := row.Scan(&c.Name, &c.Latitude, &c.Longitude, &c.PM25, &c.NO2, &c.SO2, &c.CO, &c.O3)
		return c, err
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan cities")
	}
	return cities, nil
}

// LoadZones implements Source.
func (p *Postgres) LoadZones(ctx context.Context) ([]model.SensitiveZone, error) {
	rows, err := p.pool.Query(ctx, `SELECT name, category, lat, lng FROM sensitive_zones ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query zones")
	}
	zones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SensitiveZone, error) {
		var z model.SensitiveZone
		err := row.Scan(&z.Name, &z.Category, &z.Latitude, &z.Longitude)
		return z, err
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan zones")
	}
	return zones, nil
}

// ReplaceCities implements Writer.
func (p *Postgres) ReplaceCities(ctx context.Context, cities []model.CityRecord) (int64, error) {
	rows := make([][]any, len(cities))
	for i, c := range cities {
		rows[i] = cityRow(c)
	}
	return db.ReplaceTable(ctx, p.pool, "city_pollution", CityColumns, rows)
}

// ReplaceZones implements Writer.
func (p *Postgres) ReplaceZones(ctx context.Context, zones []model.SensitiveZone) (int64, error) {
	rows := make([][]any, len(zones))
	for i, z := range zones {
		rows[i] = zoneRow(z)
	}
	return db.ReplaceTable(ctx, p.pool, "sensitive_zones", ZoneColumns, rows)
}
