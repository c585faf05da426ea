package refdata

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/model"
)

// Writer is an import target for the reference tables.
type Writer interface {
	Migrate(ctx context.Context) error
	ReplaceCities(ctx context.Context, cities []model.CityRecord) (int64, error)
	ReplaceZones(ctx context.Context, zones []model.SensitiveZone) (int64, error)
}

// ImportStats reports what an import wrote.
type ImportStats struct {
	Cities          int64 `json:"cities"`
	DuplicateCities int   `json:"duplicate_cities"`
	Zones           int64 `json:"zones"`
}

// Import copies both tables from src into dst. Duplicate city names are
// dropped before writing, keeping the first occurrence. Nothing is written
// unless both tables read cleanly.
func Import(ctx context.Context, src Source, dst Writer) (ImportStats, error) {
	cities, zones, err := Tables(ctx, src)
	if err != nil {
		return ImportStats{}, eris.Wrap(err, "refdata: import: read source")
	}

	if err := dst.Migrate(ctx); err != nil {
		return ImportStats{}, eris.Wrap(err, "refdata: import")
	}

	unique := NewSnapshot(cities, nil).Cities()
	stats := ImportStats{DuplicateCities: len(cities) - len(unique)}

	if stats.Cities, err = dst.ReplaceCities(ctx, unique); err != nil {
		return stats, eris.Wrap(err, "refdata: import cities")
	}
	if stats.Zones, err = dst.ReplaceZones(ctx, zones); err != nil {
		return stats, eris.Wrap(err, "refdata: import zones")
	}

	zap.L().Info("refdata: import complete",
		zap.String("source", src.Name()),
		zap.Int64("cities", stats.Cities),
		zap.Int("duplicate_cities", stats.DuplicateCities),
		zap.Int64("zones", stats.Zones),
	)
	return stats, nil
}
