package refdata

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ecobuild/internal/model"
)

// Source reads the two reference tables from some backing storage.
type Source interface {
	Name() string
	LoadCities(ctx context.Context) ([]model.CityRecord, error)
	LoadZones(ctx context.Context) ([]model.SensitiveZone, error)
}

// Tables reads both tables from src concurrently.
func Tables(ctx context.Context, src Source) ([]model.CityRecord, []model.SensitiveZone, error) {
	var (
		cities []model.CityRecord
		zones  []model.SensitiveZone
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cities, err = src.LoadCities(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		zones, err = src.LoadZones(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cities, zones, nil
}

// Load builds a Store from src. It never fails: if either table cannot be
// read the whole store degrades, and the cause is logged.
func Load(ctx context.Context, src Source) Store {
	log := zap.L().With(zap.String("component", "refdata"), zap.String("source", src.Name()))
	start := time.Now()

	cities, zones, err := Tables(ctx, src)
	if err != nil {
		return degrade(err, zap.String("source", src.Name()))
	}

	s := NewSnapshot(cities, zones)
	log.Info("reference data loaded",
		zap.Int("cities", len(s.order)),
		zap.Int("duplicate_cities", len(cities)-len(s.order)),
		zap.Int("zones", len(zones)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s
}

func degrade(err error, fields ...zap.Field) Store {
	zap.L().With(zap.String("component", "refdata")).
		Warn("reference data unavailable, using defaults", append(fields, zap.Error(err))...)
	return Degraded{Reason: err.Error()}
}

// fileKind classifies a path by extension.
func fileKind(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
