// Package enrich completes a project description with location-derived
// baselines before it is scored.
package enrich

import (
	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/geo"
	"github.com/sells-group/ecobuild/internal/model"
	"github.com/sells-group/ecobuild/internal/refdata"
)

// Enricher maps raw project input onto an EnrichedProjectRecord using a
// reference data snapshot. It holds no mutable state and is safe for
// concurrent use.
type Enricher struct {
	store refdata.Store
	cfg   config.EnrichmentConfig
}

// New creates an Enricher over store.
func New(store refdata.Store, cfg config.EnrichmentConfig) *Enricher {
	return &Enricher{store: store, cfg: cfg}
}

// Enrich resolves the project's city, falling back to the configured
// coordinates and baselines when the city is unknown or the store is
// degraded. The city centre stands in for the project site in the
// sensitive-zone check.
func (e *Enricher) Enrich(raw model.RawProjectInput) model.EnrichedProjectRecord {
	rec := model.EnrichedProjectRecord{
		RawProjectInput: raw,
		Latitude:        e.cfg.FallbackLatitude,
		Longitude:       e.cfg.FallbackLongitude,
		Baseline:        fallbackBaseline(e.cfg.FallbackBaseline),
		AvgNoiseDB:      NoiseLevel(raw.ProjectType, e.cfg.Noise),
	}

	if city, ok := e.store.LookupCity(raw.City); ok {
		rec.Latitude = city.Latitude
		rec.Longitude = city.Longitude
		rec.Baseline = city.Baseline()
		rec.CityResolved = true
	}

	rec.NearSensitiveZone = geo.IsNearAny(rec.Latitude, rec.Longitude, e.store.SensitiveZones(), e.cfg.SensitiveRadiusKM)
	return rec
}

// NoiseLevel returns the average noise in dB for a project type. Types
// other than Industrial and Commercial get the default.
func NoiseLevel(t model.ProjectType, cfg config.NoiseConfig) float64 {
	switch t {
	case model.ProjectIndustrial:
		return cfg.Industrial
	case model.ProjectCommercial:
		return cfg.Commercial
	default:
		return cfg.Default
	}
}

func fallbackBaseline(b config.BaselineConfig) model.Baseline {
	return model.Baseline{PM25: b.PM25, NO2: b.NO2, SO2: b.SO2, CO: b.CO, O3: b.O3}
}
