// Package engine exposes the impact assessment operations: rule-based
// scoring, the classifier second opinion, and city proximity reports.
package engine

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecobuild/internal/classifier"
	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/decimal"
	"github.com/sells-group/ecobuild/internal/dispersion"
	"github.com/sells-group/ecobuild/internal/enrich"
	"github.com/sells-group/ecobuild/internal/geo"
	"github.com/sells-group/ecobuild/internal/model"
	"github.com/sells-group/ecobuild/internal/refdata"
	"github.com/sells-group/ecobuild/internal/scorer"
)

// Proximity report placeholders.
const (
	LocationUnknown  = "Unknown"
	LocationNotFound = "City Not Found"
)

// Engine wires the assessment pipeline over one reference data snapshot.
// It is immutable and safe for concurrent use.
type Engine struct {
	store      refdata.Store
	enricher   *enrich.Enricher
	dispersion dispersion.Model
	scorer     *scorer.Scorer
	classifier *classifier.Adapter
}

// New builds an Engine. clf may be nil, in which case PredictImpactML always
// reports classifier.ErrUnavailable.
func New(store refdata.Store, cfg config.EngineConfig, clf *classifier.Adapter) *Engine {
	if clf == nil {
		clf = classifier.NewAdapter(nil)
	}
	return &Engine{
		store:      store,
		enricher:   enrich.New(store, cfg.Enrichment),
		dispersion: dispersion.New(cfg.Dispersion),
		scorer:     scorer.New(cfg.Scoring),
		classifier: clf,
	}
}

// Store returns the reference data the engine reads.
func (e *Engine) Store() refdata.Store { return e.store }

// Classifier returns the classifier adapter.
func (e *Engine) Classifier() *classifier.Adapter { return e.classifier }

// Enrich validates raw and completes it with location data.
func (e *Engine) Enrich(raw model.RawProjectInput) (model.EnrichedProjectRecord, error) {
	raw = raw.Normalize()
	if err := raw.Validate(); err != nil {
		return model.EnrichedProjectRecord{}, err
	}
	return e.enricher.Enrich(raw), nil
}

// ComputeImpact scores a project. The only error is invalid input, which
// wraps model.ErrInvalidInput.
func (e *Engine) ComputeImpact(raw model.RawProjectInput) (model.ImpactResult, error) {
	rec, err := e.Enrich(raw)
	if err != nil {
		return model.ImpactResult{}, err
	}
	return e.scorer.Score(rec, e.dispersion.Estimate(rec)), nil
}

// PredictImpactML asks the classifier for its category. Input is validated
// first; a missing or unreachable model yields classifier.ErrUnavailable.
func (e *Engine) PredictImpactML(ctx context.Context, raw model.RawProjectInput) (model.ClassifierPrediction, error) {
	rec, err := e.Enrich(raw)
	if err != nil {
		return model.ClassifierPrediction{}, err
	}
	pred, err := e.classifier.Predict(ctx, rec, e.dispersion.Estimate(rec))
	if err != nil {
		return model.ClassifierPrediction{}, eris.Wrap(err, "engine: predict")
	}
	return pred, nil
}

// ResolveCityProximity reports the sensitive zone nearest to a city's
// centre and the resulting risk level. Missing reference data and unknown
// cities produce placeholder reports, not errors.
func (e *Engine) ResolveCityProximity(city string) model.ProximityReport {
	unknown := model.ProximityReport{NearestLocation: LocationUnknown, Risk: model.RiskUnknown}
	if !e.store.Available() {
		return unknown
	}

	c, ok := e.store.LookupCity(city)
	if !ok {
		return model.ProximityReport{NearestLocation: LocationNotFound, Risk: model.RiskUnknown}
	}

	zone, d, ok := geo.Nearest(c.Latitude, c.Longitude, e.store.SensitiveZones())
	if !ok {
		return unknown
	}
	return model.ProximityReport{
		NearestLocation: zone.Name,
		Category:        zone.Category,
		DistanceKM:      decimal.Round(d, 2),
		Risk:            geo.ClassifyRisk(d),
	}
}
