package scorer

import "github.com/sells-group/ecobuild/internal/model"

// Recommendation texts, in the order they are emitted.
const (
	RecAirMitigation = "High Air Pollution risk: Install Air Purifiers and Smog Towers."
	RecWaterMandate  = "Critical Water usage: Mandate STP and Rainwater Harvesting."
	RecGreenBelt     = "High ecological impact: Increase Green Belt area > 30%."
	RecSolar         = "Energy: Install Solar Panels to reduce carbon footprint."
	RecLED           = "Energy: Switch to LED lighting."
)

// Recommend evaluates the rule list in fixed order against the unrounded
// sub-scores and the project's feature flags.
func (s *Scorer) Recommend(b model.Breakdown, in model.RawProjectInput) []string {
	limit := s.cfg.RecommendationThreshold
	recs := []string{}

	if b.Air > limit {
		recs = append(recs, RecAirMitigation)
	}
	if b.Water > limit {
		recs = append(recs, RecWaterMandate)
	}
	if b.Land > limit {
		recs = append(recs, RecGreenBelt)
	}
	if !in.HasSolar {
		recs = append(recs, RecSolar)
	}
	if !in.EnergyEfficientLighting {
		recs = append(recs, RecLED)
	}
	return recs
}
