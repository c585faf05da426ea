// Package scorer turns an enriched project and its dispersion estimate into
// five sub-scores, a weighted overall score, a category, and an ordered list
// of recommendations.
package scorer

import (
	"math"

	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/decimal"
	"github.com/sells-group/ecobuild/internal/dispersion"
	"github.com/sells-group/ecobuild/internal/model"
)

// Rule constants of the sub-scores.
const (
	// Occupancy is estimated at one person per 15 m2 of built-up area.
	m2PerPerson = 15.0
	// Litres per capita per day above which water use is flagged.
	lpcdLimit           = 150.0
	waterBodyNearKM     = 0.5
	greenAreaMinPercent = 10.0
	noiseQuietDB        = 45.0
	residentialNearM    = 50.0
)

// Scorer computes impact results under one scoring configuration. It is
// stateless and safe for concurrent use.
type Scorer struct {
	cfg config.ScoringConfig
}

// New creates a Scorer.
func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score builds the ImpactResult for rec. The category is decided on the
// unrounded overall score; reported values are rounded for output.
func (s *Scorer) Score(rec model.EnrichedProjectRecord, est dispersion.Estimate) model.ImpactResult {
	b := Subscores(rec, est)
	overall := s.Overall(b)

	return model.ImpactResult{
		OverallScore: decimal.Round(overall, 1),
		ImpactClass:  s.Category(overall),
		Breakdown: model.Breakdown{
			Air:   decimal.Round(b.Air, 1),
			Water: decimal.Round(b.Water, 1),
			Land:  decimal.Round(b.Land, 1),
			Waste: decimal.Round(b.Waste, 1),
			Noise: decimal.Round(b.Noise, 1),
		},
		AddedPollution:   model.PollutantPair{PM25: decimal.Round(est.AddedPM25, 4), NO2: decimal.Round(est.AddedNO2, 4)},
		FinalPollution:   model.PollutantPair{PM25: decimal.Round(est.FinalPM25, 2), NO2: decimal.Round(est.FinalNO2, 2)},
		ConstructionDust: decimal.Round(est.ConstructionDust, 4),
		Recommendations:  s.Recommend(b, rec.RawProjectInput),
	}
}

// Subscores computes the five unrounded sub-scores, each within [0, 100].
func Subscores(rec model.EnrichedProjectRecord, est dispersion.Estimate) model.Breakdown {
	return model.Breakdown{
		Air:   scoreAir(est.FinalPM25, est.FinalNO2, rec.DGHoursPerDay),
		Water: scoreWater(rec.RawProjectInput),
		Land:  scoreLand(rec.VegetationRemovedPercent, rec.NearSensitiveZone, rec.GreenAreaPercent),
		Waste: scoreWaste(rec.DailyWasteKg, rec.HazardousWasteKgPerMonth, bool(rec.WasteSegregation)),
		Noise: scoreNoise(rec.AvgNoiseDB, rec.DistanceToResidentialM),
	}
}

// Overall returns the weighted sum of the sub-scores.
func (s *Scorer) Overall(b model.Breakdown) float64 {
	return b.Air*s.cfg.AirWeight +
		b.Water*s.cfg.WaterWeight +
		b.Land*s.cfg.LandWeight +
		b.Waste*s.cfg.WasteWeight +
		b.Noise*s.cfg.NoiseWeight
}

// Category maps an overall score to Low, Moderate, or High. Thresholds are
// exclusive lower bounds.
func (s *Scorer) Category(overall float64) string {
	switch {
	case overall > s.cfg.HighThreshold:
		return model.CategoryHigh
	case overall > s.cfg.ModerateThreshold:
		return model.CategoryModerate
	default:
		return model.CategoryLow
	}
}

// scoreAir weighs final PM2.5 against 250 and NO2 against 100, plus two
// points per diesel-generator hour.
func scoreAir(finalPM25, finalNO2, dgHours float64) float64 {
	return clamp(finalPM25/250*50 + finalNO2/100*30 + dgHours*2)
}

// scoreWater flags heavy per-capita use, a nearby water body, and a missing
// sewage treatment plant. Rainwater harvesting earns a small credit.
func scoreWater(in model.RawProjectInput) float64 {
	persons := math.Max(1, in.BuiltUpAreaM2/m2PerPerson)
	lpcd := in.DailyWaterM3 * 1000 / persons

	var score float64
	if lpcd > lpcdLimit {
		score += 40
	}
	if in.DistanceToWaterBodyKm < waterBodyNearKM {
		score += 40
	}
	if !in.STPPresent {
		score += 20
	}
	if in.HasRainwaterHarvesting {
		score -= 10
	}
	return clamp(score)
}

func scoreWaste(dailyKg, hazardousKgPerMonth float64, segregated bool) float64 {
	score := dailyKg/100*10 + hazardousKgPerMonth*2
	if !segregated {
		score += 20
	}
	return clamp(score)
}

func scoreLand(vegetationRemoved float64, nearSensitive bool, greenArea float64) float64 {
	score := vegetationRemoved
	if nearSensitive {
		score += 40
	}
	if greenArea < greenAreaMinPercent {
		score += 20
	}
	return clamp(score)
}

func scoreNoise(avgDB, distanceToResidentialM float64) float64 {
	score := math.Max(0, (avgDB-noiseQuietDB)*2)
	if distanceToResidentialM < residentialNearM {
		score += 20
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
