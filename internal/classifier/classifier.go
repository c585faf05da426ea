// Package classifier routes enriched projects through a trained impact
// classifier for a second opinion alongside the rule-based score.
package classifier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecobuild/internal/dispersion"
	"github.com/sells-group/ecobuild/internal/model"
)

// ErrUnavailable reports that no classifier is loaded or the configured one
// cannot be reached. Callers must surface it rather than substitute the
// rule-based score.
var ErrUnavailable = eris.New("ML Model not loaded")

// FeatureCount is the length of the classifier input.
const FeatureCount = 16

// FeatureNames lists the feature vector columns in order. Trained models
// must use the same order.
var FeatureNames = [FeatureCount]string{
	"land_area_m2",
	"built_up_area_m2",
	"floors",
	"daily_water_m3",
	"daily_waste_kg",
	"hazardous_waste_kg_per_month",
	"avg_noise_db",
	"distance_to_residential_m",
	"vegetation_removed_percent",
	"near_sensitive_zone",
	"vehicles_per_day",
	"fuel_consumption_l_per_day",
	"final_pm25",
	"final_no2",
	"final_so2",
	"final_co",
}

// FeatureVector is one classifier input row.
type FeatureVector [FeatureCount]float64

// Features builds the input row for rec. SO2 and CO are the city baselines;
// the dispersion model does not change them.
func Features(rec model.EnrichedProjectRecord, est dispersion.Estimate) FeatureVector {
	return FeatureVector{
		rec.LandAreaM2,
		rec.BuiltUpAreaM2,
		float64(rec.Floors),
		rec.DailyWaterM3,
		rec.DailyWasteKg,
		rec.HazardousWasteKgPerMonth,
		rec.AvgNoiseDB,
		rec.DistanceToResidentialM,
		rec.VegetationRemovedPercent,
		float64(rec.NearSensitiveZoneInt()),
		float64(rec.VehiclesPerDay),
		rec.FuelConsumptionLPerDay,
		est.FinalPM25,
		est.FinalNO2,
		rec.Baseline.SO2,
		rec.Baseline.CO,
	}
}

// Prediction is a model's raw output: the predicted class and the
// probability of each class, indexed by class position.
type Prediction struct {
	Class         int
	Probabilities []float64
}

// Model is a trained classifier backend.
type Model interface {
	Name() string
	Predict(ctx context.Context, x FeatureVector) (Prediction, error)
}

// Labels maps class indices to impact categories.
var Labels = map[int]string{
	0: model.CategoryLow,
	1: model.CategoryModerate,
	2: model.CategoryHigh,
}

// Label returns the category for a class index, or "Unknown".
func Label(class int) string {
	if l, ok := Labels[class]; ok {
		return l
	}
	return "Unknown"
}
