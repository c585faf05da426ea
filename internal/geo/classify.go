// Package geo provides great-circle distance and proximity queries over
// sensitive zones, plus the distance-based risk classification.
package geo

import "github.com/sells-group/ecobuild/internal/model"

// Distance thresholds for proximity risk (kilometers). A city centre this
// close to a sensitive zone gets the corresponding risk level.
const (
	highRiskThresholdKM     = 2.0
	moderateRiskThresholdKM = 10.0
)

// ClassifyRisk returns the proximity risk for a distance to the nearest zone.
// Rules:
//   - High: distance < 2km
//   - Moderate: distance < 10km
//   - Low: otherwise
func ClassifyRisk(distanceKM float64) string {
	switch {
	case distanceKM < highRiskThresholdKM:
		return model.RiskHigh
	case distanceKM < moderateRiskThresholdKM:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}
