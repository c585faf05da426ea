package model

// EnrichedProjectRecord is a RawProjectInput completed with location-derived
// baselines and derived defaults. It is built once per request and treated as
// read-only afterwards.
type EnrichedProjectRecord struct {
	RawProjectInput

	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	CityResolved      bool     `json:"city_resolved"`
	AvgNoiseDB        float64  `json:"avg_noise_db"`
	NearSensitiveZone bool     `json:"near_sensitive_zone"`
	Baseline          Baseline `json:"baseline"`
}

// NearSensitiveZoneInt returns the sensitive-zone flag as 0 or 1.
func (r EnrichedProjectRecord) NearSensitiveZoneInt() int {
	if r.NearSensitiveZone {
		return 1
	}
	return 0
}

// Impact categories.
const (
	CategoryLow      = "Low"
	CategoryModerate = "Moderate"
	CategoryHigh     = "High"
)

// Breakdown holds the five sub-scores, each in [0, 100].
type Breakdown struct {
	Air   float64 `json:"Air Impact"`
	Water float64 `json:"Water Impact"`
	Land  float64 `json:"Land Impact"`
	Waste float64 `json:"Waste Impact"`
	Noise float64 `json:"Noise Impact"`
}

// PollutantPair carries a PM2.5 and NO2 value.
type PollutantPair struct {
	PM25 float64 `json:"PM2.5"`
	NO2  float64 `json:"NO2"`
}

// ImpactResult is the outcome of a rule-based impact assessment.
type ImpactResult struct {
	OverallScore     float64       `json:"overall_score"`
	ImpactClass      string        `json:"impact_class"`
	Breakdown        Breakdown     `json:"breakdown"`
	AddedPollution   PollutantPair `json:"added_pollution"`
	FinalPollution   PollutantPair `json:"final_pollution"`
	ConstructionDust float64       `json:"construction_dust"`
	Recommendations  []string      `json:"recommendations"`
}

// ClassifierPrediction is the trained model's second opinion on a project.
type ClassifierPrediction struct {
	PredictedClass int     `json:"predicted_class"`
	Label          string  `json:"label"`
	Confidence     float64 `json:"confidence"`
}

// Proximity risk levels.
const (
	RiskHigh     = "High"
	RiskModerate = "Moderate"
	RiskLow      = "Low"
	RiskUnknown  = "Unknown"
)

// ProximityReport describes the sensitive zone closest to a city centre.
type ProximityReport struct {
	NearestLocation string  `json:"nearest_location"`
	Category        string  `json:"type,omitempty"`
	DistanceKM      float64 `json:"distance_km"`
	Risk            string  `json:"risk"`
}
