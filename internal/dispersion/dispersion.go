// Package dispersion estimates a project's pollutant contribution with a
// single-coefficient box model.
package dispersion

import (
	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/model"
)

// Emission factors per vehicle and per litre of fuel burned, in grams/day.
const (
	pm25PerVehicle = 0.5
	pm25PerLitre   = 2.0
	no2PerVehicle  = 0.2
	no2PerLitre    = 20.0

	dustPerM2 = 0.0001
)

// Estimate is the output of the dispersion model for one project.
type Estimate struct {
	// Added emission mass in kg/day.
	AddedPM25 float64
	AddedNO2  float64

	// Final ambient concentrations: baseline plus the dispersed addition.
	FinalPM25 float64
	FinalNO2  float64

	// ConstructionDust is reported for information only. It does not feed
	// the final concentrations or any score.
	ConstructionDust float64
}

// Model applies the configured dispersion coefficient.
type Model struct {
	coefficient float64
}

// New creates a Model from cfg.
func New(cfg config.DispersionConfig) Model {
	return Model{coefficient: cfg.Coefficient}
}

// Coefficient returns the mass-to-concentration multiplier in use.
func (m Model) Coefficient() float64 { return m.coefficient }

// Estimate computes added and final pollutant levels for rec.
func (m Model) Estimate(rec model.EnrichedProjectRecord) Estimate {
	vehicles := float64(rec.VehiclesPerDay)
	fuel := rec.FuelConsumptionLPerDay

	e := Estimate{
		AddedPM25:        (vehicles*pm25PerVehicle + fuel*pm25PerLitre) / 1000,
		AddedNO2:         (vehicles*no2PerVehicle + fuel*no2PerLitre) / 1000,
		ConstructionDust: rec.BuiltUpAreaM2 * dustPerM2 * (1 + rec.VegetationRemovedPercent/100),
	}
	e.FinalPM25 = rec.Baseline.PM25 + e.AddedPM25*m.coefficient
	e.FinalNO2 = rec.Baseline.NO2 + e.AddedNO2*m.coefficient
	return e
}
