// Package model defines the project, reference, and result records shared by
// the impact assessment engine and its transports.
package model

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidInput is the sentinel wrapped by every input validation failure.
var ErrInvalidInput = eris.New("invalid project input")

// ProjectType is the kind of construction being assessed.
type ProjectType string

const (
	ProjectResidential ProjectType = "Residential"
	ProjectCommercial  ProjectType = "Commercial"
	ProjectIndustrial  ProjectType = "Industrial"
)

// Known reports whether t is one of the enumerated project types.
func (t ProjectType) Known() bool {
	switch t {
	case ProjectResidential, ProjectCommercial, ProjectIndustrial:
		return true
	default:
		return false
	}
}

// Flag is a boolean feature switch. It decodes from JSON booleans as well as
// the 0/1 integers older clients send, and always encodes as 0 or 1.
type Flag bool

// MarshalJSON encodes the flag as 0 or 1.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts true/false, 0/1, and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", `"0"`, `"false"`, "null":
		*f = false
	default:
		return eris.Errorf("model: invalid flag value %s", string(data))
	}
	return nil
}

// Int returns 1 for a set flag and 0 otherwise.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}

// RawProjectInput is the user-supplied description of a proposed project.
type RawProjectInput struct {
	City        string      `json:"city" yaml:"city"`
	ProjectType ProjectType `json:"project_type" yaml:"project_type"`

	LandAreaM2    float64 `json:"land_area_m2" yaml:"land_area_m2"`
	BuiltUpAreaM2 float64 `json:"built_up_area_m2" yaml:"built_up_area_m2"`
	Floors        int     `json:"floors" yaml:"floors"`

	DailyWaterM3             float64 `json:"daily_water_m3" yaml:"daily_water_m3"`
	DailyWasteKg             float64 `json:"daily_waste_kg" yaml:"daily_waste_kg"`
	HazardousWasteKgPerMonth float64 `json:"hazardous_waste_kg_per_month" yaml:"hazardous_waste_kg_per_month"`
	VehiclesPerDay           int     `json:"vehicles_per_day" yaml:"vehicles_per_day"`
	FuelConsumptionLPerDay   float64 `json:"fuel_consumption_l_per_day" yaml:"fuel_consumption_l_per_day"`
	DGHoursPerDay            float64 `json:"dg_hours_per_day" yaml:"dg_hours_per_day"`
	DistanceToResidentialM   float64 `json:"distance_to_residential_m" yaml:"distance_to_residential_m"`
	DistanceToWaterBodyKm    float64 `json:"distance_to_water_body_km" yaml:"distance_to_water_body_km"`
	VegetationRemovedPercent float64 `json:"vegetation_removed_percent" yaml:"vegetation_removed_percent"`
	GreenAreaPercent         float64 `json:"green_area_percent" yaml:"green_area_percent"`

	HasRainwaterHarvesting  Flag `json:"has_rainwater_harvesting" yaml:"has_rainwater_harvesting"`
	HasSolar                Flag `json:"has_solar" yaml:"has_solar"`
	EnergyEfficientLighting Flag `json:"energy_efficient_lighting" yaml:"energy_efficient_lighting"`
	WasteSegregation        Flag `json:"waste_segregation" yaml:"waste_segregation"`
	STPPresent              Flag `json:"stp_present" yaml:"stp_present"`
}

// Normalize fills defaults that the wire format leaves optional.
func (in RawProjectInput) Normalize() RawProjectInput {
	if strings.TrimSpace(string(in.ProjectType)) == "" {
		in.ProjectType = ProjectResidential
	}
	return in
}

// maxDGHoursPerDay bounds the diesel-generator runtime field.
const maxDGHoursPerDay = 24

// Validate checks the numeric invariants of the input. All problems are
// reported together in a single error wrapping ErrInvalidInput.
func (in RawProjectInput) Validate() error {
	var errs []string

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"land_area_m2", in.LandAreaM2},
		{"built_up_area_m2", in.BuiltUpAreaM2},
		{"floors", float64(in.Floors)},
		{"daily_water_m3", in.DailyWaterM3},
		{"daily_waste_kg", in.DailyWasteKg},
		{"hazardous_waste_kg_per_month", in.HazardousWasteKgPerMonth},
		{"vehicles_per_day", float64(in.VehiclesPerDay)},
		{"fuel_consumption_l_per_day", in.FuelConsumptionLPerDay},
		{"dg_hours_per_day", in.DGHoursPerDay},
		{"distance_to_residential_m", in.DistanceToResidentialM},
		{"distance_to_water_body_km", in.DistanceToWaterBodyKm},
		{"vegetation_removed_percent", in.VegetationRemovedPercent},
		{"green_area_percent", in.GreenAreaPercent},
	}
	for _, f := range nonNegative {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			errs = append(errs, fmt.Sprintf("%s must be a finite number", f.name))
		case f.value < 0:
			errs = append(errs, fmt.Sprintf("%s must be >= 0", f.name))
		}
	}

	if in.VegetationRemovedPercent > 100 {
		errs = append(errs, "vegetation_removed_percent must be <= 100")
	}
	if in.GreenAreaPercent > 100 {
		errs = append(errs, "green_area_percent must be <= 100")
	}
	if in.DGHoursPerDay > maxDGHoursPerDay {
		errs = append(errs, fmt.Sprintf("dg_hours_per_day must be <= %d", maxDGHoursPerDay))
	}

	if len(errs) > 0 {
		return eris.Wrap(ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}
