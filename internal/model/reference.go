package model

// CityRecord holds a city's centre coordinates and ambient pollutant baselines.
type CityRecord struct {
	Name      string  `json:"city" db:"city"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	PM25      float64 `json:"pm25" db:"pm25"`
	NO2       float64 `json:"no2" db:"no2"`
	SO2       float64 `json:"so2" db:"so2"`
	CO        float64 `json:"co_mg_m3" db:"co_mg_m3"`
	O3        float64 `json:"o3" db:"o3"`
}

// SensitiveZone is a point of ecological or regulatory concern.
type SensitiveZone struct {
	Name      string  `json:"name" db:"name"`
	Category  string  `json:"category" db:"category"`
	Latitude  float64 `json:"lat" db:"lat"`
	Longitude float64 `json:"lng" db:"lng"`
}

// Baseline is the set of ambient pollutant levels attributed to a location
// before a project's own contribution.
type Baseline struct {
	PM25 float64 `json:"pm25"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
	O3   float64 `json:"o3"`
}

// Baseline returns the city's pollutant levels.
func (c CityRecord) Baseline() Baseline {
	return Baseline{PM25: c.PM25, NO2: c.NO2, SO2: c.SO2, CO: c.CO, O3: c.O3}
}
