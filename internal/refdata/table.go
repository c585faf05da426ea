package refdata

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecobuild/internal/fetcher"
	"github.com/sells-group/ecobuild/internal/model"
)

// Column names of the two reference tables, shared by every source format.
var (
	CityColumns = []string{"city", "latitude", "longitude", "pm25", "no2", "so2", "co_mg_m3", "o3"}
	ZoneColumns = []string{"name", "category", "lat", "lng"}
)

// CitiesFromTable converts a parsed city table. Any malformed row fails the
// whole table.
func CitiesFromTable(t fetcher.Table) ([]model.CityRecord, error) {
	col, err := t.Columns(CityColumns...)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: city table")
	}

	cities := make([]model.CityRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		p := rowParser{row: row, line: i + 2, col: col}
		c := model.CityRecord{
			Name:      fetcher.Cell(row, col["city"]),
			Latitude:  p.coord("latitude", 90),
			Longitude: p.coord("longitude", 180),
			PM25:      p.number("pm25"),
			NO2:       p.number("no2"),
			SO2:       p.number("so2"),
			CO:        p.number("co_mg_m3"),
			O3:        p.number("o3"),
		}
		if p.err != nil {
			return nil, eris.Wrap(p.err, "refdata: city table")
		}
		cities = append(cities, c)
	}
	return cities, nil
}

// ZonesFromTable converts a parsed sensitive-zone table.
func ZonesFromTable(t fetcher.Table) ([]model.SensitiveZone, error) {
	col, err := t.Columns(ZoneColumns...)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: zone table")
	}

	zones := make([]model.SensitiveZone, 0, len(t.Rows))
	for i, row := range t.Rows {
		p := rowParser{row: row, line: i + 2, col: col}
		z := model.SensitiveZone{
			Name:      fetcher.Cell(row, col["name"]),
			Category:  fetcher.Cell(row, col["category"]),
			Latitude:  p.coord("lat", 90),
			Longitude: p.coord("lng", 180),
		}
		if p.err != nil {
			return nil, eris.Wrap(p.err, "refdata: zone table")
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// rowParser keeps the first parse error of a row.
type rowParser struct {
	row  []string
	line int
	col  map[string]int
	err  error
}

func (p *rowParser) number(name string) float64 {
	if p.err != nil {
		return 0
	}
	raw := fetcher.Cell(p.row, p.col[name])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = eris.Errorf("row %d: %s: invalid number %q", p.line, name, raw)
		return 0
	}
	return v
}

func (p *rowParser) coord(name string, limit float64) float64 {
	v := p.number(name)
	if p.err == nil && math.Abs(v) > limit {
		p.err = eris.Errorf("row %d: %s: %g out of range", p.line, name, v)
	}
	return v
}
