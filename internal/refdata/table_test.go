package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecobuild/internal/fetcher"
)

func TestCitiesFromTable(t *testing.T) {
	tbl := fetcher.Table{
		Header: []string{"City", "Latitude", "Longitude", "PM25", "NO2", "SO2", "CO_mg_m3", "O3", "State"},
		Rows: [][]string{
			{"Delhi", "28.6139", "77.2090", "153", "58", "12", "1.9", "35", "DL"},
			{"Pune", "18.5204", "73.8567", "61.5", "31", "7", "0.9", "29", "MH"},
		},
	}

	cities, err := CitiesFromTable(tbl)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "Delhi", cities[0].Name)
	assert.InDelta(t, 28.6139, cities[0].Latitude, 1e-9)
	assert.InDelta(t, 1.9, cities[0].CO, 1e-9)
	assert.InDelta(t, 61.5, cities[1].PM25, 1e-9)
}

func TestCitiesFromTable_Errors(t *testing.T) {
	header := []string{"city", "latitude", "longitude", "pm25", "no2", "so2", "co_mg_m3", "o3"}
	tests := []struct {
		name    string
		tbl     fetcher.Table
		wantMsg string
	}{
		{
			name:    "missing column",
			tbl:     fetcher.Table{Header: []string{"city", "latitude", "longitude"}},
			wantMsg: "missing columns: pm25, no2, so2, co_mg_m3, o3",
		},
		{
			name:    "non-numeric value",
			tbl:     fetcher.Table{Header: header, Rows: [][]string{{"Delhi", "28.6", "77.2", "high", "1", "1", "1", "1"}}},
			wantMsg: `row 2: pm25: invalid number "high"`,
		},
		{
			name:    "empty value",
			tbl:     fetcher.Table{Header: header, Rows: [][]string{{"Delhi", "28.6", "77.2", "1", "", "1", "1", "1"}}},
			wantMsg: `row 2: no2: invalid number ""`,
		},
		{
			name:    "NaN value",
			tbl:     fetcher.Table{Header: header, Rows: [][]string{{"Delhi", "28.6", "77.2", "1", "1", "NaN", "1", "1"}}},
			wantMsg: `so2: invalid number "NaN"`,
		},
		{
			name:    "latitude out of range",
			tbl:     fetcher.Table{Header: header, Rows: [][]string{{"Delhi", "128.6", "77.2", "1", "1", "1", "1", "1"}}},
			wantMsg: "latitude: 128.6 out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CitiesFromTable(tt.tbl)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestZonesFromTable(t *testing.T) {
	tbl := fetcher.Table{
		Header: []string{"name", "category", "lat", "lng"},
		Rows:   [][]string{{"Sanjay Van", "Forest", "28.528", "77.17"}},
	}
	zones, err := ZonesFromTable(tbl)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "Forest", zones[0].Category)
	assert.InDelta(t, 77.17, zones[0].Longitude, 1e-9)

	tbl.Rows[0][3] = "200"
	_, err = ZonesFromTable(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lng: 200 out of range")
}
