package refdata

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecobuild/internal/fetcher"
	"github.com/sells-group/ecobuild/internal/model"
)

// FileSource reads tables from local files. The format follows the file
// extension: .csv, .xlsx, or .shp for zones.
type FileSource struct {
	CitiesPath string
	ZonesPath  string

	// CitySheet and ZoneSheet pick a worksheet when both tables live in one
	// workbook. Empty means the first sheet.
	CitySheet string
	ZoneSheet string
}

// Name implements Source.
func (f *FileSource) Name() string { return "file" }

// LoadCities implements Source.
func (f *FileSource) LoadCities(ctx context.Context) ([]model.CityRecord, error) {
	t, err := readTable(ctx, f.CitiesPath, f.CitySheet)
	if err != nil {
		return nil, err
	}
	return CitiesFromTable(t)
}

// LoadZones implements Source.
func (f *FileSource) LoadZones(ctx context.Context) ([]model.SensitiveZone, error) {
	if fileKind(f.ZonesPath) == "shp" {
		return ZonesFromShapefile(f.ZonesPath)
	}
	t, err := readTable(ctx, f.ZonesPath, f.ZoneSheet)
	if err != nil {
		return nil, err
	}
	return ZonesFromTable(t)
}

// readTable parses a .csv or .xlsx file.
func readTable(ctx context.Context, path, sheet string) (fetcher.Table, error) {
	switch fileKind(path) {
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return fetcher.Table{}, eris.Wrapf(err, "refdata: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		t, err := fetcher.ReadCSV(ctx, f)
		if err != nil {
			return fetcher.Table{}, eris.Wrapf(err, "refdata: read %s", path)
		}
		return t, nil
	case "xlsx":
		t, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: sheet})
		if err != nil {
			return fetcher.Table{}, eris.Wrapf(err, "refdata: read %s", path)
		}
		return t, nil
	default:
		return fetcher.Table{}, eris.Errorf("refdata: unsupported table format %q", path)
	}
}
