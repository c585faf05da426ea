// Package blueprint reads ASCII DXF drawings and estimates their footprint
// and drafting complexity. Failures are reported in the Report, never as
// errors, so a bad upload cannot break the caller.
package blueprint

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/decimal"
)

// Report messages.
const (
	MsgSuccess  = "DXF Analysis Successful"
	MsgCorrupt  = "Invalid or Corrupt DXF file."
	MsgNotFound = "Not a valid DXF file or file not found."
)

// Upload rejections, checked by file name before any content is read.
var (
	ErrDWG    = eris.New("DWG files are binary and not supported. Please convert to .DXF using a CAD tool (or online converter) and upload.")
	ErrNotDXF = eris.New("Only .DXF files are supported for Blueprint Analysis in this version.")
)

// CountedTypes are the entity types broken out in Metrics.EntityCounts.
var CountedTypes = []string{"LINE", "CIRCLE", "ARC", "LWPOLYLINE", "TEXT", "MTEXT"}

// Report is the outcome of analysing one drawing. Metrics is nil when the
// analysis failed.
type Report struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*Metrics
}

// Metrics describes a successfully parsed drawing. Dimensions are in
// drawing units, taken to be metres.
type Metrics struct {
	EntityCounts    map[string]int `json:"entity_counts"`
	TotalEntities   int            `json:"total_entities"`
	WidthM          float64        `json:"estimated_width_m"`
	HeightM         float64        `json:"estimated_height_m"`
	AreaM2          float64        `json:"estimated_area_m2"`
	ComplexityScore int            `json:"complexity_score"`
}

// CheckFilename rejects uploads that are not DXF by extension.
func CheckFilename(name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dxf":
		return nil
	case ".dwg":
		return ErrDWG
	default:
		return ErrNotDXF
	}
}

// AnalyzeFile analyses the drawing at path.
func AnalyzeFile(path string) Report {
	f, err := os.Open(path)
	if err != nil {
		zap.L().Debug("blueprint: open failed", zap.String("path", path), zap.Error(err))
		return failure(MsgNotFound)
	}
	defer f.Close() //nolint:errcheck
	return Analyze(f)
}

// Analyze reads a DXF drawing from r.
func Analyze(r io.Reader) Report {
	d, err := parse(r)
	if err != nil {
		zap.L().Debug("blueprint: parse failed", zap.Error(err))
		return failure(MsgCorrupt)
	}
	return Report{Success: true, Message: MsgSuccess, Metrics: d.metrics()}
}

func failure(msg string) Report {
	return Report{Success: false, Message: msg}
}

func (d *drawing) metrics() *Metrics {
	m := &Metrics{EntityCounts: make(map[string]int, len(CountedTypes)), TotalEntities: d.total}
	for _, t := range CountedTypes {
		m.EntityCounts[t] = d.counts[t]
	}

	var width, height float64
	if !d.bounds.IsEmpty() {
		width = d.bounds.Max(0) - d.bounds.Min(0)
		height = d.bounds.Max(1) - d.bounds.Min(1)
	}
	area := width * height

	m.WidthM = decimal.Round(width, 2)
	m.HeightM = decimal.Round(height, 2)
	m.AreaM2 = decimal.Round(area, 2)
	m.ComplexityScore = complexity(d.total, area)
	return m
}

// complexity rates entity density per unit area on a 2-10 scale.
func complexity(entities int, area float64) int {
	c := 1
	if area > 0 {
		density := float64(entities) / area
		switch {
		case density > 0.1:
			c = 3
		case density > 0.01:
			c = 2
		}
	}
	if entities > 1000 {
		c++
	}
	return min(10, c*2)
}
