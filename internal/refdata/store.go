// Package refdata holds the immutable reference tables used by the engine:
// per-city coordinates with ambient pollutant baselines, and the list of
// ecologically sensitive zones. Tables are loaded once from a Source and
// shared read-only across concurrent assessments.
package refdata

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/ecobuild/internal/model"
)

// Store answers city and sensitive-zone queries. Implementations are safe
// for concurrent use and never change after construction.
type Store interface {
	// LookupCity finds a city by name, ignoring case and surrounding
	// whitespace.
	LookupCity(name string) (model.CityRecord, bool)

	// SensitiveZones returns every zone in load order. Callers must not
	// modify the returned slice.
	SensitiveZones() []model.SensitiveZone

	// Available reports whether the tables loaded. A store that is not
	// available finds no cities and has no zones.
	Available() bool
}

// CityKey normalizes a city name for lookup.
func CityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
}

// Snapshot is a loaded, immutable Store.
type Snapshot struct {
	cities map[string]model.CityRecord
	order  []string
	zones  []model.SensitiveZone
}

// NewSnapshot indexes the given tables. When two cities share a key the
// first one wins. Rows with an empty name are skipped.
func NewSnapshot(cities []model.CityRecord, zones []model.SensitiveZone) *Snapshot {
	s := &Snapshot{
		cities: make(map[string]model.CityRecord, len(cities)),
		zones:  append([]model.SensitiveZone(nil), zones...),
	}
	for _, c := range cities {
		key := CityKey(c.Name)
		if key == "" {
			continue
		}
		if _, dup := s.cities[key]; dup {
			continue
		}
		s.cities[key] = c
		s.order = append(s.order, key)
	}
	return s
}

// LookupCity implements Store.
func (s *Snapshot) LookupCity(name string) (model.CityRecord, bool) {
	c, ok := s.cities[CityKey(name)]
	return c, ok
}

// SensitiveZones implements Store.
func (s *Snapshot) SensitiveZones() []model.SensitiveZone {
	return s.zones
}

// Available implements Store.
func (s *Snapshot) Available() bool { return true }

// Cities returns the indexed cities in load order, duplicates removed.
func (s *Snapshot) Cities() []model.CityRecord {
	out := make([]model.CityRecord, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.cities[k])
	}
	return out
}

// Degraded is the Store used when reference data failed to load. Every
// lookup reports not found, so assessments fall back to default coordinates
// and baselines.
type Degraded struct {
	// Reason records why loading failed, for status output.
	Reason string
}

// LookupCity implements Store.
func (Degraded) LookupCity(string) (model.CityRecord, bool) { return model.CityRecord{}, false }

// SensitiveZones implements Store.
func (Degraded) SensitiveZones() []model.SensitiveZone { return nil }

// Available implements Store.
func (Degraded) Available() bool { return false }
