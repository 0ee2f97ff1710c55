// Package services implements the proposal audit & pricing engine: the LED
// module catalog, the panel-grid matcher, the per-display cost calculator,
// the project aggregator and the spreadsheet reconciliation importer.
package services

import (
	"math"
	"strings"
)

// Module describes one LED panel family in the catalog: its pixel pitch,
// the physical cabinet size, the default hardware cost and whether the
// product line ships half-width/half-height filler cabinets.
type Module struct {
	Key         string
	PitchMM     float64
	WidthIn     float64
	HeightIn    float64
	CostPerSqFt float64
	HalfModules bool
}

// PitchTolerance is the maximum pitch distance for a direct catalog lookup.
const PitchTolerance = 0.1

// moduleCatalog is the built-in panel catalog, keyed by product family.
var moduleCatalog = []Module{
	{Key: "P4", PitchMM: 4, WidthIn: 12, HeightIn: 12, CostPerSqFt: 210, HalfModules: true},
	{Key: "P6", PitchMM: 6, WidthIn: 12, HeightIn: 12, CostPerSqFt: 165, HalfModules: true},
	{Key: "P8", PitchMM: 8, WidthIn: 24, HeightIn: 12, CostPerSqFt: 140},
	{Key: "P10", PitchMM: 10, WidthIn: 12, HeightIn: 12, CostPerSqFt: 120},
	{Key: "P16", PitchMM: 16, WidthIn: 24, HeightIn: 24, CostPerSqFt: 95},
}

// DefaultModule is the fallback when no catalog entry matches a pitch.
// Pricing must always be produceable, so lookups degrade to this instead of
// failing.
var DefaultModule = Module{Key: "P10", PitchMM: 10, WidthIn: 12, HeightIn: 12, CostPerSqFt: 120}

// Catalog returns a copy of the built-in module catalog.
func Catalog() []Module {
	out := make([]Module, len(moduleCatalog))
	copy(out, moduleCatalog)
	return out
}

// LookupModule returns the catalog entry with the given key.
func LookupModule(key string) (Module, bool) {
	for _, m := range moduleCatalog {
		if strings.EqualFold(m.Key, key) {
			return m, true
		}
	}
	return Module{}, false
}

// LookupPitch returns the catalog entry closest to the given pixel pitch,
// within PitchTolerance. Outside the tolerance it returns DefaultModule.
func LookupPitch(pitchMM float64) Module {
	best := DefaultModule
	bestDist := math.Inf(1)
	for _, m := range moduleCatalog {
		d := math.Abs(m.PitchMM - pitchMM)
		if d < bestDist {
			best = m
			bestDist = d
		}
	}
	if bestDist > PitchTolerance {
		return DefaultModule
	}
	return best
}

// ModuleKeyFor resolves a module key from free-form product type text and a
// pixel pitch. Explicit mentions in the text ("P10", "10mm") win; otherwise
// the pitch decides, and a pitch outside the catalog yields no key.
func ModuleKeyFor(productType string, pitchMM float64) string {
	text := strings.ToLower(productType)
	for _, m := range moduleCatalog {
		key := strings.ToLower(m.Key)
		mm := strings.TrimPrefix(key, "p") + "mm"
		if containsToken(text, key) || containsToken(text, mm) {
			return m.Key
		}
	}
	if pitchMM <= 0 {
		return ""
	}
	for _, m := range moduleCatalog {
		if math.Abs(m.PitchMM-pitchMM) <= PitchTolerance {
			return m.Key
		}
	}
	return ""
}

// containsToken reports whether token appears in text delimited by
// non-alphanumeric characters, so "P4" does not match inside "P40".
func containsToken(text, token string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], token)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(token)
		beforeOK := start == 0 || !isAlnum(text[start-1])
		afterOK := end == len(text) || !isAlnum(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
