package services

import (
	"fmt"
	"math"
)

// MatchingResult describes the largest buildable panel grid that fits inside
// a requested footprint. Module counts may be half-integers when the module
// family ships half cabinets. Diff values are achieved minus target and are
// never positive: a built display must not exceed the requested opening.
type MatchingResult struct {
	ModuleKey    string  `json:"moduleKey"`
	ModulesWide  float64 `json:"modulesWide"`
	ModulesHigh  float64 `json:"modulesHigh"`
	WidthFt      float64 `json:"widthFt"`
	HeightFt     float64 `json:"heightFt"`
	AreaSqFt     float64 `json:"areaSqFt"`
	DiffWidthFt  float64 `json:"diffWidthFt"`
	DiffHeightFt float64 `json:"diffHeightFt"`
}

// BestFitPitchTolerance bounds the pitch distance considered by
// FindBestFitModule.
const BestFitPitchTolerance = 1.0

// MatchModules computes the largest panel grid for the module key that does
// not exceed the target footprint. Counts are floored to the nearest whole
// module, or the nearest half module when the family supports it, and
// clamped to a minimum of one unit (half a unit with half-module support).
// It returns false when the key is not in the catalog.
func MatchModules(targetWidthFt, targetHeightFt float64, key string) (MatchingResult, bool) {
	m, ok := LookupModule(key)
	if !ok {
		return MatchingResult{}, false
	}
	return matchModule(targetWidthFt, targetHeightFt, m), true
}

func matchModule(targetWidthFt, targetHeightFt float64, m Module) MatchingResult {
	wide := floorCount(targetWidthFt*12/m.WidthIn, m.HalfModules)
	high := floorCount(targetHeightFt*12/m.HeightIn, m.HalfModules)

	widthFt := wide * m.WidthIn / 12
	heightFt := high * m.HeightIn / 12

	return MatchingResult{
		ModuleKey:    m.Key,
		ModulesWide:  wide,
		ModulesHigh:  high,
		WidthFt:      widthFt,
		HeightFt:     heightFt,
		AreaSqFt:     widthFt * heightFt,
		DiffWidthFt:  widthFt - targetWidthFt,
		DiffHeightFt: heightFt - targetHeightFt,
	}
}

// floorCount floors a raw module count to the supported increment. Never
// rounds up: the slightly-smaller rule is a physical-fit guarantee.
func floorCount(raw float64, half bool) float64 {
	min := 1.0
	count := math.Floor(raw)
	if half {
		min = 0.5
		count = math.Floor(raw*2) / 2
	}
	if count < min {
		count = min
	}
	return count
}

// FindBestFitModule searches the catalog for the module family that best
// fills the target footprint at the given pitch. Candidates outside
// BestFitPitchTolerance are skipped, as is any candidate whose
// minimum-clamped grid would overhang the target on either axis. Among the
// rest it picks the one maximizing achieved area over target area. The
// boolean is false when no candidate satisfies the fit constraint.
func FindBestFitModule(targetWidthFt, targetHeightFt, pitchMM float64) (MatchingResult, bool) {
	if targetWidthFt <= 0 || targetHeightFt <= 0 {
		return MatchingResult{}, false
	}
	targetArea := targetWidthFt * targetHeightFt

	var best MatchingResult
	bestRatio := -1.0
	for _, m := range moduleCatalog {
		if math.Abs(m.PitchMM-pitchMM) > BestFitPitchTolerance {
			continue
		}
		r := matchModule(targetWidthFt, targetHeightFt, m)
		if r.DiffWidthFt > 0 || r.DiffHeightFt > 0 {
			continue
		}
		ratio := r.AreaSqFt / targetArea
		if ratio > bestRatio {
			best = r
			bestRatio = ratio
		}
	}
	if bestRatio < 0 {
		return MatchingResult{}, false
	}
	return best, true
}

// PixelMatrix renders the pixel resolution of a footprint at the given pitch
// as a "W x H" string, e.g. "610 x 305".
func PixelMatrix(widthFt, heightFt, pitchMM float64) string {
	w, h := PixelResolution(widthFt, heightFt, pitchMM)
	return fmt.Sprintf("%d x %d", w, h)
}

// PixelResolution converts a footprint in feet to pixel counts at the given
// pitch (millimeters per pixel).
func PixelResolution(widthFt, heightFt, pitchMM float64) (int, int) {
	if pitchMM <= 0 {
		return 0, 0
	}
	w := int(math.Round(widthFt * 304.8 / pitchMM))
	h := int(math.Round(heightFt * 304.8 / pitchMM))
	return w, h
}
