package quote

import "math"

// Physical model constants.
const (
	shellFactor    = 0.25 // walls, top and bottom layers as a share of the solid volume
	infillScale    = 0.6
	resinPacking   = 0.9
	resinMMPerHour = 30.0
	complexityStep = 0.06
	neutralComplex = 5
	MinComplexity  = 1
	MaxComplexity  = 10
)

// EstimateFilamentGrams returns the filament mass for a part of the given
// volume. infillPercent is clamped to [0, 100].
func EstimateFilamentGrams(volumeCm3, density, infillPercent float64) float64 {
	infill := clamp(infillPercent, 0, 100) / 100
	return volumeCm3 * (shellFactor + infill*infillScale) * density
}

// EstimateFilamentHours returns 0 when the printer throughput is unknown.
func EstimateFilamentHours(grams, gramsPerHour float64) float64 {
	if gramsPerHour <= 0 {
		return 0
	}
	return grams / gramsPerHour
}

func EstimateResinGrams(volumeCm3, density float64) float64 {
	return volumeCm3 * density * resinPacking
}

// EstimateResinHours depends on height only: a vat printer exposes a whole
// layer at once.
func EstimateResinHours(heightMM float64) float64 {
	return heightMM / resinMMPerHour
}

// ComplexityFactor maps the 1..10 difficulty scale onto a price multiplier,
// 1.0 at the neutral value 5.
func ComplexityFactor(complexity int) float64 {
	c := ClampComplexity(complexity)
	return 1 + float64(c-neutralComplex)*complexityStep
}

func ClampComplexity(complexity int) int {
	if complexity < MinComplexity {
		return MinComplexity
	}
	if complexity > MaxComplexity {
		return MaxComplexity
	}
	return complexity
}

// finite reports whether every value is a real number, i.e. the inputs did
// not overflow float64 on the way to a price.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
