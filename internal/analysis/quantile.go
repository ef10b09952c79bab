package analysis

import (
	"math"
	"sort"
)

// Quantile returns the q-quantile of values using linear interpolation
// between closest ranks. NaN for an empty input.
func Quantile(values []float64, q float64) float64 {
	sorted := sortedCopy(values)
	return sortedQuantile(sorted, q)
}

// Quantiles computes several quantiles over one shared sort of the input.
func Quantiles(values []float64, qs ...float64) []float64 {
	sorted := sortedCopy(values)
	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = sortedQuantile(sorted, q)
	}
	return out
}

// Median is the 0.5-quantile.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

func sortedQuantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
