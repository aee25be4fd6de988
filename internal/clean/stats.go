package clean

import "sort"

// median returns the median of values, interpolating between the two middle
// elements for even-length input. Returns 0 for empty input; callers must
// check emptiness themselves if 0 is meaningful.
func median(values []float64) float64 {
	return percentile(values, 0.5)
}

// percentile computes the q-th percentile (0 <= q <= 1) of values using
// linear interpolation between closest ranks, the same method the upstream
// producer's tooling uses. The input is not modified.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := q * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// iqrBounds returns the [Q1 - 1.5*IQR, Q3 + 1.5*IQR] interval for values.
// Values outside the interval are considered outliers.
func iqrBounds(values []float64) (lo, hi float64) {
	q1 := percentile(values, 0.25)
	q3 := percentile(values, 0.75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}
