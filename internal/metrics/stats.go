package metrics

import "math"

// percentileOf picks the p-quantile from an ascending-sorted list using the
// ceil(p*N)-1 index rule, clamped to the valid range. Nil for empty input.
func percentileOf(sorted []float64, p float64) *float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	v := round2(sorted[idx])
	return &v
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func round2(v float64) float64 { return roundTo(v, 2) }
func round1(v float64) float64 { return roundTo(v, 1) }

func fptr(v float64) *float64 { return &v }
