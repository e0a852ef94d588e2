package network

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// minMaxScale maps values linearly onto [lo, hi]. A constant series maps
// to lo. The input slice is left untouched.
func minMaxScale(values []float64, lo, hi float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := floats.Min(values), floats.Max(values)
	span := max - min
	for i, v := range values {
		if span == 0 {
			out[i] = lo
			continue
		}
		out[i] = lo + (v-min)/span*(hi-lo)
	}
	return out
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
