// Package decimal rounds floats for reporting.
package decimal

import (
	"math"
	"strconv"
)

// Round rounds v to the given number of decimal places using the exact
// binary value of v, so 0.15 (stored just below 0.15) rounds to 0.1. Exact
// ties round half to even.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
