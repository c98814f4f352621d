package calculator

import (
	"math"
	"strconv"
)

// decimalScale keeps 8 fractional digits, enough to hide binary
// representation noise such as 0.1+0.2.
const decimalScale = 1e8

// integralThreshold is 2^52: every float64 at or beyond it is an integer.
const integralThreshold = 1 << 52

// FormatNumber rounds v to 8 decimal places and renders it as the shortest
// plain decimal string. Non-finite values yield the error marker.
func FormatNumber(v float64) Result {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Failure(ErrNonFinite)
	}

	rounded := v
	if math.Abs(v) < integralThreshold {
		rounded = roundHalfUp(v*decimalScale) / decimalScale
	}
	if rounded == 0 {
		// drops the sign of negative zero
		rounded = 0
	}
	return Number(strconv.FormatFloat(rounded, 'f', -1, 64))
}

// roundHalfUp rounds to the nearest integer with ties going toward +Inf.
func roundHalfUp(x float64) float64 {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}
