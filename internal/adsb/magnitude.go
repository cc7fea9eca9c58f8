package adsb

import (
	"math"
	"math/cmplx"
)

// CalculateMagnitude scales each I/Q sample by MagnitudeScale and returns the
// rounded modulus. Input samples are nominally within [-1, 1] on each axis,
// which puts the result on a 0..181 scale. Halves round to even.
func CalculateMagnitude(iqData []complex128) []float64 {
	magnitude := make([]float64, len(iqData))

	for i, sample := range iqData {
		magnitude[i] = math.RoundToEven(cmplx.Abs(sample * MagnitudeScale))
	}

	return magnitude
}
