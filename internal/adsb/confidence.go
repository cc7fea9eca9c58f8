package adsb

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Confidence returns the mean absolute difference between the two halves of
// each bit over the first msgBits bits of data.
func Confidence(data []float64, msgBits int) float64 {
	if msgBits*2 > len(data) {
		msgBits = len(data) / 2
	}
	if msgBits == 0 {
		return 0
	}

	deltas := make([]float64, msgBits)
	for k := range deltas {
		deltas[k] = math.Abs(data[2*k] - data[2*k+1])
	}

	return stat.Mean(deltas, nil)
}
