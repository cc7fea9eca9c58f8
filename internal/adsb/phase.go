package adsb

// CorrectPhase returns a copy of the data-region magnitudes with leaked
// energy pushed back towards the pulse it came from. For each bit pair the
// first sample of the following pair is boosted by 5/4 after a one and
// attenuated by 4/5 after a zero. The input slice is not modified.
func CorrectPhase(data []float64) []float64 {
	corrected := make([]float64, len(data))
	copy(corrected, data)

	for j := 0; j+2 < len(corrected); j += 2 {
		if corrected[j] > corrected[j+1] {
			corrected[j+2] = corrected[j+2] * 5 / 4
		} else {
			corrected[j+2] = corrected[j+2] * 4 / 5
		}
	}

	return corrected
}
