package adsb

// CheckPreamble reports whether the first PreambleSamples values of mag have
// the Mode S preamble shape: pulses at samples 0, 2, 7 and 9 with quiet
// samples in between and no leakage into 4, 5 or 11..14.
//
//	0   -----------------
//	1   -
//	2   ------------------
//	3   --
//	4   -
//	5   --
//	6   -
//	7   ------------------
//	8   --
//	9   -------------------
//	10  --
//	11  -
//	12  --
//	13  -
//	14  --
//	15  -
func CheckPreamble(mag []float64) bool {
	if len(mag) < PreambleSamples {
		return false
	}

	if !(mag[0] > mag[1] &&
		mag[1] < mag[2] &&
		mag[2] > mag[3] &&
		mag[3] < mag[0] &&
		mag[4] < mag[0] &&
		mag[5] < mag[0] &&
		mag[6] < mag[0] &&
		mag[7] > mag[8] &&
		mag[8] < mag[9] &&
		mag[9] > mag[6]) {
		return false
	}

	high := (mag[0] + mag[2] + mag[7] + mag[9]) / 6

	// 4 and 5 are furthest from any pulse; energy there means even phase
	// correction will not recover the message
	if mag[4] >= high || mag[5] >= high {
		return false
	}

	for _, m := range mag[11:15] {
		if m >= high {
			return false
		}
	}

	return true
}

// DetectOutOfPhase reports whether the preamble window shows the signature of
// pulses straddling two samples.
func DetectOutOfPhase(preamble []float64) bool {
	if preamble[3] > preamble[2]/3 {
		return true
	}
	if preamble[10] > preamble[9]/3 {
		return true
	}
	if preamble[6] > preamble[7]/3 {
		return true
	}
	return false
}
