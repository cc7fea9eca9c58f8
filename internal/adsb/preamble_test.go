package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func referencePreamble() []float64 {
	return []float64{300, 50, 300, 50, 50, 50, 50, 300, 50, 300, 50, 50, 50, 50, 50, 50}
}

func TestCheckPreamble(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(m []float64)
		expected bool
	}{
		{
			name:     "Reference shape accepted",
			mutate:   func(m []float64) {},
			expected: true,
		},
		{
			name:     "Leakage at sample 4",
			mutate:   func(m []float64) { m[4] = 250 },
			expected: false,
		},
		{
			name:     "Leakage at sample 5 equal to high",
			mutate:   func(m []float64) { m[5] = 200 },
			expected: false,
		},
		{
			name:     "Sample 5 just below high",
			mutate:   func(m []float64) { m[5] = 199 },
			expected: true,
		},
		{
			name:     "Leakage in late idle window",
			mutate:   func(m []float64) { m[13] = 210 },
			expected: false,
		},
		{
			name:     "Sample 15 is not checked",
			mutate:   func(m []float64) { m[15] = 1000 },
			expected: true,
		},
		{
			name:     "Missing first pulse",
			mutate:   func(m []float64) { m[0] = 40 },
			expected: false,
		},
		{
			name:     "Missing last pulse",
			mutate:   func(m []float64) { m[9] = 50 },
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mag := referencePreamble()
			tt.mutate(mag)
			assert.Equal(t, tt.expected, CheckPreamble(mag))
		})
	}
}

func TestCheckPreambleShortWindow(t *testing.T) {
	assert.False(t, CheckPreamble(referencePreamble()[:10]))
}

func TestDetectOutOfPhase(t *testing.T) {
	clean := []float64{128, 0, 128, 0, 0, 0, 0, 128, 0, 128, 0, 0, 0, 0, 0, 0}
	assert.False(t, DetectOutOfPhase(clean))

	tests := []struct {
		name  string
		index int
		value float64
	}{
		{"Energy after second pulse", 3, 43},
		{"Energy after fourth pulse", 10, 43},
		{"Energy before third pulse", 6, 43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mag := append([]float64(nil), clean...)
			mag[tt.index] = tt.value
			assert.True(t, DetectOutOfPhase(mag))

			mag[tt.index] = 42
			assert.False(t, DetectOutOfPhase(mag), "a third of the pulse is the limit")
		})
	}
}

func TestCorrectPhase(t *testing.T) {
	data := []float64{100, 10, 40, 80, 80, 20, 100, 0}
	orig := append([]float64(nil), data...)

	corrected := CorrectPhase(data)

	assert.Equal(t, orig, data, "input must not be modified")
	assert.Equal(t, []float64{100, 10, 50, 80, 64, 20, 125, 0}, corrected)
}
