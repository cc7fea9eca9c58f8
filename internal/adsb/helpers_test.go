package adsb

import (
	"encoding/hex"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Real extended squitter frames used across tests
const (
	msgIdentification = "8D4840D6202CC371C32CE0576098" // KLM1023
	msgPositionEven   = "8D40621D58C382D690C8AC2863A7"
	msgPositionOdd    = "8D40621D58C386435CC412692AD6"
	msgVelocityGS     = "8D485020994409940838175B284F"
	msgVelocityTAS    = "8DA05F219B06B6AF189400CBC33F"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Suppress logs during testing
	return logger
}

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func mustMessage(t testing.TB, s string) *Message {
	t.Helper()
	msg, err := NewMessage(mustHex(t, s))
	require.NoError(t, err)
	return msg
}

// bytesToBits expands bytes MSB-first.
func bytesToBits(data []byte) []uint8 {
	bits := make([]uint8, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	return bits
}

// bitsToChips is the inverse of SliceBits for unambiguous bits.
func bitsToChips(bits []uint8, level float64) []float64 {
	chips := make([]float64, 0, len(bits)*2)
	for _, bit := range bits {
		if bit == BitOne {
			chips = append(chips, level, 0)
		} else {
			chips = append(chips, 0, level)
		}
	}
	return chips
}

// placeMessage writes a preamble and PPM-encoded msg into block at offset
// with the given amplitude. Short messages are padded to a full window with
// silence.
func placeMessage(block []complex128, offset int, msg []byte, amplitude float64) {
	pulse := complex(amplitude, 0)
	for _, p := range []int{0, 2, 7, 9} {
		block[offset+p] = pulse
	}

	data := offset + PreambleSamples
	for i, bit := range bytesToBits(msg) {
		if bit == 1 {
			block[data+2*i] = pulse
		} else {
			block[data+2*i+1] = pulse
		}
	}
}

func synthBlock(t testing.TB, n int, amplitude float64, msgs map[int]string) []complex128 {
	t.Helper()
	block := make([]complex128, n)
	for offset, m := range msgs {
		placeMessage(block, offset, mustHex(t, m), amplitude)
	}
	return block
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}
