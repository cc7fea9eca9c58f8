package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRemainderKnownMessages(t *testing.T) {
	for _, m := range []string{msgIdentification, msgPositionEven, msgPositionOdd, msgVelocityGS, msgVelocityTAS} {
		t.Run(m, func(t *testing.T) {
			assert.Equal(t, uint32(0), Remainder(mustHex(t, m)))
			assert.True(t, IsValid(mustHex(t, m)))
		})
	}
}

func TestRemainderMatchesParityTable(t *testing.T) {
	data := mustHex(t, msgPositionEven)
	parity := uint32(data[11])<<16 | uint32(data[12])<<8 | uint32(data[13])

	assert.Equal(t, parity, Parity(data[:11]))
	assert.Equal(t, data, AppendParity(data[:11]))
}

func TestIsValidEmpty(t *testing.T) {
	assert.False(t, IsValid(nil))
}

func TestSingleBitErrorDetectedAtEveryPosition(t *testing.T) {
	for _, m := range []string{msgIdentification, msgVelocityTAS} {
		data := mustHex(t, m)
		for bit := 0; bit < LongMsgBits; bit++ {
			flipped := append([]byte(nil), data...)
			flipped[bit/8] ^= 1 << uint(7-bit%8)
			require.NotZero(t, Remainder(flipped), "%s bit %d", m, bit)
		}
	}
}

func TestSingleBitErrorDetectedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		long := rapid.Bool().Draw(t, "long")
		n := ShortMsgBytes - 3
		if long {
			n = LongMsgBytes - 3
		}

		msg := AppendParity(rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "data"))
		if Remainder(msg) != 0 {
			t.Fatalf("parity-extended message %x has nonzero remainder", msg)
		}

		bit := rapid.IntRange(0, len(msg)*8-1).Draw(t, "bit")
		msg[bit/8] ^= 1 << uint(7-bit%8)
		if Remainder(msg) == 0 {
			t.Fatalf("flip of bit %d undetected in %x", bit, msg)
		}
	})
}
