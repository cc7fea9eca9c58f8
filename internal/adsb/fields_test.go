package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBits(t *testing.T) {
	data := []byte{0xA5, 0x0F, 0xF0}

	assert.Equal(t, uint32(1), getBits(data, 1, 1))
	assert.Equal(t, uint32(0xA), getBits(data, 1, 4))
	assert.Equal(t, uint32(0x50), getBits(data, 5, 12))
	assert.Equal(t, uint32(0xA50FF0), getBits(data, 1, 24))
	assert.Equal(t, uint32(0), getBits(data, 0, 4), "bits are 1-based")
	assert.Equal(t, uint32(0), getBits(data, 20, 30), "past the end")
}

func TestDecodeCallsign(t *testing.T) {
	msg := mustMessage(t, msgIdentification)
	assert.Equal(t, "KLM1023", decodeCallsign(msg.ME()))
	assert.Equal(t, "A0", decodeCategory(msg.ME()))
}

func TestDecodeCategory(t *testing.T) {
	tests := []struct {
		me       byte
		expected string
	}{
		{4<<3 | 3, "A3"},
		{3<<3 | 1, "B1"},
		{2<<3 | 0, "C0"},
		{1<<3 | 7, "D7"},
		{11 << 3, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, decodeCategory([]byte{tt.me, 0, 0, 0, 0, 0, 0}))
	}
}

func TestDecodeAC12(t *testing.T) {
	tests := []struct {
		name     string
		ac12     uint32
		expected int
		ok       bool
	}{
		{"No altitude", 0, 0, false},
		{"25 ft encoding", 0xC38, 38000, true},
		{"25 ft minimum", 0x010, -1000, true},
		{"Gillham C4 only", 0x080, -1200, true},
		{"Gillham invalid C code", 0x003, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alt, ok := decodeAC12(tt.ac12)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, alt)
			}
		})
	}
}

func TestModeAToModeC(t *testing.T) {
	tests := []struct {
		name     string
		gillham  uint32
		expected int
	}{
		{"C4", 0x0040, -12},
		{"C2 C4", 0x0060, -11},
		{"C2", 0x0020, -10},
		{"C1 C2", 0x0030, -9},
		{"C1", 0x0010, -8},
		{"B4 C1", 0x0410, -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alt, ok := modeAToModeC(tt.gillham)
			require.True(t, ok)
			assert.Equal(t, tt.expected, alt)
		})
	}

	_, ok := modeAToModeC(0x0001)
	assert.False(t, ok, "D1 is never used for altitude")
}

func TestDecodeVelocityGroundSpeed(t *testing.T) {
	v := decodeVelocity(mustMessage(t, msgVelocityGS).ME())

	assert.Equal(t, uint8(1), v.Subtype)
	assert.Equal(t, VelocityGroundSpeed, v.Tag)
	assert.Equal(t, "GNSS", v.VRSource)
	require.NotNil(t, v.Speed)
	require.NotNil(t, v.Heading)
	require.NotNil(t, v.VerticalRate)
	assert.Equal(t, 159, *v.Speed)
	assert.InDelta(t, 182.88, *v.Heading, 1e-9)
	assert.Equal(t, -832, *v.VerticalRate)
}

func TestDecodeVelocityAirspeed(t *testing.T) {
	v := decodeVelocity(mustMessage(t, msgVelocityTAS).ME())

	assert.Equal(t, uint8(3), v.Subtype)
	assert.Equal(t, VelocityTAS, v.Tag)
	assert.Equal(t, "BARO", v.VRSource)
	require.NotNil(t, v.Speed)
	require.NotNil(t, v.Heading)
	require.NotNil(t, v.VerticalRate)
	assert.Equal(t, 375, *v.Speed)
	assert.InDelta(t, 243.98, *v.Heading, 1e-9)
	assert.Equal(t, -2304, *v.VerticalRate)
}

func TestDecodeVelocityUnavailable(t *testing.T) {
	// subtype 1 with zero speed components and zero vertical rate
	me := []byte{19<<3 | 1, 0, 0, 0, 0, 0, 0}
	v := decodeVelocity(me)

	assert.Equal(t, VelocityGroundSpeed, v.Tag)
	assert.Nil(t, v.Speed)
	assert.Nil(t, v.Heading)
	assert.Nil(t, v.VerticalRate)
}

func TestDecodeVersion(t *testing.T) {
	me := []byte{31 << 3, 0, 0, 0, 0, 2 << 5, 0}
	assert.Equal(t, uint8(2), decodeVersion(me))
}

func TestDecodeCPRFrame(t *testing.T) {
	even := decodeCPRFrame(0x40621D, mustMessage(t, msgPositionEven).ME())
	odd := decodeCPRFrame(0x40621D, mustMessage(t, msgPositionOdd).ME())

	assert.Equal(t, uint8(0), even.FFlag)
	assert.Equal(t, uint8(1), odd.FFlag)
	assert.Equal(t, uint32(93000), even.LatCPR)
	assert.Equal(t, uint32(51372), even.LonCPR)
	assert.Equal(t, uint32(74158), odd.LatCPR)
	assert.Equal(t, uint32(50194), odd.LonCPR)
}
