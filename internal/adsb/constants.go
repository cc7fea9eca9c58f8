package adsb

// ADS-B 6-bit character set used for callsign encoding. '#' marks codes
// with no assigned character.
const ADSBCharset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"

// Mode S timing at 2 Msps (two samples per microsecond)
const (
	SampleRate = 2000000

	PreambleMicros = 8
	LongMsgBits    = 112
	ShortMsgBits   = 56
	LongMsgBytes   = LongMsgBits / 8
	ShortMsgBytes  = ShortMsgBits / 8

	PreambleSamples = PreambleMicros * 2
	DataSamples     = LongMsgBits * 2
	FullLenSamples  = PreambleSamples + DataSamples // 240
)

// Magnitude and confidence constants
const (
	MagnitudeScale = 128.0

	// DefaultConfidenceThreshold is the minimum mean pulse/idle separation a
	// candidate needs before CRC is attempted. Half of the full-scale
	// magnitude of a unit sample (128*sqrt(2)).
	DefaultConfidenceThreshold = 90.0
)

// Bit values produced by the pulse slicer
const (
	BitZero      uint8 = 0
	BitOne       uint8 = 1
	BitAmbiguous uint8 = 2
)

// CPR decoding constants
const (
	CPR_LAT_BITS = 17
	CPR_LON_BITS = 17
	CPR_LAT_MAX  = 131072 // 2^17
	CPR_LON_MAX  = 131072 // 2^17

	CPR_NZ = 15 // latitude zones per hemisphere quadrant
)

// Downlink formats handled by the decoder
const (
	DFExtendedSquitter = 17
)
