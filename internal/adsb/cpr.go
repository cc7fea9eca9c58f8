package adsb

import (
	"math"

	"github.com/sirupsen/logrus"
)

// CPRFrame is the CPR-encoded part of one airborne position message.
type CPRFrame struct {
	ICAO   uint32
	LatCPR uint32
	LonCPR uint32
	FFlag  uint8 // 0 even, 1 odd
}

// CPRDecoder pairs even and odd airborne position frames. It holds a single
// pending frame regardless of which aircraft sent it, so interleaved traffic
// from two aircraft can pair across them.
type CPRDecoder struct {
	pending *CPRFrame
	logger  *logrus.Logger
	verbose bool
}

// NewCPRDecoder creates a new CPR decoder with an empty pending slot
func NewCPRDecoder(logger *logrus.Logger, verbose bool) *CPRDecoder {
	return &CPRDecoder{
		logger:  logger,
		verbose: verbose,
	}
}

// Pending reports whether a frame is waiting for its complement.
func (c *CPRDecoder) Pending() bool {
	return c.pending != nil
}

// Reset drops the pending frame.
func (c *CPRDecoder) Reset() {
	c.pending = nil
}

// Decode feeds one frame through the pairing state machine. With no pending
// frame, or a pending frame of the same parity, the frame is stored and ok is
// false. With a pending frame of the other parity the pair is consumed and
// resolved using the current frame as the most recent one.
func (c *CPRDecoder) Decode(frame CPRFrame) (lat, lon float64, ok bool) {
	if c.pending == nil || c.pending.FFlag == frame.FFlag {
		c.pending = &frame
		return 0, 0, false
	}

	prev := *c.pending
	c.pending = nil

	even, odd := prev, frame
	if frame.FFlag == 0 {
		even, odd = frame, prev
	}

	lat, lon, ok = decodeCPRBothFrames(even, odd, frame.FFlag == 1)
	if c.verbose {
		c.logger.WithFields(logrus.Fields{
			"icao":      icaoHex(frame.ICAO),
			"pair_icao": icaoHex(prev.ICAO),
			"lat":       lat,
			"lon":       lon,
			"resolved":  ok,
		}).Debug("CPR pair decoded")
	}
	return lat, lon, ok
}

// cprModInt performs always positive MOD operation
func cprModInt(a, b int) int {
	res := a % b
	if res < 0 {
		res += b
	}
	return res
}

// decodeCPRBothFrames runs the global airborne decode. useOdd selects the
// odd frame as the most recent one.
func decodeCPRBothFrames(evenFrame, oddFrame CPRFrame, useOdd bool) (float64, float64, bool) {
	const cprMax = float64(CPR_LAT_MAX)

	airDlat0 := 360.0 / 60.0
	airDlat1 := 360.0 / 59.0

	lat0 := float64(evenFrame.LatCPR) / cprMax
	lat1 := float64(oddFrame.LatCPR) / cprMax
	lon0 := float64(evenFrame.LonCPR) / float64(CPR_LON_MAX)
	lon1 := float64(oddFrame.LonCPR) / float64(CPR_LON_MAX)

	// latitude index
	j := int(math.Floor(59*lat0 - 60*lat1 + 0.5))

	rlat0 := airDlat0 * (float64(cprModInt(j, 60)) + lat0)
	rlat1 := airDlat1 * (float64(cprModInt(j, 59)) + lat1)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	// both frames must be in the same longitude zone band
	if cprNL(rlat0) != cprNL(rlat1) {
		return 0, 0, false
	}

	var rlat, rlon float64
	if useOdd {
		nl := cprNL(rlat1)
		ni := cprN(rlat1, 1)
		m := int(math.Floor(lon0*float64(nl-1) - lon1*float64(nl) + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(cprModInt(m, ni)) + lon1)
		rlat = rlat1
	} else {
		nl := cprNL(rlat0)
		ni := cprN(rlat0, 0)
		m := int(math.Floor(lon0*float64(nl-1) - lon1*float64(nl) + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(cprModInt(m, ni)) + lon0)
		rlat = rlat0
	}

	// renormalize to -180 .. +180
	rlon -= math.Floor((rlon+180)/360) * 360

	return roundTo5(rlat), roundTo5(rlon), true
}

func roundTo5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// cprN returns the number of longitude zones for a frame parity
func cprN(lat float64, fflag int) int {
	nl := cprNL(lat) - fflag
	if nl < 1 {
		nl = 1
	}
	return nl
}

// cprNL returns the number of longitude zones for a given latitude using lookup table
func cprNL(lat float64) int {
	absLat := math.Abs(lat)

	for i, limit := range nlTable {
		if absLat < limit {
			return 59 - i
		}
	}
	return 1
}

// Latitude transition points for NL 59 down to 2.
var nlTable = [...]float64{
	10.47047130, 14.82817437, 18.18626357, 21.02939493, 23.54504487,
	25.82924707, 27.93898710, 29.91135686, 31.77209708, 33.53993436,
	35.22899598, 36.85025108, 38.41241892, 39.92256684, 41.38651832,
	42.80914012, 44.19454951, 45.54626723, 46.86733252, 48.16039128,
	49.42776439, 50.67150166, 51.89342469, 53.09516153, 54.27817472,
	55.44378444, 56.59318756, 57.72747354, 58.84763776, 59.95459277,
	61.04917774, 62.13216659, 63.20427479, 64.26616523, 65.31845310,
	66.36171008, 67.39646774, 68.42322022, 69.44242631, 70.45451075,
	71.45986473, 72.45884545, 73.45177442, 74.43893416, 75.42056257,
	76.39684391, 77.36789461, 78.33374083, 79.29428225, 80.24923213,
	81.19801349, 82.13956981, 83.07199445, 83.99173563, 84.89166191,
	85.75541621, 86.53536998, 87.00000000,
}
