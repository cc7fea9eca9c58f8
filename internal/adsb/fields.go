package adsb

import (
	"math"
	"strings"
)

// getBits extracts bits firstBit..lastBit (1-based, inclusive) from data,
// MSB first. Up to 32 bits.
func getBits(data []byte, firstBit, lastBit int) uint32 {
	if firstBit < 1 || lastBit < firstBit || lastBit-firstBit >= 32 || (lastBit-1)/8 >= len(data) {
		return 0
	}

	var result uint32
	for bit := firstBit - 1; bit < lastBit; bit++ {
		result = result<<1 | uint32(data[bit/8]>>(7-uint(bit%8)))&1
	}
	return result
}

// decodeCallsign reads the eight 6-bit characters of an identification ME.
func decodeCallsign(me []byte) string {
	var callsign [8]byte

	for i := range callsign {
		first := 9 + i*6
		callsign[i] = ADSBCharset[getBits(me, first, first+5)]
	}

	return strings.TrimRight(strings.ReplaceAll(string(callsign[:]), "#", ""), " ")
}

// decodeCategory renders the emitter category as set letter and number:
// TC4 is set A, TC3 set B, TC2 set C, TC1 set D.
func decodeCategory(me []byte) string {
	tc := getBits(me, 1, 5)
	if tc < 1 || tc > 4 {
		return ""
	}
	set := byte('A' + (4 - tc))
	return string([]byte{set, byte('0' + getBits(me, 6, 8))})
}

// decodeAC12 decodes the 12-bit altitude code of an airborne position ME.
// The boolean is false when no altitude is available.
func decodeAC12(ac12 uint32) (int, bool) {
	if ac12 == 0 {
		return 0, false
	}

	if ac12&0x10 != 0 {
		// 25 ft resolution: N is the 11 bit integer left after removing Q
		n := ((ac12 & 0x0FE0) >> 1) | (ac12 & 0x000F)
		return int(n)*25 - 1000, true
	}

	// 100 ft Gillham: insert M=0 at bit 6 to get a 13 bit field
	n13 := ((ac12 & 0x0FC0) << 1) | (ac12 & 0x003F)
	modeC, ok := modeAToModeC(decodeID13(n13))
	if !ok || modeC < -12 {
		return 0, false
	}
	return modeC * 100, true
}

// decodeID13 rearranges a 13-bit identity field into hex Gillham order
// (A in 0x7000, B in 0x0700, C in 0x0070, D in 0x0007).
func decodeID13(id13 uint32) uint32 {
	var g uint32

	if id13&0x1000 != 0 {
		g |= 0x0010 // C1
	}
	if id13&0x0800 != 0 {
		g |= 0x1000 // A1
	}
	if id13&0x0400 != 0 {
		g |= 0x0020 // C2
	}
	if id13&0x0200 != 0 {
		g |= 0x2000 // A2
	}
	if id13&0x0100 != 0 {
		g |= 0x0040 // C4
	}
	if id13&0x0080 != 0 {
		g |= 0x4000 // A4
	}
	if id13&0x0020 != 0 {
		g |= 0x0100 // B1
	}
	if id13&0x0010 != 0 {
		g |= 0x0001 // D1
	}
	if id13&0x0008 != 0 {
		g |= 0x0200 // B2
	}
	if id13&0x0004 != 0 {
		g |= 0x0002 // D2
	}
	if id13&0x0002 != 0 {
		g |= 0x0400 // B4
	}
	if id13&0x0001 != 0 {
		g |= 0x0004 // D4
	}

	return g
}

// modeAToModeC converts a Gillham code to altitude in hundreds of feet.
func modeAToModeC(modeA uint32) (int, bool) {
	var fiveHundreds, oneHundreds uint32

	if modeA&0xFFFF8889 != 0 || modeA&0x000000F0 == 0 {
		return 0, false
	}

	if modeA&0x0010 != 0 {
		oneHundreds ^= 0x007 // C1
	}
	if modeA&0x0020 != 0 {
		oneHundreds ^= 0x003 // C2
	}
	if modeA&0x0040 != 0 {
		oneHundreds ^= 0x001 // C4
	}

	// 7 and 5 are swapped in the C sequence
	if oneHundreds&5 == 5 {
		oneHundreds ^= 2
	}
	if oneHundreds > 5 {
		return 0, false
	}

	if modeA&0x0002 != 0 {
		fiveHundreds ^= 0x0FF // D2
	}
	if modeA&0x0004 != 0 {
		fiveHundreds ^= 0x07F // D4
	}
	if modeA&0x1000 != 0 {
		fiveHundreds ^= 0x03F // A1
	}
	if modeA&0x2000 != 0 {
		fiveHundreds ^= 0x01F // A2
	}
	if modeA&0x4000 != 0 {
		fiveHundreds ^= 0x00F // A4
	}
	if modeA&0x0100 != 0 {
		fiveHundreds ^= 0x007 // B1
	}
	if modeA&0x0200 != 0 {
		fiveHundreds ^= 0x003 // B2
	}
	if modeA&0x0400 != 0 {
		fiveHundreds ^= 0x001 // B4
	}

	if fiveHundreds&1 != 0 {
		oneHundreds = 6 - oneHundreds
	}

	return int(fiveHundreds*5+oneHundreds) - 13, true
}

// decodeAltitude reads the AC12 field of an airborne position ME.
func decodeAltitude(me []byte) *int {
	alt, ok := decodeAC12(getBits(me, 9, 20))
	if !ok {
		return nil
	}
	return &alt
}

// decodeCPRFrame reads the F flag and the encoded latitude/longitude.
func decodeCPRFrame(icao uint32, me []byte) CPRFrame {
	return CPRFrame{
		ICAO:   icao,
		FFlag:  uint8(getBits(me, 22, 22)),
		LatCPR: getBits(me, 23, 39),
		LonCPR: getBits(me, 40, 56),
	}
}

// decodeVelocity decodes an airborne velocity ME (TC 19).
func decodeVelocity(me []byte) *Velocity {
	subtype := uint8(getBits(me, 6, 8))
	v := &Velocity{
		Subtype:  subtype,
		VRSource: "BARO",
	}
	if getBits(me, 36, 36) == 0 {
		v.VRSource = "GNSS"
	}

	switch subtype {
	case 1, 2:
		v.Tag = VelocityGroundSpeed

		ewRaw := getBits(me, 15, 24)
		nsRaw := getBits(me, 26, 35)
		if ewRaw != 0 && nsRaw != 0 {
			scale := 1
			if subtype == 2 {
				scale = 4
			}

			ewVel := int(ewRaw-1) * scale
			if getBits(me, 14, 14) != 0 {
				ewVel = -ewVel
			}
			nsVel := int(nsRaw-1) * scale
			if getBits(me, 25, 25) != 0 {
				nsVel = -nsVel
			}

			speed := int(math.Sqrt(float64(nsVel*nsVel+ewVel*ewVel)) + 0.5)
			track := math.Atan2(float64(ewVel), float64(nsVel)) * 180.0 / math.Pi
			if track < 0 {
				track += 360
			}
			track = math.Round(track*100) / 100

			v.Speed = &speed
			v.Heading = &track
		}

	case 3, 4:
		v.Tag = VelocityIAS
		if getBits(me, 25, 25) != 0 {
			v.Tag = VelocityTAS
		}

		if getBits(me, 14, 14) != 0 {
			heading := float64(getBits(me, 15, 24)) * 360.0 / 1024.0
			heading = math.Round(heading*100) / 100
			v.Heading = &heading
		}

		if raw := getBits(me, 26, 35); raw != 0 {
			airspeed := int(raw - 1)
			if subtype == 4 {
				airspeed *= 4
			}
			v.Speed = &airspeed
		}

	default:
		return v
	}

	if vrRaw := getBits(me, 38, 46); vrRaw != 0 {
		rate := int(vrRaw-1) * 64
		if getBits(me, 37, 37) != 0 {
			rate = -rate
		}
		v.VerticalRate = &rate
	}

	return v
}

// decodeVersion reads the ADS-B version of an operational status ME.
func decodeVersion(me []byte) uint8 {
	return uint8(getBits(me, 41, 43))
}
