package adsb

// Candidate is a preamble match and the data-region magnitudes that follow it.
type Candidate struct {
	Offset     int       // sample index of the preamble within the block
	Magnitudes []float64 // DataSamples values, read-only view of the block
}

// SliceBits turns each two-sample chip pair into a bit: pulse in the first
// half is a one, in the second half a zero. Equal halves give BitAmbiguous.
func SliceBits(data []float64) []uint8 {
	bits := make([]uint8, 0, len(data)/2)

	for j := 0; j+1 < len(data); j += 2 {
		low, high := data[j], data[j+1]

		switch {
		case low > high:
			bits = append(bits, BitOne)
		case low < high:
			bits = append(bits, BitZero)
		default:
			bits = append(bits, BitAmbiguous)
		}
	}

	return bits
}

// PackBytes packs bits MSB-first into bytes. The first byte decides the
// message length through its downlink format, and only that many bytes are
// returned. Ambiguous bits are packed as zero; the CRC check rejects them.
func PackBytes(bits []uint8) []byte {
	if len(bits) < 8 {
		return nil
	}

	first := packByte(bits[:8])
	msgLen := MessageLenByDF(first>>3) / 8
	if len(bits) < msgLen*8 {
		return nil
	}

	msg := make([]byte, msgLen)
	msg[0] = first
	for i := 1; i < msgLen; i++ {
		msg[i] = packByte(bits[i*8 : i*8+8])
	}

	return msg
}

func packByte(bits []uint8) byte {
	var b byte
	for _, bit := range bits {
		b <<= 1
		if bit == BitOne {
			b |= 1
		}
	}
	return b
}

// MessageLenByDF returns the message length in bits for a downlink format.
func MessageLenByDF(df uint8) int {
	switch df {
	case 16, 17, 19, 20, 21:
		return LongMsgBits
	default:
		return ShortMsgBits
	}
}
