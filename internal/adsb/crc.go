package adsb

// Mode S CRC-24 generator polynomial. MODES_GENERATOR_POLY holds the low 24
// bits; the x^24 term is implicit.
const (
	MODES_GENERATOR_POLY = 0xfff409
	modesGenerator       = 1<<24 | MODES_GENERATOR_POLY
)

// Pre-computed table for parity generation
var crcTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = (c << 1) ^ MODES_GENERATOR_POLY
			} else {
				c = c << 1
			}
		}
		crcTable[i] = c & 0x00ffffff
	}
}

// Remainder divides the whole message, parity field included, by the
// generator polynomial bit by bit, most significant bit first, and returns
// the 24-bit remainder. A well-formed extended squitter leaves zero.
func Remainder(msg []byte) uint32 {
	var rem uint32

	for _, b := range msg {
		for i := 7; i >= 0; i-- {
			rem = rem<<1 | uint32(b>>uint(i))&1
			if rem&(1<<24) != 0 {
				rem ^= modesGenerator
			}
		}
	}

	return rem
}

// IsValid reports whether msg has a zero CRC remainder.
func IsValid(msg []byte) bool {
	return len(msg) > 0 && Remainder(msg) == 0
}

// Parity returns the 24-bit parity to append to data so that the resulting
// message divides evenly by the generator.
func Parity(data []byte) uint32 {
	var rem uint32

	for _, b := range data {
		rem = (rem << 8) ^ crcTable[uint32(b)^((rem&0xff0000)>>16)]
		rem = rem & 0xffffff
	}

	return rem
}

// AppendParity returns data followed by its three parity bytes.
func AppendParity(data []byte) []byte {
	p := Parity(data)
	msg := make([]byte, len(data), len(data)+3)
	copy(msg, data)
	return append(msg, byte(p>>16), byte(p>>8), byte(p))
}
