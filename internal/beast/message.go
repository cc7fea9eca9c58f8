package beast

import (
	"math"

	"gomodes/internal/adsb"
)

// Beast mode message types
const (
	SyncByte   = 0x1A // Beast mode sync byte
	ModeAC     = 0x31 // Mode A/C
	ModeS      = 0x32 // Mode S Short (56 bits)
	ModeSLong  = 0x33 // Mode S Long (112 bits)
	ModeStatus = 0x34 // Status
)

// TicksPerSample converts a 2 Msps sample index into the 12 MHz Beast
// timestamp counter.
const TicksPerSample = 12000000 / adsb.SampleRate

const timestampMask = (1 << 48) - 1

// Message is one Beast frame with escaping removed
type Message struct {
	MessageType byte
	Timestamp   uint64 // 48-bit 12 MHz counter
	Signal      byte
	Data        []byte
}

// GetICAO extracts ICAO address from Mode S message
func (msg *Message) GetICAO() uint32 {
	if msg.MessageType != ModeS && msg.MessageType != ModeSLong {
		return 0
	}

	if len(msg.Data) < 4 {
		return 0
	}

	return (uint32(msg.Data[1]) << 16) | (uint32(msg.Data[2]) << 8) | uint32(msg.Data[3])
}

// GetDF extracts Downlink Format from Mode S message
func (msg *Message) GetDF() byte {
	if msg.MessageType != ModeS && msg.MessageType != ModeSLong {
		return 0
	}

	if len(msg.Data) < 1 {
		return 0
	}

	return (msg.Data[0] >> 3) & 0x1F
}

// SampleIndex converts the timestamp back to a 2 Msps sample index
func (msg *Message) SampleIndex() uint64 {
	return msg.Timestamp / TicksPerSample
}

// IsModeS reports whether the frame carries a Mode S payload
func (msg *Message) IsModeS() bool {
	return msg.MessageType == ModeS || msg.MessageType == ModeSLong
}

// IsValid checks the payload length against the frame type
func (msg *Message) IsValid() bool {
	n := payloadLength(msg.MessageType)
	return n > 0 && len(msg.Data) == n
}

// payloadLength returns the Mode S/AC payload size for a frame type
func payloadLength(messageType byte) int {
	switch messageType {
	case ModeAC, ModeStatus:
		return 2
	case ModeS:
		return adsb.ShortMsgBytes
	case ModeSLong:
		return adsb.LongMsgBytes
	default:
		return 0
	}
}

const fullScale = adsb.MagnitudeScale * 1.4142135623730951

// SignalFromConfidence maps a pulse separation score onto the one-byte
// Beast signal level. Full scale is a unit-amplitude sample.
func SignalFromConfidence(confidence float64) byte {
	level := confidence / fullScale * 255
	switch {
	case level <= 0:
		return 0
	case level >= 255:
		return 255
	default:
		return byte(math.Round(level))
	}
}

// ConfidenceFromSignal is the inverse of SignalFromConfidence, accurate to
// one signal step.
func ConfidenceFromSignal(signal byte) float64 {
	return float64(signal) / 255 * fullScale
}
