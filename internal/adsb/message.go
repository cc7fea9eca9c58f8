package adsb

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrBadCRC marks a frame whose CRC remainder is not zero.
var ErrBadCRC = errors.New("crc mismatch")

// Message is a CRC-validated Mode S frame of 7 or 14 bytes.
type Message struct {
	Data []byte
}

// NewMessage wraps data as a Message after checking its length matches the
// downlink format and its CRC remainder is zero.
func NewMessage(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	want := MessageLenByDF(data[0]>>3) / 8
	if len(data) != want {
		return nil, fmt.Errorf("message length %d does not match DF%d (want %d bytes)", len(data), data[0]>>3, want)
	}

	if rem := Remainder(data); rem != 0 {
		return nil, fmt.Errorf("%w: remainder %06x", ErrBadCRC, rem)
	}

	msg := make([]byte, len(data))
	copy(msg, data)
	return &Message{Data: msg}, nil
}

// GetICAO extracts the 24-bit address from bytes 1-3
func (msg *Message) GetICAO() uint32 {
	if len(msg.Data) < 4 {
		return 0
	}
	return uint32(msg.Data[1])<<16 | uint32(msg.Data[2])<<8 | uint32(msg.Data[3])
}

// GetDF extracts Downlink Format from the message
func (msg *Message) GetDF() uint8 {
	return (msg.Data[0] >> 3) & 0x1F
}

// GetTypeCode extracts the ME type code for DF17 messages
func (msg *Message) GetTypeCode() uint8 {
	if msg.GetDF() != DFExtendedSquitter || len(msg.Data) < 5 {
		return 0
	}
	return (msg.Data[4] >> 3) & 0x1F
}

// ME returns the 56-bit message extended field of a long message.
func (msg *Message) ME() []byte {
	if len(msg.Data) < LongMsgBytes {
		return nil
	}
	return msg.Data[4:11]
}

// Hex returns the payload as lowercase hex.
func (msg *Message) Hex() string {
	return hex.EncodeToString(msg.Data)
}
