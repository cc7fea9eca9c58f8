package beast

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"gomodes/internal/adsb"
)

// Encoder writes decoded records as escaped Beast binary frames
type Encoder struct {
	out    io.Writer
	logger *logrus.Logger
	buf    []byte
}

// NewEncoder creates a Beast encoder writing to out
func NewEncoder(out io.Writer, logger *logrus.Logger) *Encoder {
	return &Encoder{
		out:    out,
		logger: logger,
		buf:    make([]byte, 0, 64),
	}
}

// WriteRecord emits one frame for rec. sampleIndex is the stream-absolute
// sample index of the preamble start.
func (e *Encoder) WriteRecord(rec *adsb.Record, sampleIndex uint64) error {
	if rec == nil || rec.Message() == nil {
		return fmt.Errorf("record has no message")
	}

	msg := &Message{
		Timestamp: sampleIndex * TicksPerSample,
		Signal:    SignalFromConfidence(rec.Confidence),
		Data:      rec.Message().Data,
	}
	switch len(msg.Data) {
	case adsb.ShortMsgBytes:
		msg.MessageType = ModeS
	case adsb.LongMsgBytes:
		msg.MessageType = ModeSLong
	default:
		return fmt.Errorf("unexpected message length %d", len(msg.Data))
	}

	return e.WriteMessage(msg)
}

// WriteMessage emits msg with every 0x1A after the leading sync byte doubled
func (e *Encoder) WriteMessage(msg *Message) error {
	if !msg.IsValid() {
		return fmt.Errorf("invalid beast message type 0x%02x with %d bytes", msg.MessageType, len(msg.Data))
	}

	e.buf = Encode(e.buf[:0], msg)
	if _, err := e.out.Write(e.buf); err != nil {
		return fmt.Errorf("failed to write beast frame: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"message_type": fmt.Sprintf("0x%02x", msg.MessageType),
		"frame_len":    len(e.buf),
	}).Trace("Wrote Beast frame")

	return nil
}

// Encode appends the escaped wire form of msg to dst
func Encode(dst []byte, msg *Message) []byte {
	dst = append(dst, SyncByte, msg.MessageType)

	ts := msg.Timestamp & timestampMask
	for shift := 40; shift >= 0; shift -= 8 {
		dst = appendEscaped(dst, byte(ts>>uint(shift)))
	}
	dst = appendEscaped(dst, msg.Signal)
	for _, b := range msg.Data {
		dst = appendEscaped(dst, b)
	}

	return dst
}

func appendEscaped(dst []byte, b byte) []byte {
	if b == SyncByte {
		return append(dst, SyncByte, SyncByte)
	}
	return append(dst, b)
}
