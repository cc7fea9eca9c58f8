package beast

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// header is timestamp plus signal, both escaped on the wire
const header = 7

// Decoder decodes Beast mode messages from a byte stream that may split
// frames across reads
type Decoder struct {
	logger *logrus.Logger
	buffer []byte
}

// NewDecoder creates a new Beast decoder
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		buffer: make([]byte, 0, 4096),
	}
}

// Decode decodes Beast mode messages from raw data
func (d *Decoder) Decode(data []byte) ([]*Message, error) {
	d.buffer = append(d.buffer, data...)

	var messages []*Message

	for {
		syncIndex := d.findSync()
		if syncIndex == -1 {
			// Keep a trailing sync byte; its pair may arrive next read
			if n := len(d.buffer); n > 0 && d.buffer[n-1] == SyncByte {
				d.buffer = append(d.buffer[:0], SyncByte)
			} else {
				d.buffer = d.buffer[:0]
			}
			break
		}

		if syncIndex > 0 {
			d.buffer = d.buffer[syncIndex:]
		}

		if len(d.buffer) < 2 {
			break
		}

		messageType := d.buffer[1]
		dataLen := payloadLength(messageType)
		if dataLen == 0 {
			d.logger.WithFields(logrus.Fields{
				"message_type": fmt.Sprintf("0x%02x", messageType),
			}).Debug("Unknown message type, skipping")
			d.buffer = d.buffer[1:]
			continue
		}

		body, consumed, err := unescape(d.buffer[2:], header+dataLen)
		if err == errIncomplete {
			break
		}
		if err != nil {
			d.logger.WithError(err).Debug("Failed to decode beast message")
			d.buffer = d.buffer[1:]
			continue
		}

		msg := &Message{
			MessageType: messageType,
			Signal:      body[6],
			Data:        body[header:],
		}
		for i := 0; i < 6; i++ {
			msg.Timestamp = (msg.Timestamp << 8) | uint64(body[i])
		}

		d.logger.WithFields(logrus.Fields{
			"message_type": fmt.Sprintf("0x%02x", msg.MessageType),
			"signal":       msg.Signal,
			"data_length":  len(msg.Data),
		}).Trace("Decoded Beast message")

		messages = append(messages, msg)
		d.buffer = d.buffer[2+consumed:]
	}

	return messages, nil
}

// findSync returns the index of the first 0x1A that starts a frame, skipping
// escaped pairs
func (d *Decoder) findSync() int {
	for i := 0; i < len(d.buffer); i++ {
		if d.buffer[i] != SyncByte {
			continue
		}
		if i+1 >= len(d.buffer) {
			return -1
		}
		if d.buffer[i+1] == SyncByte {
			i++
			continue
		}
		return i
	}
	return -1
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const (
	errIncomplete = decodeError("incomplete frame")
	errBadEscape  = decodeError("unescaped sync byte inside frame")
)

// unescape reads n logical bytes from src, collapsing doubled sync bytes.
// It returns the bytes and how many raw bytes were consumed.
func unescape(src []byte, n int) ([]byte, int, error) {
	out := make([]byte, 0, n)
	i := 0
	for len(out) < n {
		if i >= len(src) {
			return nil, 0, errIncomplete
		}
		b := src[i]
		if b == SyncByte {
			if i+1 >= len(src) {
				return nil, 0, errIncomplete
			}
			if src[i+1] != SyncByte {
				return nil, 0, errBadEscape
			}
			i++
		}
		out = append(out, b)
		i++
	}
	return out, i, nil
}
