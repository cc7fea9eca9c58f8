package adsb

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Decoder turns validated messages into Records. It owns the CPR pairing
// slot, so each input stream needs its own Decoder.
type Decoder struct {
	cpr     *CPRDecoder
	logger  *logrus.Logger
	verbose bool
}

// NewDecoder creates a field decoder with an empty CPR slot
func NewDecoder(logger *logrus.Logger, verbose bool) *Decoder {
	return &Decoder{
		cpr:     NewCPRDecoder(logger, verbose),
		logger:  logger,
		verbose: verbose,
	}
}

// CPR exposes the pairing state.
func (d *Decoder) CPR() *CPRDecoder {
	return d.cpr
}

// Decode dispatches on downlink format and type code.
func (d *Decoder) Decode(msg *Message) *Record {
	rec := &Record{
		Kind: KindOther,
		Hex:  msg.Hex(),
		DF:   msg.GetDF(),
		ICAO: msg.GetICAO(),
		msg:  msg,
	}

	if rec.DF != DFExtendedSquitter {
		return rec
	}

	rec.TypeCode = msg.GetTypeCode()
	me := msg.ME()

	switch tc := rec.TypeCode; {
	case tc >= 1 && tc <= 4:
		rec.Kind = KindIdentification
		rec.Identification = &Identification{
			Callsign: decodeCallsign(me),
			Category: decodeCategory(me),
		}

	case tc >= 9 && tc <= 18:
		rec.Kind = KindAirbornePosition
		rec.Position = d.decodePosition(rec.ICAO, me)

	case tc == 19:
		rec.Kind = KindVelocity
		rec.Velocity = decodeVelocity(me)

	case tc == 31:
		rec.Kind = KindOperationalStatus
		rec.OperationalStatus = &OperationalStatus{Version: decodeVersion(me)}
	}

	if d.verbose {
		d.logger.WithFields(logrus.Fields{
			"icao": rec.ICAOString(),
			"df":   rec.DF,
			"tc":   rec.TypeCode,
			"kind": rec.Kind,
		}).Debug("Decoded message")
	}

	return rec
}

func (d *Decoder) decodePosition(icao uint32, me []byte) *Position {
	frame := decodeCPRFrame(icao, me)
	pos := &Position{
		Altitude: decodeAltitude(me),
		FFlag:    frame.FFlag,
	}

	if lat, lon, ok := d.cpr.Decode(frame); ok {
		pos.Latitude = &lat
		pos.Longitude = &lon
	}

	return pos
}

func icaoHex(icao uint32) string {
	return fmt.Sprintf("%06X", icao)
}
