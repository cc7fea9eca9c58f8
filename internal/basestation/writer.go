package basestation

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gomodes/internal/adsb"
)

// BaseStation message types
const (
	BaseStationMSG = "MSG" // Transmission
)

// BaseStation transmission types
const (
	TransmissionES_ID_CAT   = 1 // Extended Squitter Aircraft ID and Category
	TransmissionES_SURFACE  = 2 // Extended Squitter Surface Position
	TransmissionES_AIRBORNE = 3 // Extended Squitter Airborne Position
	TransmissionES_VELOCITY = 4 // Extended Squitter Airborne Velocity
)

// BaseStationMessage represents a BaseStation format message
type BaseStationMessage struct {
	MessageType      string
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	DateGenerated    time.Time
	TimeGenerated    time.Time
	DateLogged       time.Time
	TimeLogged       time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// Writer writes decoded records as SBS lines
type Writer struct {
	out        io.Writer
	logger     *logrus.Logger
	sessionID  int
	aircraftID int
}

// NewWriter creates a new BaseStation writer
func NewWriter(out io.Writer, logger *logrus.Logger) *Writer {
	return &Writer{
		out:        out,
		logger:     logger,
		sessionID:  1,
		aircraftID: 1,
	}
}

// WriteRecord writes one record. Records with no SBS transmission type are
// skipped without error.
func (w *Writer) WriteRecord(rec *adsb.Record, now time.Time) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	baseMsg := w.convertRecord(rec, now)
	if baseMsg == nil {
		return nil
	}

	if _, err := io.WriteString(w.out, w.formatCSV(baseMsg)+"\n"); err != nil {
		return fmt.Errorf("failed to write SBS line: %w", err)
	}

	return nil
}

// convertRecord maps a record onto the SBS fields
func (w *Writer) convertRecord(rec *adsb.Record, now time.Time) *BaseStationMessage {
	baseMsg := &BaseStationMessage{
		MessageType:   BaseStationMSG,
		SessionID:     w.sessionID,
		AircraftID:    w.aircraftID,
		HexIdent:      rec.ICAOString(),
		FlightID:      w.aircraftID,
		DateGenerated: now,
		TimeGenerated: now,
		DateLogged:    now,
		TimeLogged:    now,
		IsOnGround:    "0",
	}

	switch rec.Kind {
	case adsb.KindIdentification:
		baseMsg.TransmissionType = TransmissionES_ID_CAT
		baseMsg.Callsign = rec.Identification.Callsign

	case adsb.KindAirbornePosition:
		baseMsg.TransmissionType = TransmissionES_AIRBORNE
		pos := rec.Position
		if pos.Altitude != nil {
			baseMsg.Altitude = strconv.Itoa(*pos.Altitude)
		}
		if pos.HasLatLon() {
			baseMsg.Latitude = fmt.Sprintf("%.5f", *pos.Latitude)
			baseMsg.Longitude = fmt.Sprintf("%.5f", *pos.Longitude)
		}

	case adsb.KindVelocity:
		baseMsg.TransmissionType = TransmissionES_VELOCITY
		vel := rec.Velocity
		if vel.Speed != nil {
			baseMsg.GroundSpeed = strconv.Itoa(*vel.Speed)
		}
		if vel.Heading != nil {
			baseMsg.Track = fmt.Sprintf("%.1f", *vel.Heading)
		}
		if vel.VerticalRate != nil {
			baseMsg.VerticalRate = strconv.Itoa(*vel.VerticalRate)
		}

	default:
		return nil
	}

	return baseMsg
}

// formatCSV formats a BaseStation message as CSV
func (w *Writer) formatCSV(msg *BaseStationMessage) string {
	fields := []string{
		msg.MessageType,
		strconv.Itoa(msg.TransmissionType),
		strconv.Itoa(msg.SessionID),
		strconv.Itoa(msg.AircraftID),
		msg.HexIdent,
		strconv.Itoa(msg.FlightID),
		msg.DateGenerated.Format("2006/01/02"),
		msg.TimeGenerated.Format("15:04:05.000"),
		msg.DateLogged.Format("2006/01/02"),
		msg.TimeLogged.Format("15:04:05.000"),
		msg.Callsign,
		msg.Altitude,
		msg.GroundSpeed,
		msg.Track,
		msg.Latitude,
		msg.Longitude,
		msg.VerticalRate,
		msg.Squawk,
		msg.Alert,
		msg.Emergency,
		msg.SPI,
		msg.IsOnGround,
	}

	return strings.Join(fields, ",")
}
