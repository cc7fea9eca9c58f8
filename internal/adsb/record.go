package adsb

import "fmt"

// RecordKind tags which sub-record of a Record is populated.
type RecordKind int

const (
	KindOther RecordKind = iota
	KindIdentification
	KindAirbornePosition
	KindVelocity
	KindOperationalStatus
)

func (k RecordKind) String() string {
	switch k {
	case KindIdentification:
		return "identification"
	case KindAirbornePosition:
		return "airborne_position"
	case KindVelocity:
		return "velocity"
	case KindOperationalStatus:
		return "operational_status"
	default:
		return "other"
	}
}

// MarshalText encodes the kind by name in JSON output.
func (k RecordKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Record is the decoded form of one validated message. Exactly the sub-record
// matching Kind is set; KindOther carries only the common fields.
type Record struct {
	Kind     RecordKind `json:"kind"`
	Hex      string     `json:"hex"`
	DF       uint8      `json:"df"`
	ICAO     uint32     `json:"icao"`
	TypeCode uint8      `json:"tc,omitempty"`

	// Demodulation details
	Offset         int     `json:"offset"`
	PhaseCorrected bool    `json:"phase_corrected"`
	Confidence     float64 `json:"confidence"`

	Identification    *Identification    `json:"identification,omitempty"`
	Position          *Position          `json:"position,omitempty"`
	Velocity          *Velocity          `json:"velocity,omitempty"`
	OperationalStatus *OperationalStatus `json:"operational_status,omitempty"`

	msg *Message
}

// Message returns the validated frame the record was decoded from.
func (r *Record) Message() *Message {
	return r.msg
}

// ICAOString formats the address the way SBS and logs expect it.
func (r *Record) ICAOString() string {
	return fmt.Sprintf("%06X", r.ICAO)
}

// Identification holds TC 1-4 fields.
type Identification struct {
	Callsign string `json:"callsign"`
	Category string `json:"category"`
}

// Position holds TC 9-18 fields. Latitude and Longitude are only set once a
// complementary even/odd frame pair has been resolved.
type Position struct {
	Altitude  *int     `json:"altitude,omitempty"`
	FFlag     uint8    `json:"f_flag"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
}

// HasLatLon reports whether the position was globally resolved.
func (p *Position) HasLatLon() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Velocity tags
const (
	VelocityGroundSpeed = "GS"
	VelocityTAS         = "TAS"
	VelocityIAS         = "IAS"
)

// Velocity holds TC 19 fields. Heading is the ground track for ground-speed
// subtypes and the magnetic heading for airspeed subtypes.
type Velocity struct {
	Subtype      uint8    `json:"subtype"`
	Speed        *int     `json:"speed,omitempty"`
	Heading      *float64 `json:"heading,omitempty"`
	VerticalRate *int     `json:"vertical_rate,omitempty"`
	VRSource     string   `json:"vr_source"`
	Tag          string   `json:"tag"`
}

// OperationalStatus holds TC 31 fields.
type OperationalStatus struct {
	Version uint8 `json:"version"`
}
