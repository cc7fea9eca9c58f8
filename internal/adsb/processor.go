package adsb

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ErrShortBlock is returned when a sample block cannot hold one full
// preamble plus long message.
var ErrShortBlock = errors.New("sample block shorter than one message window")

// Stats is a snapshot of the demodulator counters.
type Stats struct {
	Blocks         uint64
	Samples        uint64
	Preambles      uint64
	PhaseCorrected uint64
	LowConfidence  uint64
	BadCRC         uint64
	Messages       uint64
	Positions      uint64
}

type counters struct {
	blocks         atomic.Uint64
	samples        atomic.Uint64
	preambles      atomic.Uint64
	phaseCorrected atomic.Uint64
	lowConfidence  atomic.Uint64
	badCRC         atomic.Uint64
	messages       atomic.Uint64
	positions      atomic.Uint64
}

// Demodulator runs the magnitude -> preamble -> slicer -> CRC -> decode
// pipeline over sample blocks. Execute must not be called concurrently;
// Stats may be read from any goroutine.
type Demodulator struct {
	logger    *logrus.Logger
	verbose   bool
	threshold float64
	decoder   *Decoder
	stats     counters
}

// NewDemodulator creates a demodulator. A threshold of zero or less selects
// DefaultConfidenceThreshold.
func NewDemodulator(threshold float64, logger *logrus.Logger, verbose bool) *Demodulator {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	return &Demodulator{
		logger:    logger,
		verbose:   verbose,
		threshold: threshold,
		decoder:   NewDecoder(logger, verbose),
	}
}

// Decoder returns the field decoder, which owns the CPR slot.
func (d *Demodulator) Decoder() *Decoder {
	return d.decoder
}

// Execute demodulates one block of 2 Msps I/Q samples and returns a record
// for every message that passes CRC, in block order.
func (d *Demodulator) Execute(iqData []complex128) ([]*Record, error) {
	if len(iqData) < FullLenSamples {
		return nil, fmt.Errorf("%w: got %d samples, need at least %d", ErrShortBlock, len(iqData), FullLenSamples)
	}

	d.stats.blocks.Add(1)
	d.stats.samples.Add(uint64(len(iqData)))

	return d.demodulate(CalculateMagnitude(iqData)), nil
}

// demodulate scans every offset where a full window fits.
func (d *Demodulator) demodulate(mag []float64) []*Record {
	var records []*Record

	for j := 0; j <= len(mag)-FullLenSamples; j++ {
		if !CheckPreamble(mag[j : j+PreambleSamples]) {
			continue
		}
		d.stats.preambles.Add(1)

		rec := d.decodeCandidate(mag, j)
		if rec == nil {
			continue
		}

		d.observe(rec)
		records = append(records, rec)
	}

	return records
}

// decodeCandidate runs everything after the preamble match. A nil result is
// ordinary noise rejection.
func (d *Demodulator) decodeCandidate(mag []float64, j int) *Record {
	cand := Candidate{
		Offset:     j,
		Magnitudes: mag[j+PreambleSamples : j+FullLenSamples],
	}

	data := cand.Magnitudes
	corrected := false
	if j > 0 && DetectOutOfPhase(mag[j:j+PreambleSamples]) {
		data = CorrectPhase(cand.Magnitudes)
		corrected = true
		d.stats.phaseCorrected.Add(1)
	}

	msg := PackBytes(SliceBits(data))
	if msg == nil {
		return nil
	}

	confidence := Confidence(cand.Magnitudes, len(msg)*8)
	if confidence < d.threshold {
		d.stats.lowConfidence.Add(1)
		return nil
	}

	if rem := Remainder(msg); rem != 0 {
		d.stats.badCRC.Add(1)
		if d.verbose {
			d.logger.WithFields(logrus.Fields{
				"offset":    j,
				"remainder": fmt.Sprintf("%06x", rem),
			}).Debug("CRC rejected candidate")
		}
		return nil
	}

	rec := d.decoder.Decode(&Message{Data: msg})
	rec.Offset = j
	rec.PhaseCorrected = corrected
	rec.Confidence = confidence
	return rec
}

// DecodeFrame validates and decodes a frame that was demodulated elsewhere,
// such as one read back from a Beast recording. It shares the CPR slot and
// counters with Execute.
func (d *Demodulator) DecodeFrame(data []byte) (*Record, error) {
	msg, err := NewMessage(data)
	if err != nil {
		if errors.Is(err, ErrBadCRC) {
			d.stats.badCRC.Add(1)
		}
		return nil, err
	}

	rec := d.decoder.Decode(msg)
	d.observe(rec)
	return rec, nil
}

func (d *Demodulator) observe(rec *Record) {
	d.stats.messages.Add(1)
	if rec.Position != nil && rec.Position.HasLatLon() {
		d.stats.positions.Add(1)
	}
}

// Stats returns a snapshot of the counters
func (d *Demodulator) Stats() Stats {
	return Stats{
		Blocks:         d.stats.blocks.Load(),
		Samples:        d.stats.samples.Load(),
		Preambles:      d.stats.preambles.Load(),
		PhaseCorrected: d.stats.phaseCorrected.Load(),
		LowConfidence:  d.stats.lowConfidence.Load(),
		BadCRC:         d.stats.badCRC.Load(),
		Messages:       d.stats.messages.Load(),
		Positions:      d.stats.positions.Load(),
	}
}
