package basestation

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomodes/internal/adsb"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func decodeAll(t *testing.T, frames ...string) []*adsb.Record {
	t.Helper()
	decoder := adsb.NewDecoder(testLogger(), false)

	var records []*adsb.Record
	for _, f := range frames {
		data, err := hex.DecodeString(f)
		require.NoError(t, err)
		msg, err := adsb.NewMessage(data)
		require.NoError(t, err)
		records = append(records, decoder.Decode(msg))
	}
	return records
}

func writeLines(t *testing.T, records []*adsb.Record) []string {
	t.Helper()
	var buf bytes.Buffer
	writer := NewWriter(&buf, testLogger())
	now := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, rec := range records {
		require.NoError(t, writer.WriteRecord(rec, now))
	}

	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestWriteRecordIdentification(t *testing.T) {
	lines := writeLines(t, decodeAll(t, "8D4840D6202CC371C32CE0576098"))
	require.Len(t, lines, 1)

	fields := strings.Split(lines[0], ",")
	require.Len(t, fields, 22)
	assert.Equal(t, "MSG", fields[0])
	assert.Equal(t, "1", fields[1])
	assert.Equal(t, "4840D6", fields[4])
	assert.Equal(t, "2023/01/01", fields[6])
	assert.Equal(t, "12:00:00.000", fields[7])
	assert.Equal(t, "KLM1023", fields[10])
	assert.Equal(t, "0", fields[21])
}

func TestWriteRecordPosition(t *testing.T) {
	lines := writeLines(t, decodeAll(t,
		"8D40621D58C382D690C8AC2863A7",
		"8D40621D58C386435CC412692AD6",
	))
	require.Len(t, lines, 2)

	first := strings.Split(lines[0], ",")
	assert.Equal(t, "3", first[1])
	assert.Equal(t, "38000", first[11])
	assert.Empty(t, first[14], "first frame of a pair has no position")

	second := strings.Split(lines[1], ",")
	assert.Equal(t, "40621D", second[4])
	assert.Equal(t, "52.26578", second[14])
	assert.Equal(t, "3.93891", second[15])
}

func TestWriteRecordVelocity(t *testing.T) {
	lines := writeLines(t, decodeAll(t, "8D485020994409940838175B284F"))
	require.Len(t, lines, 1)

	fields := strings.Split(lines[0], ",")
	assert.Equal(t, "4", fields[1])
	assert.Equal(t, "159", fields[12])
	assert.Equal(t, "182.9", fields[13])
	assert.Equal(t, "-832", fields[16])
}

func TestWriteRecordSkipsOtherKinds(t *testing.T) {
	rec := &adsb.Record{Kind: adsb.KindOther, DF: 11, ICAO: 0x4840D6}
	assert.Empty(t, writeLines(t, []*adsb.Record{rec}))
}

func TestWriteRecordNil(t *testing.T) {
	writer := NewWriter(&bytes.Buffer{}, testLogger())
	assert.Error(t, writer.WriteRecord(nil, time.Now()))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteRecordPropagatesWriteError(t *testing.T) {
	writer := NewWriter(failingWriter{}, testLogger())
	rec := decodeAll(t, "8D4840D6202CC371C32CE0576098")[0]

	err := writer.WriteRecord(rec, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
