package mqtt

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomodes/internal/adsb"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                     { return t.complete }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	connected    bool
	token        *fakeToken
	published    []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) {
	c.connected = false
	c.disconnected = true
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func decodePair(t *testing.T) []*adsb.Record {
	t.Helper()
	decoder := adsb.NewDecoder(testLogger(), false)

	var records []*adsb.Record
	for _, f := range []string{"8D40621D58C382D690C8AC2863A7", "8D40621D58C386435CC412692AD6"} {
		data, err := hex.DecodeString(f)
		require.NoError(t, err)
		msg, err := adsb.NewMessage(data)
		require.NoError(t, err)
		records = append(records, decoder.Decode(msg))
	}
	return records
}

func TestPublishPosition(t *testing.T) {
	fc := &fakeClient{connected: true, token: &fakeToken{complete: true}}
	receiver := &Receiver{Latitude: 52.3086, Longitude: 4.7639}
	pub := newPublisher(fc, Config{TopicPrefix: "adsb", QoS: 1, Retain: true}, receiver, testLogger())

	now := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, rec := range decodePair(t) {
		require.NoError(t, pub.Publish(rec, now))
	}
	require.Len(t, fc.published, 2)

	last := fc.published[1]
	assert.Equal(t, "adsb/40621D/airborne_position", last.topic)
	assert.Equal(t, byte(1), last.qos)
	assert.True(t, last.retained)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.payload, &body))
	assert.Equal(t, "airborne_position", body["kind"])
	assert.Equal(t, "8d40621d58c386435cc412692ad6", body["hex"])
	assert.Equal(t, "2023-01-01T12:00:00Z", body["timestamp"])
	assert.InDelta(t, 56.3, body["range_km"].(float64), 1.0)

	pos := body["position"].(map[string]interface{})
	assert.InDelta(t, 52.26578, pos["lat"].(float64), 1e-9)
	assert.InDelta(t, 3.93891, pos["lon"].(float64), 1e-9)
	assert.EqualValues(t, 38000, pos["altitude"])

	// First frame of the pair has no position, so no range
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(fc.published[0].payload, &first))
	assert.NotContains(t, first, "range_km")
}

func TestPublishDefaultsPrefix(t *testing.T) {
	pub := newPublisher(&fakeClient{}, Config{}, nil, testLogger())
	rec := &adsb.Record{ICAO: 0xABC, Kind: adsb.KindVelocity}
	assert.Equal(t, "gomodes/000ABC/velocity", pub.Topic(rec))
}

func TestPublishNotConnected(t *testing.T) {
	fc := &fakeClient{token: &fakeToken{complete: true}}
	pub := newPublisher(fc, Config{}, nil, testLogger())

	err := pub.Publish(&adsb.Record{}, time.Now())
	require.Error(t, err)
	assert.Empty(t, fc.published)
}

func TestPublishErrors(t *testing.T) {
	rec := &adsb.Record{ICAO: 1}

	timeout := newPublisher(&fakeClient{connected: true, token: &fakeToken{}}, Config{}, nil, testLogger())
	assert.ErrorContains(t, timeout.Publish(rec, time.Now()), "timed out")

	brokerErr := errors.New("not authorized")
	failing := newPublisher(&fakeClient{connected: true, token: &fakeToken{complete: true, err: brokerErr}}, Config{}, nil, testLogger())
	assert.ErrorIs(t, failing.Publish(rec, time.Now()), brokerErr)
}

func TestClose(t *testing.T) {
	fc := &fakeClient{connected: true}
	newPublisher(fc, Config{}, nil, testLogger()).Close()
	assert.True(t, fc.disconnected)

	idle := &fakeClient{}
	newPublisher(idle, Config{}, nil, testLogger()).Close()
	assert.False(t, idle.disconnected)
}
