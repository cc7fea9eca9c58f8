package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gomodes/internal/adsb"
)

const publishTimeout = 5 * time.Second

// Config holds broker settings for the record publisher
type Config struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// Receiver is the fixed antenna position used for range reporting
type Receiver struct {
	Latitude  float64
	Longitude float64
}

// client is the subset of paho.Client the publisher uses
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher sends decoded records to an MQTT broker as JSON
type Publisher struct {
	client   client
	config   Config
	receiver *Receiver
	logger   *logrus.Logger
}

// RecordMessage is the JSON payload of one published record
type RecordMessage struct {
	*adsb.Record
	Timestamp time.Time `json:"timestamp"`
	RangeKm   *float64  `json:"range_km,omitempty"`
}

// NewPublisher connects to the broker
func NewPublisher(config Config, receiver *Receiver, logger *logrus.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID("gomodes_" + uuid.NewString())

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(paho.Client) {
		logger.WithField("broker", config.Broker).Info("MQTT connected")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	})

	c := paho.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", config.Broker, token.Error())
	}

	return newPublisher(c, config, receiver, logger), nil
}

func newPublisher(c client, config Config, receiver *Receiver, logger *logrus.Logger) *Publisher {
	if config.TopicPrefix == "" {
		config.TopicPrefix = "gomodes"
	}
	return &Publisher{
		client:   c,
		config:   config,
		receiver: receiver,
		logger:   logger,
	}
}

// Topic returns {prefix}/{icao}/{kind}
func (p *Publisher) Topic(rec *adsb.Record) string {
	return fmt.Sprintf("%s/%s/%s", p.config.TopicPrefix, rec.ICAOString(), rec.Kind)
}

// Payload builds the JSON body for rec
func (p *Publisher) Payload(rec *adsb.Record, now time.Time) ([]byte, error) {
	msg := RecordMessage{Record: rec, Timestamp: now.UTC()}

	if p.receiver != nil && rec.Position != nil {
		if km, ok := rec.Position.DistanceKm(p.receiver.Latitude, p.receiver.Longitude); ok {
			msg.RangeKm = &km
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// Publish sends rec and waits for the broker acknowledgement
func (p *Publisher) Publish(rec *adsb.Record, now time.Time) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("MQTT not connected")
	}

	data, err := p.Payload(rec, now)
	if err != nil {
		return err
	}

	topic := p.Topic(rec)
	token := p.client.Publish(topic, p.config.QoS, p.config.Retain, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.WithField("topic", topic).Trace("Published record")
	return nil
}

// Close disconnects from the broker
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.logger.Info("MQTT disconnected")
	}
}
