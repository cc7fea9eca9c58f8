package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gomodes/internal/adsb"
	"gomodes/internal/iq"
	"gomodes/internal/mqtt"
)

// Stdout output modes
const (
	OutputSBS  = "sbs"
	OutputJSON = "json"
	OutputNone = "none"
)

// FormatBeast replays Beast binary frames instead of demodulating samples
const FormatBeast = "beast"

// Default configuration constants
const (
	DefaultInput         = "-"
	DefaultFormat        = iq.FormatU8
	DefaultBlockSize     = iq.DefaultBlockSize
	DefaultSampleRate    = adsb.SampleRate
	DefaultOutput        = OutputSBS
	DefaultTopicPrefix   = "gomodes"
	DefaultStatsInterval = 30 * time.Second
)

// Config holds application configuration
type Config struct {
	Input      string  `yaml:"input"`
	Format     string  `yaml:"format"`
	BlockSize  int     `yaml:"block_size"`
	SampleRate uint32  `yaml:"sample_rate"`
	Threshold  float64 `yaml:"confidence_threshold"`
	Loop       bool    `yaml:"loop"`

	Output      string      `yaml:"output"`
	BeastFile   string      `yaml:"beast_file"`
	MQTT        mqtt.Config `yaml:"mqtt"`
	MetricsAddr string      `yaml:"metrics_addr"`

	ReceiverLat *float64 `yaml:"receiver_lat"`
	ReceiverLon *float64 `yaml:"receiver_lon"`

	StatsInterval time.Duration `yaml:"stats_interval"`
	Verbose       bool          `yaml:"verbose"`
	ShowVersion   bool          `yaml:"-"`
}

// DefaultConfig returns a config with every default applied
func DefaultConfig() Config {
	return Config{
		Input:         DefaultInput,
		Format:        DefaultFormat,
		BlockSize:     DefaultBlockSize,
		SampleRate:    DefaultSampleRate,
		Threshold:     adsb.DefaultConfidenceThreshold,
		Output:        DefaultOutput,
		MQTT:          mqtt.Config{TopicPrefix: DefaultTopicPrefix},
		StatsInterval: DefaultStatsInterval,
	}
}

// LoadFile overlays the YAML file at path onto cfg
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Validate checks the configuration before any component starts
func (c Config) Validate() error {
	if c.SampleRate != adsb.SampleRate {
		return fmt.Errorf("sample rate must be %d, got %d", adsb.SampleRate, c.SampleRate)
	}

	if c.BlockSize < adsb.FullLenSamples {
		return fmt.Errorf("block size must be at least %d samples, got %d", adsb.FullLenSamples, c.BlockSize)
	}

	if c.Format != FormatBeast {
		if _, err := iq.BytesPerSample(c.Format); err != nil {
			return err
		}
	}

	switch c.Output {
	case OutputSBS, OutputJSON, OutputNone:
	default:
		return fmt.Errorf("unknown output mode %q", c.Output)
	}

	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}

	if c.Loop && c.Input == "-" {
		return fmt.Errorf("cannot loop over stdin")
	}

	if (c.ReceiverLat == nil) != (c.ReceiverLon == nil) {
		return fmt.Errorf("receiver latitude and longitude must be set together")
	}

	if c.ReceiverLat != nil && (*c.ReceiverLat < -90 || *c.ReceiverLat > 90) {
		return fmt.Errorf("receiver latitude %f out of range", *c.ReceiverLat)
	}

	if c.ReceiverLon != nil && (*c.ReceiverLon < -180 || *c.ReceiverLon > 180) {
		return fmt.Errorf("receiver longitude %f out of range", *c.ReceiverLon)
	}

	if c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT QoS must be 0, 1 or 2")
	}

	if c.StatsInterval < 0 {
		return fmt.Errorf("stats interval cannot be negative")
	}

	return nil
}

// Receiver returns the antenna position, or nil when none is configured
func (c Config) Receiver() *mqtt.Receiver {
	if c.ReceiverLat == nil || c.ReceiverLon == nil {
		return nil
	}
	return &mqtt.Receiver{Latitude: *c.ReceiverLat, Longitude: *c.ReceiverLon}
}
