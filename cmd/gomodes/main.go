package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gomodes/internal/app"
)

func main() {
	rootCmd := newRootCommand(os.Stdout, func(config app.Config) error {
		return app.NewApplication(config, os.Stdout).Start()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds flag values that do not map directly onto app.Config
type options struct {
	configPath  string
	receiverLat float64
	receiverLon float64
}

func newRootCommand(out io.Writer, run func(app.Config) error) *cobra.Command {
	config := app.DefaultConfig()
	var opts options

	rootCmd := &cobra.Command{
		Use:   "gomodes [input]",
		Short: "Mode S / ADS-B demodulator for recorded baseband",
		Long: `Mode S / ADS-B demodulator for 2 Msps baseband recordings.

Reads interleaved I/Q samples (rtl_sdr u8 or complex float32, optionally gzip
or zstd compressed), detects Mode S preambles, corrects sampling phase, slices
pulse-position bits, validates CRC and decodes extended squitter fields.
Decoded records are written as BaseStation (SBS) lines or JSON, and optionally
as Beast binary frames and MQTT messages. A Beast recording can be replayed
through the same decoder and sinks with --format beast.

Example usage:
  rtl_sdr -f 1090000000 -s 2000000 - | gomodes
  gomodes --format cf32 --beast-file out.beast capture.cf32.zst
  gomodes --format beast --output json out.beast`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion(out)
				return nil
			}

			if err := resolveConfig(cmd.Flags(), &config, opts); err != nil {
				return err
			}

			if len(args) == 1 {
				if cmd.Flags().Changed("input") {
					return fmt.Errorf("input given both as argument and --input")
				}
				config.Input = args[0]
			}

			if err := config.Validate(); err != nil {
				return err
			}

			return run(config)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file; flags given on the command line override it")
	flags.StringVarP(&config.Input, "input", "i", config.Input, "Input recording (- for stdin, .gz and .zst are decompressed)")
	flags.StringVarP(&config.Format, "format", "f", config.Format, "Input format (u8, cf32 samples, or beast to replay decoded frames)")
	flags.IntVarP(&config.BlockSize, "block-size", "b", config.BlockSize, "Samples per processing block")
	flags.Uint32VarP(&config.SampleRate, "sample-rate", "s", config.SampleRate, "Sample rate of the recording (Hz)")
	flags.Float64VarP(&config.Threshold, "threshold", "t", config.Threshold, "Minimum pulse confidence before CRC is attempted")
	flags.BoolVar(&config.Loop, "loop", false, "Replay the input until interrupted")
	flags.StringVarP(&config.Output, "output", "o", config.Output, "Stdout format (sbs, json, none)")
	flags.StringVar(&config.BeastFile, "beast-file", "", "Write Beast binary frames to this file")
	flags.StringVar(&config.MQTT.Broker, "mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	flags.StringVar(&config.MQTT.TopicPrefix, "mqtt-topic", config.MQTT.TopicPrefix, "MQTT topic prefix")
	flags.Uint8Var(&config.MQTT.QoS, "mqtt-qos", 0, "MQTT QoS level")
	flags.BoolVar(&config.MQTT.Retain, "mqtt-retain", false, "Publish retained MQTT messages")
	flags.StringVar(&config.MQTT.Username, "mqtt-username", "", "MQTT username")
	flags.StringVar(&config.MQTT.Password, "mqtt-password", "", "MQTT password")
	flags.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	flags.Float64Var(&opts.receiverLat, "receiver-lat", 0, "Receiver latitude for range reporting")
	flags.Float64Var(&opts.receiverLon, "receiver-lon", 0, "Receiver longitude for range reporting")
	flags.DurationVar(&config.StatsInterval, "stats-interval", config.StatsInterval, "Statistics report interval (0 disables)")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVar(&config.ShowVersion, "version", false, "Show version information")

	return rootCmd
}

// resolveConfig loads the config file, then re-applies every flag that was
// set explicitly so the command line wins
func resolveConfig(flags *pflag.FlagSet, config *app.Config, opts options) error {
	if opts.configPath != "" {
		changed := make(map[string]string)
		flags.Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})

		if err := app.LoadFile(opts.configPath, config); err != nil {
			return err
		}

		for name, value := range changed {
			if err := flags.Set(name, value); err != nil {
				return fmt.Errorf("failed to re-apply --%s: %w", name, err)
			}
		}
	}

	if flags.Changed("receiver-lat") {
		lat := opts.receiverLat
		config.ReceiverLat = &lat
	}
	if flags.Changed("receiver-lon") {
		lon := opts.receiverLon
		config.ReceiverLon = &lon
	}

	return nil
}
