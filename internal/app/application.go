package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"gomodes/internal/adsb"
	"gomodes/internal/basestation"
	"gomodes/internal/beast"
	"gomodes/internal/iq"
	"gomodes/internal/metrics"
	"gomodes/internal/mqtt"
)

const beastReadSize = 4096

// Application represents the main application
type Application struct {
	config   Config
	logger   *logrus.Logger
	out      io.Writer
	receiver *mqtt.Receiver

	demodulator *adsb.Demodulator
	metrics     *metrics.Metrics
	baseStation *basestation.Writer
	jsonOut     *json.Encoder
	beastFile   *os.File
	beastOut    *beast.Encoder
	publisher   *mqtt.Publisher
	server      *http.Server

	// Stream-absolute index of the first sample of the current block
	sampleBase uint64

	wg  sync.WaitGroup
	now func() time.Time
}

// NewApplication creates a new application instance writing decoded output
// to out
func NewApplication(config Config, out io.Writer) *Application {
	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config:   config,
		logger:   logger,
		out:      out,
		receiver: config.Receiver(),
		now:      time.Now,
	}
}

// Logger returns the application logger
func (app *Application) Logger() *logrus.Logger {
	return app.logger
}

// Start runs until the input is exhausted or a shutdown signal arrives
func (app *Application) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}

// Run initializes the sinks and processes the input
func (app *Application) Run(ctx context.Context) error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting Mode S demodulator")

	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		app.shutdown()
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		app.shutdown()
	}()

	app.startBackground(ctx)

	for pass := 1; ; pass++ {
		if err := app.processInput(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				app.logger.Info("Received shutdown signal")
				return nil
			}
			return err
		}

		if !app.config.Loop || ctx.Err() != nil {
			break
		}
		app.logger.WithField("pass", pass).Debug("Input exhausted, replaying")
	}

	app.logStatistics()
	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	app.demodulator = adsb.NewDemodulator(app.config.Threshold, app.logger, app.config.Verbose)
	app.metrics = metrics.New(app.demodulator)

	switch app.config.Output {
	case OutputSBS:
		app.baseStation = basestation.NewWriter(app.out, app.logger)
	case OutputJSON:
		app.jsonOut = json.NewEncoder(app.out)
	}

	if app.config.BeastFile != "" {
		f, err := os.Create(app.config.BeastFile)
		if err != nil {
			return fmt.Errorf("failed to create beast output: %w", err)
		}
		app.beastFile = f
		app.beastOut = beast.NewEncoder(f, app.logger)
	}

	if app.config.MQTT.Broker != "" {
		publisher, err := mqtt.NewPublisher(app.config.MQTT, app.receiver, app.logger)
		if err != nil {
			return err
		}
		app.publisher = publisher
	}

	if app.config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.metrics.Handler())
		app.server = &http.Server{
			Addr:              app.config.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return nil
}

// startBackground starts the metrics server and statistics reporting
func (app *Application) startBackground(ctx context.Context) {
	if app.server != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.logger.WithField("addr", app.server.Addr).Info("Serving metrics")
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	if app.config.StatsInterval > 0 {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.reportStatistics(ctx)
		}()
	}
}

// processInput reads one pass over the input and demodulates every block
func (app *Application) processInput(ctx context.Context) error {
	if app.config.Format == FormatBeast {
		return app.processBeast(ctx)
	}

	reader, err := iq.Open(app.config.Input, app.config.Format, app.config.BlockSize, app.logger)
	if err != nil {
		return err
	}
	defer reader.Close()

	blocks := make(chan []complex128, 4)
	errCh := make(chan error, 1)
	go func() {
		defer close(blocks)
		errCh <- reader.Stream(ctx, blocks)
	}()

	for block := range blocks {
		app.processBlock(block)
	}

	return <-errCh
}

// processBlock demodulates one block and fans the records out to the sinks
func (app *Application) processBlock(block []complex128) {
	base := app.sampleBase
	app.sampleBase += uint64(len(block))

	records, err := app.demodulator.Execute(block)
	if errors.Is(err, adsb.ErrShortBlock) {
		app.logger.WithError(err).Debug("Skipping short block")
		return
	}

	now := app.now().UTC()
	for _, rec := range records {
		app.emit(rec, base, now)
	}
}

// processBeast reads one pass over a Beast recording and decodes every
// Mode S frame in it
func (app *Application) processBeast(ctx context.Context) error {
	input, err := iq.OpenInput(app.config.Input)
	if err != nil {
		return err
	}
	defer input.Close()

	app.logger.WithField("path", app.config.Input).Info("Opened Beast input")

	decoder := beast.NewDecoder(app.logger)
	buf := make([]byte, beastReadSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := input.Read(buf)
		if n > 0 {
			frames, err := decoder.Decode(buf[:n])
			if err != nil {
				return fmt.Errorf("failed to decode beast input: %w", err)
			}

			now := app.now().UTC()
			for _, frame := range frames {
				app.replayFrame(frame, now)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read beast input: %w", readErr)
		}
	}
}

// replayFrame validates one Beast frame and emits its record
func (app *Application) replayFrame(frame *beast.Message, now time.Time) {
	if !frame.IsModeS() {
		return
	}

	rec, err := app.demodulator.DecodeFrame(frame.Data)
	if err != nil {
		app.logger.WithError(err).WithFields(logrus.Fields{
			"icao": fmt.Sprintf("%06X", frame.GetICAO()),
			"df":   frame.GetDF(),
		}).Debug("Dropped Beast frame")
		return
	}

	rec.Confidence = beast.ConfidenceFromSignal(frame.Signal)
	app.emit(rec, frame.SampleIndex(), now)
}

// emit writes one record to every configured sink
func (app *Application) emit(rec *adsb.Record, base uint64, now time.Time) {
	app.metrics.ObserveRecord(rec)

	if app.config.Verbose {
		fields := logrus.Fields{
			"icao":       rec.ICAOString(),
			"kind":       rec.Kind,
			"offset":     rec.Offset,
			"confidence": fmt.Sprintf("%.1f", rec.Confidence),
		}
		if app.receiver != nil && rec.Position != nil {
			if km, ok := rec.Position.DistanceKm(app.receiver.Latitude, app.receiver.Longitude); ok {
				fields["range_km"] = fmt.Sprintf("%.1f", km)
			}
		}
		app.logger.WithFields(fields).Debug("Record")
	}

	if app.baseStation != nil {
		if err := app.baseStation.WriteRecord(rec, now); err != nil {
			app.sinkError("sbs", err)
		}
	}

	if app.jsonOut != nil {
		if err := app.jsonOut.Encode(rec); err != nil {
			app.sinkError("json", err)
		}
	}

	if app.beastOut != nil {
		if err := app.beastOut.WriteRecord(rec, base+uint64(rec.Offset)); err != nil {
			app.sinkError("beast", err)
		}
	}

	if app.publisher != nil {
		if err := app.publisher.Publish(rec, now); err != nil {
			app.sinkError("mqtt", err)
		}
	}
}

func (app *Application) sinkError(sink string, err error) {
	app.metrics.ObserveSinkError(sink)
	app.logger.WithError(err).WithField("sink", sink).Warn("Failed to write record")
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics(ctx context.Context) {
	ticker := time.NewTicker(app.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.logStatistics()
		}
	}
}

func (app *Application) logStatistics() {
	s := app.demodulator.Stats()

	successRate := 0.0
	if s.Preambles > 0 {
		successRate = float64(s.Messages) / float64(s.Preambles) * 100
	}

	app.logger.WithFields(logrus.Fields{
		"blocks":          s.Blocks,
		"samples":         s.Samples,
		"preambles":       s.Preambles,
		"phase_corrected": s.PhaseCorrected,
		"low_confidence":  s.LowConfidence,
		"bad_crc":         s.BadCRC,
		"messages":        s.Messages,
		"positions":       s.Positions,
		"success_rate":    fmt.Sprintf("%.2f%%", successRate),
	}).Info("Demodulation statistics")
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Debug("Shutting down application")

	if app.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.server.Shutdown(ctx); err != nil {
			app.logger.WithError(err).Warn("Metrics server shutdown failed")
		}
		cancel()
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	if app.publisher != nil {
		app.publisher.Close()
	}
	if app.beastFile != nil {
		if err := app.beastFile.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close beast output")
		}
	}

	app.logger.Debug("Shutdown completed")
}
