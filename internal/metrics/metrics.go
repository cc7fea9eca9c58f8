package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gomodes/internal/adsb"
)

const namespace = "gomodes"

// StatsSource is anything that can report demodulator counters
type StatsSource interface {
	Stats() adsb.Stats
}

// Metrics owns a private registry with the pipeline counters
type Metrics struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	sinkErrs *prometheus.CounterVec
}

// New registers the collectors for src
func New(src StatsSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Decoded records by kind",
		}, []string{"kind"}),
		sinkErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed writes by output sink",
		}, []string{"sink"}),
	}

	m.registry.MustRegister(
		m.records,
		m.sinkErrs,
		newStatsCollector(src),
		collectors.NewGoCollector(),
	)

	return m
}

// ObserveRecord counts one emitted record
func (m *Metrics) ObserveRecord(rec *adsb.Record) {
	m.records.WithLabelValues(rec.Kind.String()).Inc()
}

// ObserveSinkError counts one failed sink write
func (m *Metrics) ObserveSinkError(sink string) {
	m.sinkErrs.WithLabelValues(sink).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statsCollector exposes demodulator counters read at scrape time
type statsCollector struct {
	src   StatsSource
	descs map[string]*prometheus.Desc
}

func newStatsCollector(src StatsSource) *statsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "demod", name), help, nil, nil)
	}

	return &statsCollector{
		src: src,
		descs: map[string]*prometheus.Desc{
			"blocks":          desc("blocks_total", "Sample blocks processed"),
			"samples":         desc("samples_total", "I/Q samples processed"),
			"preambles":       desc("preambles_total", "Windows accepted by the preamble detector"),
			"phase_corrected": desc("phase_corrected_total", "Candidates that needed phase correction"),
			"low_confidence":  desc("low_confidence_total", "Candidates dropped below the confidence threshold"),
			"bad_crc":         desc("bad_crc_total", "Candidates rejected by CRC"),
			"messages":        desc("messages_total", "Messages that passed CRC"),
			"positions":       desc("positions_total", "Resolved CPR positions"),
		},
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	values := map[string]uint64{
		"blocks":          s.Blocks,
		"samples":         s.Samples,
		"preambles":       s.Preambles,
		"phase_corrected": s.PhaseCorrected,
		"low_confidence":  s.LowConfidence,
		"bad_crc":         s.BadCRC,
		"messages":        s.Messages,
		"positions":       s.Positions,
	}

	for key, v := range values {
		ch <- prometheus.MustNewConstMetric(c.descs[key], prometheus.CounterValue, float64(v))
	}
}
