package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core bridge metrics shared across components.
type Metrics struct {
	// Message flow
	MessagesReceived  *prometheus.CounterVec
	MessagesForwarded *prometheus.CounterVec
	DecodeErrors      *prometheus.CounterVec
	TopicsSubscribed  prometheus.Gauge

	// Transform synchronization
	TFLookupFailures prometheus.Counter
	TFUpdatesSent    prometheus.Counter

	// Sink
	SinkRecordsSent prometheus.Counter
	SinkErrors      prometheus.Counter

	// NATS
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all core metrics
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of bus messages received",
			},
			[]string{"topic", "type"},
		),

		MessagesForwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "messages",
				Name:      "forwarded_total",
				Help:      "Total number of records forwarded to the sink",
			},
			[]string{"kind"},
		),

		DecodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "messages",
				Name:      "decode_errors_total",
				Help:      "Total number of payloads that failed to decode",
			},
			[]string{"topic"},
		),

		TopicsSubscribed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vizbridge",
				Subsystem: "discovery",
				Name:      "topics_subscribed",
				Help:      "Number of topics currently subscribed",
			},
		),

		TFLookupFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "tf",
				Name:      "lookup_failures_total",
				Help:      "Total number of failed transform lookups",
			},
		),

		TFUpdatesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "tf",
				Name:      "updates_sent_total",
				Help:      "Total number of transform updates sent to the sink",
			},
		),

		SinkRecordsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "sink",
				Name:      "records_sent_total",
				Help:      "Total number of records written to the sink connection",
			},
		),

		SinkErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "sink",
				Name:      "errors_total",
				Help:      "Total number of sink write failures",
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vizbridge",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vizbridge",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordMessageReceived increments the received message counter
func (c *Metrics) RecordMessageReceived(topic, messageType string) {
	c.MessagesReceived.WithLabelValues(topic, messageType).Inc()
}

// RecordMessageForwarded increments the forwarded record counter
func (c *Metrics) RecordMessageForwarded(kind string) {
	c.MessagesForwarded.WithLabelValues(kind).Inc()
}

// RecordDecodeError increments the decode error counter
func (c *Metrics) RecordDecodeError(topic string) {
	c.DecodeErrors.WithLabelValues(topic).Inc()
}

// RecordTopicsSubscribed updates the subscribed-topic gauge
func (c *Metrics) RecordTopicsSubscribed(n int) {
	c.TopicsSubscribed.Set(float64(n))
}

// RecordTFLookupFailure increments the transform lookup failure counter
func (c *Metrics) RecordTFLookupFailure() {
	c.TFLookupFailures.Inc()
}

// RecordTFUpdateSent increments the transform update counter
func (c *Metrics) RecordTFUpdateSent() {
	c.TFUpdatesSent.Inc()
}

// RecordSinkRecordSent increments the sink write counter
func (c *Metrics) RecordSinkRecordSent() {
	c.SinkRecordsSent.Inc()
}

// RecordSinkError increments the sink failure counter
func (c *Metrics) RecordSinkError() {
	c.SinkErrors.Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSReconnect increments the reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
