// Package wsrecorder implements the sink recorder over a websocket
// connection. Every record travels as one JSON text frame; the viewer applies
// frames in arrival order, which preserves the bridge's per-topic ordering.
package wsrecorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/vizbridge/errors"
	"github.com/c360/vizbridge/metric"
	"github.com/c360/vizbridge/pkg/retry"
	"github.com/c360/vizbridge/sink"
)

const (
	opStartSession = "start_session"
	opLog          = "log"
)

const (
	metricComponent     = "wsrecorder"
	writeDurationMetric = "write_duration_seconds"
)

// Registrar registers component-owned collectors. *metric.MetricsRegistry
// satisfies it.
type Registrar interface {
	Register(component, name string, collector prometheus.Collector) error
	Unregister(component, name string) bool
}

// envelope is the wire frame for one record or control message.
type envelope struct {
	Op         string          `json:"op"`
	SessionID  string          `json:"session_id,omitempty"`
	EntityPath string          `json:"entity_path,omitempty"`
	Time       *float64        `json:"time,omitempty"`
	Static     bool            `json:"static,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Recorder is a websocket-backed sink.
type Recorder struct {
	url         string
	logger      *slog.Logger
	metrics     *metric.Metrics
	retryConfig retry.Config

	registrar     Registrar
	writeDuration prometheus.Histogram

	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches the core bridge metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithRegistrar registers the recorder's own collectors with the given
// registry. They are unregistered again on Close.
func WithRegistrar(reg Registrar) Option {
	return func(r *Recorder) { r.registrar = reg }
}

// WithRetryConfig overrides the dial retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(r *Recorder) { r.retryConfig = cfg }
}

// New creates an unconnected recorder for the given websocket URL.
func New(url string, opts ...Option) (*Recorder, error) {
	if url == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("empty sink URL: %w", errors.ErrInvalidConfig),
			"wsrecorder", "New", "URL validation")
	}

	r := &Recorder{
		url:         url,
		logger:      slog.Default(),
		retryConfig: retry.Quick(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.registrar != nil {
		r.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vizbridge",
			Subsystem: metricComponent,
			Name:      writeDurationMetric,
			Help:      "Time spent writing one frame to the sink connection",
			Buckets:   prometheus.DefBuckets,
		})
		if err := r.registrar.Register(metricComponent, writeDurationMetric, r.writeDuration); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// StartSession dials the sink and opens a recording session. An empty id gets
// a generated one.
func (r *Recorder) StartSession(ctx context.Context, id string) error {
	if id == "" {
		id = uuid.NewString()
	}

	dial := func() error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.conn = conn
		r.mu.Unlock()
		return nil
	}

	if err := retry.Do(ctx, r.retryConfig, dial); err != nil {
		return errors.WrapTransient(
			fmt.Errorf("sink %q: %w", r.url, err),
			"wsrecorder", "StartSession", "dialing sink")
	}

	if err := r.send(envelope{Op: opStartSession, SessionID: id}); err != nil {
		return err
	}

	r.mu.Lock()
	r.sessionID = id
	r.mu.Unlock()

	r.logger.Info("Recording session started", "session_id", id, "sink", r.url)
	return nil
}

// Log places a record at entityPath at the given session-relative time.
func (r *Recorder) Log(entityPath string, rec sink.Record, t float64) error {
	return r.log(entityPath, rec, &t, false)
}

// LogStatic places a one-time record not associated with the timeline.
func (r *Recorder) LogStatic(entityPath string, rec sink.Record) error {
	return r.log(entityPath, rec, nil, true)
}

func (r *Recorder) log(entityPath string, rec sink.Record, t *float64, static bool) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.WrapInvalid(err, "wsrecorder", "Log", "encoding record")
	}

	return r.send(envelope{
		Op:         opLog,
		EntityPath: entityPath,
		Time:       t,
		Static:     static,
		Kind:       rec.Kind(),
		Data:       data,
	})
}

func (r *Recorder) send(env envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return errors.WrapTransient(errors.ErrSessionNotOpen, "wsrecorder", "send", "connection check")
	}
	if env.Op == opLog && r.sessionID == "" {
		return errors.WrapTransient(errors.ErrSessionNotOpen, "wsrecorder", "send", "session check")
	}

	start := time.Now()
	err := r.conn.WriteJSON(env)
	if r.writeDuration != nil {
		r.writeDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordSinkError()
		}
		return errors.WrapTransient(err, "wsrecorder", "send", "writing frame")
	}

	if r.metrics != nil && env.Op == opLog {
		r.metrics.RecordSinkRecordSent()
	}
	return nil
}

// Close sends a close frame, unregisters the recorder's collectors, and
// releases the connection.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registrar != nil {
		r.registrar.Unregister(metricComponent, writeDurationMetric)
		r.registrar = nil
	}

	if r.conn == nil {
		return nil
	}

	_ = r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := r.conn.Close()
	r.conn = nil
	r.sessionID = ""

	if err != nil {
		return errors.Wrap(err, "wsrecorder", "Close", "closing connection")
	}
	return nil
}
