package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/vizbridge/errors"
)

func TestNewMetricsRegistry_CoreMetricsRegistered(t *testing.T) {
	r := NewMetricsRegistry()
	require.NotNil(t, r.CoreMetrics())

	r.Metrics.RecordMessageReceived("/odom", "nav_msgs/Odometry")
	r.Metrics.RecordMessageForwarded("transform3d")
	r.Metrics.RecordTFLookupFailure()
	r.Metrics.RecordSinkRecordSent()
	r.Metrics.RecordNATSStatus(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.Metrics.MessagesReceived.WithLabelValues("/odom", "nav_msgs/Odometry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		r.Metrics.MessagesForwarded.WithLabelValues("transform3d")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.TFLookupFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.SinkRecordsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.NATSConnected))
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vizbridge_test_counter_total",
		Help: "test counter",
	})
	require.NoError(t, r.Register("bridge", "test_counter", counter))

	err := r.Register("bridge", "test_counter", counter)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestUnregister(t *testing.T) {
	r := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vizbridge_test_counter_total",
		Help: "test counter",
	})
	require.NoError(t, r.Register("bridge", "test_counter", counter))

	assert.True(t, r.Unregister("bridge", "test_counter"))
	assert.False(t, r.Unregister("bridge", "test_counter"))

	// Re-registration after unregister succeeds
	require.NoError(t, r.Register("bridge", "test_counter", counter))
}

func TestRecordTopicsSubscribed(t *testing.T) {
	r := NewMetricsRegistry()
	r.Metrics.RecordTopicsSubscribed(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(r.Metrics.TopicsSubscribed))
}
