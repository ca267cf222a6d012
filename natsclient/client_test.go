package natsclient

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/vizbridge/errors"
	"github.com/c360/vizbridge/metric"
	"github.com/c360/vizbridge/pkg/retry"
)

func TestNewClient_EmptyURL(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "vizbridge", c.name)
	assert.Equal(t, -1, c.maxReconnects)
	assert.Equal(t, 2*time.Second, c.reconnectWait)
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.False(t, c.IsConnected())
}

func TestNewClient_Options(t *testing.T) {
	logger := slog.Default()
	c, err := NewClient("nats://localhost:4222",
		WithName("bridge-7"),
		WithLogger(logger),
		WithReconnect(5, 500*time.Millisecond),
		WithRetryConfig(retry.Config{MaxAttempts: 1}),
	)
	require.NoError(t, err)

	assert.Equal(t, "bridge-7", c.name)
	assert.Same(t, logger, c.logger)
	assert.Equal(t, 5, c.maxReconnects)
	assert.Equal(t, 500*time.Millisecond, c.reconnectWait)
	assert.Equal(t, 1, c.retryConfig.MaxAttempts)
}

func TestNewClient_OptionsIgnoreZeroValues(t *testing.T) {
	c, err := NewClient("nats://localhost:4222",
		WithName(""),
		WithLogger(nil),
		WithReconnect(3, 0),
	)
	require.NoError(t, err)

	assert.Equal(t, "vizbridge", c.name)
	assert.NotNil(t, c.logger)
	assert.Equal(t, 3, c.maxReconnects)
	assert.Equal(t, 2*time.Second, c.reconnectWait)
}

func TestSubscribe_WithoutConnection(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Subscribe(context.Background(), "ros.announce", func(context.Context, []byte) {})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.ErrorIs(t, err, errors.ErrNoConnection)
}

func TestPublish_WithoutConnection(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Publish("ros.announce", []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoConnection)
}

func TestClose_WithoutConnection(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.Equal(t, StatusClosed, c.Status())
}

func TestReconnectHandlers_RecordMetrics(t *testing.T) {
	m := metric.NewMetrics()
	c, err := NewClient("nats://localhost:4222", WithMetrics(m))
	require.NoError(t, err)

	c.handleDisconnect(nil, nil)
	assert.Equal(t, StatusReconnecting, c.Status())
	assert.Equal(t, float64(0), testutil.ToFloat64(m.NATSConnected))

	c.handleReconnect(nil)
	assert.Equal(t, StatusConnected, c.Status())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NATSConnected))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NATSReconnects))

	c.handleDisconnect(nil, nil)
	c.handleReconnect(nil)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.NATSReconnects))
}

func TestConnectionStatus_String(t *testing.T) {
	testCases := []struct {
		status ConnectionStatus
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusReconnecting, "reconnecting"},
		{StatusClosed, "closed"},
		{ConnectionStatus(99), "unknown"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.status.String())
	}
}
