package natsclient

import (
	"log/slog"
	"time"

	"github.com/c360/vizbridge/metric"
	"github.com/c360/vizbridge/pkg/retry"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithName sets the connection name advertised to the server.
func WithName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics wires connection status and reconnect counts into the
// bridge's metrics.
func WithMetrics(m *metric.Metrics) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithReconnect configures the NATS-level reconnect behavior.
func WithReconnect(maxReconnects int, wait time.Duration) ClientOption {
	return func(c *Client) {
		c.maxReconnects = maxReconnects
		if wait > 0 {
			c.reconnectWait = wait
		}
	}
}

// WithRetryConfig overrides the initial-connect retry policy.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retryConfig = cfg
	}
}
