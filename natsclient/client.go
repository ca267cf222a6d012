// Package natsclient manages the bridge's NATS connection: connect with
// retry, subscription bookkeeping, and status tracking. The bridge uses core
// NATS pub/sub only; delivery ordering within a subject is preserved by the
// server.
package natsclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/vizbridge/errors"
	"github.com/c360/vizbridge/metric"
	"github.com/c360/vizbridge/pkg/retry"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusClosed
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client manages a NATS connection for the bridge.
type Client struct {
	url     string
	name    string
	status  atomic.Value // stores ConnectionStatus
	logger  *slog.Logger
	metrics *metric.Metrics

	maxReconnects int
	reconnectWait time.Duration
	retryConfig   retry.Config

	mu   sync.Mutex
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewClient creates an unconnected client for the given server URL.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("empty NATS URL: %w", errors.ErrInvalidConfig),
			"natsclient", "NewClient", "URL validation")
	}

	c := &Client{
		url:           url,
		name:          "vizbridge",
		logger:        slog.Default(),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		retryConfig:   retry.Quick(),
	}
	c.status.Store(StatusDisconnected)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	status, _ := c.status.Load().(ConnectionStatus)
	return status
}

// IsConnected reports whether the underlying connection is usable.
func (c *Client) IsConnected() bool {
	return c.Status() == StatusConnected
}

// Connect establishes the connection, retrying with backoff. The bridge
// cannot start without the bus, so callers treat a final failure as fatal.
func (c *Client) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)

	connectOnce := func() error {
		conn, err := nats.Connect(c.url,
			nats.Name(c.name),
			nats.MaxReconnects(c.maxReconnects),
			nats.ReconnectWait(c.reconnectWait),
			nats.DisconnectErrHandler(c.handleDisconnect),
			nats.ReconnectHandler(c.handleReconnect),
			nats.ClosedHandler(c.handleClosed),
		)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		return nil
	}

	if err := retry.Do(ctx, c.retryConfig, connectOnce); err != nil {
		c.setStatus(StatusDisconnected)
		return errors.WrapTransient(err, "natsclient", "Connect", "connecting to NATS")
	}

	c.setStatus(StatusConnected)
	if c.metrics != nil {
		c.metrics.RecordNATSStatus(true)
	}
	c.logger.Info("Connected to NATS", "url", c.url)
	return nil
}

// Subscribe registers a handler for a subject. The handler runs on the NATS
// delivery goroutine; per-subject ordering is preserved by the server.
func (c *Client) Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.WrapTransient(errors.ErrNoConnection, "natsclient", "Subscribe", "connection check")
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(ctx, msg.Data)
	})
	if err != nil {
		return errors.WrapTransient(
			fmt.Errorf("subject %q: %w", subject, err),
			"natsclient", "Subscribe", "NATS subscription")
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Publish sends data to a subject.
func (c *Client) Publish(subject string, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.WrapTransient(errors.ErrNoConnection, "natsclient", "Publish", "connection check")
	}

	if err := conn.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "natsclient", "Publish", "NATS publish")
	}
	return nil
}

// Close drains subscriptions and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil && !stderrors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	c.subs = nil

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.setStatus(StatusClosed)

	if len(errs) > 0 {
		return errors.Wrap(stderrors.Join(errs...), "natsclient", "Close", "unsubscribing")
	}
	return nil
}

func (c *Client) setStatus(status ConnectionStatus) {
	c.status.Store(status)
}

func (c *Client) handleDisconnect(_ *nats.Conn, err error) {
	c.setStatus(StatusReconnecting)
	if c.metrics != nil {
		c.metrics.RecordNATSStatus(false)
	}
	if err != nil {
		c.logger.Warn("NATS disconnected", "error", err)
	}
}

func (c *Client) handleReconnect(conn *nats.Conn) {
	c.setStatus(StatusConnected)
	if c.metrics != nil {
		c.metrics.RecordNATSReconnect()
		c.metrics.RecordNATSStatus(true)
	}
	url := c.url
	if conn != nil {
		url = conn.ConnectedUrl()
	}
	c.logger.Info("NATS reconnected", "url", url)
}

func (c *Client) handleClosed(_ *nats.Conn) {
	if c.Status() != StatusClosed {
		c.setStatus(StatusDisconnected)
	}
}
