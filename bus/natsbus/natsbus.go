// Package natsbus implements the message bus over NATS core subjects. Nodes
// announce their topics as JSON on <prefix>.announce and publish payloads on
// <prefix>.data.<topic> with slashes mapped to subject token separators.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/c360/vizbridge/bus"
	"github.com/c360/vizbridge/errors"
)

// Conn is the subset of the NATS client the bus needs.
type Conn interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
}

// announcement is the discovery payload nodes publish on <prefix>.announce.
type announcement struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Bus adapts NATS subjects to the bus interface.
type Bus struct {
	conn   Conn
	prefix string
	logger *slog.Logger

	mu      sync.RWMutex
	started bool
	topics  map[string]bus.TopicInfo // keyed by topic name
}

// New creates a bus over an established NATS connection.
func New(conn Conn, prefix string, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		conn:   conn,
		prefix: prefix,
		logger: logger,
		topics: make(map[string]bus.TopicInfo),
	}
}

// Start subscribes to the announce subject and begins collecting topics.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.mu.Unlock()

	subject := b.prefix + ".announce"
	if err := b.conn.Subscribe(ctx, subject, b.handleAnnouncement); err != nil {
		return errors.WrapTransient(
			fmt.Errorf("announce subject %q: %w", subject, err),
			"natsbus", "Start", "discovery subscription")
	}
	return nil
}

func (b *Bus) handleAnnouncement(_ context.Context, data []byte) {
	var ann announcement
	if err := json.Unmarshal(data, &ann); err != nil {
		b.logger.Warn("Malformed topic announcement", "error", err)
		return
	}
	if ann.Name == "" || ann.Type == "" {
		b.logger.Warn("Incomplete topic announcement", "name", ann.Name, "type", ann.Type)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.topics[ann.Name]; ok {
		return
	}
	b.topics[ann.Name] = bus.TopicInfo{Name: ann.Name, Type: ann.Type}
	b.logger.Debug("Discovered topic", "topic", ann.Name, "type", ann.Type)
}

// Topics returns the discovered topics sorted by name.
func (b *Bus) Topics() []bus.TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]bus.TopicInfo, 0, len(b.topics))
	for _, info := range b.topics {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subscribe attaches a handler to a topic's data subject.
func (b *Bus) Subscribe(ctx context.Context, topic string, h bus.Handler) error {
	subject := DataSubject(b.prefix, topic)
	if err := b.conn.Subscribe(ctx, subject, func(ctx context.Context, data []byte) {
		h(ctx, data)
	}); err != nil {
		return errors.WrapTransient(
			fmt.Errorf("topic %q (subject %q): %w", topic, subject, err),
			"natsbus", "Subscribe", "data subscription")
	}
	return nil
}

// Close is a no-op: the underlying connection is owned by the caller.
func (b *Bus) Close() error { return nil }

// DataSubject maps a slash-separated topic name onto its NATS data subject.
// "/camera/image" with prefix "ros" becomes "ros.data.camera.image".
func DataSubject(prefix, topic string) string {
	trimmed := strings.Trim(topic, "/")
	return prefix + ".data." + strings.ReplaceAll(trimmed, "/", ".")
}
