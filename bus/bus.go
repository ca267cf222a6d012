// Package bus abstracts the robotics message bus the bridge consumes:
// enumerate visible topics with their type tags and subscribe to raw payload
// streams. Implementations live in subpackages.
package bus

import "context"

// TopicInfo describes one visible topic.
type TopicInfo struct {
	Name string
	Type string
}

// Handler receives the raw payload of one message. Handlers run on the bus
// delivery goroutine; per-topic ordering follows the transport's guarantees.
type Handler func(ctx context.Context, data []byte)

// Bus is the consumed message-bus interface.
type Bus interface {
	// Start begins topic discovery. Must be called before Topics.
	Start(ctx context.Context) error

	// Topics returns a snapshot of the currently visible topics, sorted by
	// name. Topics may appear at any time; the set only grows.
	Topics() []TopicInfo

	// Subscribe registers a handler for a topic's payload stream.
	Subscribe(ctx context.Context, topic string, h Handler) error

	// Close releases transport resources.
	Close() error
}
