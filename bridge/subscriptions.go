package bridge

import (
	"context"
	"time"

	"github.com/c360/vizbridge/bus"
	"github.com/c360/vizbridge/entitypath"
	"github.com/c360/vizbridge/message"
)

// handlerFactory builds a topic handler closed over its resolved entity path.
// mapped reports whether the path came from an explicit configuration entry.
type handlerFactory func(topic, path string, mapped bool) bus.Handler

// buildRegistry maps message type tags to handler factories. Built once;
// read-only afterwards. The TF handler is registered only when a frame tree
// is configured.
func (b *Bridge) buildRegistry() map[string]handlerFactory {
	registry := map[string]handlerFactory{
		message.TypeImage:       b.imageHandler,
		message.TypeImu:         b.imuHandler,
		message.TypePoseStamped: b.poseHandler,
		message.TypeOdometry:    b.odometryHandler,
		message.TypeCameraInfo:  b.cameraInfoHandler,
	}
	if b.graph != nil {
		registry[message.TypeTFMessage] = b.tfHandler
	}
	return registry
}

func (b *Bridge) discoveryLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.Discovery.Interval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.discoverOnce(ctx)
		}
	}
}

// discoverOnce subscribes to every visible topic with a supported type that
// has not been seen before. Unseen to subscribed is a terminal transition:
// subscriptions are never removed.
func (b *Bridge) discoverOnce(ctx context.Context) {
	for _, topic := range b.bus.Topics() {
		if _, ok := b.subscribed[topic.Name]; ok {
			continue
		}
		factory, ok := b.registry[topic.Type]
		if !ok {
			continue
		}

		path, mapped := b.resolvePath(topic.Name)
		if err := b.bus.Subscribe(ctx, topic.Name, factory(topic.Name, path, mapped)); err != nil {
			// Transient: the next tick retries.
			if b.warnGate.Allow("subscribe:" + topic.Name) {
				b.logger.Warn("Subscription failed", "topic", topic.Name, "error", err)
			}
			continue
		}

		b.subscribed[topic.Name] = struct{}{}
		b.metrics.RecordTopicsSubscribed(len(b.subscribed))
		b.logger.Info("Subscribed to topic",
			"topic", topic.Name, "type", topic.Type, "entity_path", path)
	}
}

func (b *Bridge) resolvePath(topic string) (path string, mapped bool) {
	if p, ok := b.cfg.TopicToEntityPath[topic]; ok {
		return p, true
	}
	return entitypath.Resolve(topic, nil), false
}
