// Package vizbridge is a one-way, best-effort bridge from a live robotics
// message bus to an external visualization and logging sink.
//
// The bridge discovers typed topics at runtime, converts each supported
// message type into a timestamped record, and maintains a coordinate frame
// tree so every record can be placed consistently in 3D space.
//
// # Architecture
//
//	┌──────────────┐   announce + data subjects   ┌──────────────┐
//	│  NATS bus    │ ───────────────────────────→ │    bridge    │
//	│  (natsbus)   │                               │  dispatch +  │
//	└──────────────┘                               │   TF sync    │
//	                                               └──────┬───────┘
//	                                                      │ JSON records
//	                                               ┌──────▼───────┐
//	                                               │  sink        │
//	                                               │ (wsrecorder) │
//	                                               └──────────────┘
//
// # Packages
//
// Domain:
//   - bridge: topic discovery, per-type handlers, transform synchronization
//   - bus, bus/natsbus: message bus abstraction and its NATS implementation
//   - sink, sink/wsrecorder: record types and the websocket recorder
//   - message: typed bus payloads (images, IMU, poses, odometry, TF batches)
//   - frames: immutable coordinate frame tree
//   - tfbuffer: interpolating transform history
//   - entitypath: topic name to entity path resolution
//   - timeline: session-relative timestamp normalization
//
// Infrastructure:
//   - config: YAML configuration with validation and env overrides
//   - natsclient: NATS connection management
//   - metric: Prometheus metrics
//   - errors: classified error handling
//   - pkg/retry: backoff policies
//   - pkg/throttle: rate-limited warnings
//
// # Binary
//
// Build and run the bridge:
//
//	go build ./cmd/vizbridge
//	./vizbridge --config configs/bridge.yaml
//
// The process runs until SIGINT/SIGTERM and exits non-zero only when startup
// fails; runtime message and lookup failures are logged and skipped.
package vizbridge
