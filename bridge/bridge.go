// Package bridge wires the message bus to the visualization sink: it
// discovers typed topics, dispatches payloads through per-type handlers, and
// runs the fixed-rate transform synchronization loop.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/c360/vizbridge/bus"
	"github.com/c360/vizbridge/config"
	"github.com/c360/vizbridge/errors"
	"github.com/c360/vizbridge/frames"
	"github.com/c360/vizbridge/metric"
	"github.com/c360/vizbridge/pkg/throttle"
	"github.com/c360/vizbridge/sink"
	"github.com/c360/vizbridge/tfbuffer"
	"github.com/c360/vizbridge/timeline"
)

// warnInterval rate-limits repeated warnings for the same failing topic or
// frame.
const warnInterval = time.Second

// Dependencies holds everything the bridge needs to run.
type Dependencies struct {
	Config   *config.Config
	Bus      bus.Bus
	Recorder sink.Recorder

	// Graph and Buffer are nil when the configuration has no frame tree; the
	// TF handler and synchronization loop are disabled in that case.
	Graph  *frames.Graph
	Buffer *tfbuffer.Buffer

	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// Bridge is the bus-to-sink forwarding core.
type Bridge struct {
	cfg     *config.Config
	bus     bus.Bus
	rec     sink.Recorder
	graph   *frames.Graph
	buffer  *tfbuffer.Buffer
	logger  *slog.Logger
	metrics *metric.Metrics

	clock    *timeline.Normalizer
	warnGate *throttle.Gate
	registry map[string]handlerFactory

	// subscribed is mutated only by the discovery goroutine.
	subscribed map[string]struct{}

	now    func() time.Time
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New validates the dependencies and builds the type-dispatch registry.
func New(deps Dependencies) (*Bridge, error) {
	if deps.Config == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("nil config: %w", errors.ErrMissingConfig),
			"bridge", "New", "dependency validation")
	}
	if deps.Bus == nil || deps.Recorder == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("bus and recorder are required: %w", errors.ErrMissingConfig),
			"bridge", "New", "dependency validation")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metric.NewMetrics()
	}

	b := &Bridge{
		cfg:        deps.Config,
		bus:        deps.Bus,
		rec:        deps.Recorder,
		graph:      deps.Graph,
		buffer:     deps.Buffer,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		clock:      timeline.New(),
		warnGate:   throttle.New(warnInterval),
		subscribed: make(map[string]struct{}),
		now:        time.Now,
	}
	b.registry = b.buildRegistry()
	return b, nil
}

// Start launches the discovery and synchronization goroutines. It returns
// once they are running; Stop shuts them down.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.bus.Start(ctx); err != nil {
		return errors.Wrap(err, "bridge", "Start", "starting bus discovery")
	}

	ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go b.discoveryLoop(ctx)

	if b.cfg.TF.UpdateRate > 0 && b.graph != nil {
		b.wg.Add(1)
		go b.tfSyncLoop(ctx)
	}

	b.logger.Info("Bridge started",
		"discovery_interval", b.cfg.Discovery.Interval.Std(),
		"tf_update_rate", b.cfg.TF.UpdateRate)
	return nil
}

// Stop cancels the loops and waits for them to exit.
func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	b.logger.Info("Bridge stopped")
}

// LogStatics forwards the configured one-time records: extra transforms,
// pinhole calibrations, and the robot model asset.
func (b *Bridge) LogStatics() error {
	for _, tf := range b.cfg.ExtraTransforms {
		if err := b.rec.LogStatic(tf.EntityPath, tf.Record()); err != nil {
			return errors.Wrap(err, "bridge", "LogStatics", "logging extra transform")
		}
		b.metrics.RecordMessageForwarded("transform3d")
	}

	for _, ph := range b.cfg.ExtraPinholes {
		if err := b.rec.LogStatic(ph.EntityPath, ph.Record()); err != nil {
			return errors.Wrap(err, "bridge", "LogStatics", "logging extra pinhole")
		}
		b.metrics.RecordMessageForwarded("pinhole")
	}

	if b.cfg.URDF.FilePath != "" {
		path, err := config.ResolveModelPath(b.cfg.URDF.FilePath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.WrapFatal(err, "bridge", "LogStatics", "reading robot model")
		}
		if err := b.rec.LogStatic(b.cfg.URDF.EntityPath, sink.Asset{
			MediaType: "model/urdf+xml",
			Data:      data,
		}); err != nil {
			return errors.Wrap(err, "bridge", "LogStatics", "logging robot model")
		}
		b.metrics.RecordMessageForwarded("asset")
		b.logger.Info("Robot model logged", "entity_path", b.cfg.URDF.EntityPath, "file", path)
	}

	return nil
}
