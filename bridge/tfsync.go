package bridge

import (
	"context"
	"time"

	"github.com/c360/vizbridge/sink"
)

func (b *Bridge) tfSyncLoop(ctx context.Context) {
	defer b.wg.Done()

	period := time.Duration(float64(time.Second) / b.cfg.TF.UpdateRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.tfSyncOnce()
		}
	}
}

// tfSyncOnce refreshes every tree edge once. Lookups run slightly in the
// past (the configured lookback) so both bracketing samples usually exist.
// A failing frame is skipped for this tick only.
func (b *Bridge) tfSyncOnce() {
	now := b.now()
	at := now.Add(-b.cfg.TF.Lookback.Std())
	t := b.clock.Normalize(now)

	for _, node := range b.graph.Nodes() {
		if node.Parent == "" {
			continue
		}

		tf, err := b.buffer.Lookup(node.Parent, node.Name, at, b.cfg.TF.Tolerance.Std())
		if err != nil {
			b.metrics.RecordTFLookupFailure()
			if b.warnGate.Allow("tfsync:" + node.Name) {
				b.logger.Warn("Transform lookup failed",
					"frame", node.Name, "parent", node.Parent, "error", err)
			}
			continue
		}

		b.forward(node.EntityPath, sink.FromTransform(tf), t)
		b.metrics.RecordTFUpdateSent()
	}
}
