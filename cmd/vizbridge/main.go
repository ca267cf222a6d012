// Package main implements the entry point for vizbridge, a one-way bridge
// from a live robotics message bus to an external visualization sink.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/vizbridge/bridge"
	"github.com/c360/vizbridge/bus/natsbus"
	"github.com/c360/vizbridge/config"
	"github.com/c360/vizbridge/frames"
	"github.com/c360/vizbridge/metric"
	"github.com/c360/vizbridge/natsclient"
	"github.com/c360/vizbridge/sink/wsrecorder"
	"github.com/c360/vizbridge/tfbuffer"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "vizbridge"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	// Frame graph and transform history; empty tree disables TF handling
	graph, err := frames.Build(cfg.TF.Tree)
	if err != nil {
		return err
	}
	var buffer *tfbuffer.Buffer
	if graph.Len() > 0 {
		buffer = tfbuffer.New(graph)
	} else {
		graph = nil
	}

	registry := metric.NewMetricsRegistry()

	// Bus connection
	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithLogger(logger),
		natsclient.WithReconnect(cfg.NATS.MaxReconnects, cfg.NATS.ReconnectWait.Std()),
		natsclient.WithMetrics(registry.Metrics),
	)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	// Sink connection and session
	recorder, err := wsrecorder.New(cfg.Sink.URL,
		wsrecorder.WithLogger(logger),
		wsrecorder.WithMetrics(registry.Metrics),
		wsrecorder.WithRegistrar(registry),
	)
	if err != nil {
		return err
	}
	if err := recorder.StartSession(ctx, ""); err != nil {
		return err
	}
	defer func() { _ = recorder.Close() }()

	b, err := bridge.New(bridge.Dependencies{
		Config:   cfg,
		Bus:      natsbus.New(client, cfg.Discovery.Prefix, logger),
		Recorder: recorder,
		Graph:    graph,
		Buffer:   buffer,
		Logger:   logger,
		Metrics:  registry.Metrics,
	})
	if err != nil {
		return err
	}

	// One-time records before the live streams start
	if err := b.LogStatics(); err != nil {
		return err
	}

	if cfg.Metrics.Listen != "" {
		metricsServer := metric.NewServer(cfg.Metrics.Listen, "/metrics", registry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() { _ = metricsServer.Stop() }()
	}

	if err := b.Start(ctx); err != nil {
		return err
	}
	defer b.Stop()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", "signal", sig.String())
	return nil
}

func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting vizbridge",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}
