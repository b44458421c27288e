// cmd/roastcraft/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/logging"
	"github.com/roastcraft/roastcraft-daq/internal/poller"
	"github.com/roastcraft/roastcraft-daq/internal/server"
	"github.com/roastcraft/roastcraft-daq/internal/writer"
	wmqtt "github.com/roastcraft/roastcraft-daq/internal/writer/mqtt"
	"github.com/roastcraft/roastcraft-daq/internal/writer/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:   "roastcraft",
		Usage:  "acquire roaster temperatures and publish them to the UI",
		Flags:  flags(),
		Action: run,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "machine configuration file (.toml or .yaml)",
			Value:   "roastcraft.toml",
			EnvVars: []string{"ROASTCRAFT_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "trace, debug, info, warn or error",
			Value:   "info",
			EnvVars: []string{"ROASTCRAFT_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "address of the control API and websocket",
			Value:   "127.0.0.1:8080",
			EnvVars: []string{"ROASTCRAFT_LISTEN"},
		},
		&cli.BoolFlag{
			Name:    "autostart",
			Usage:   "start acquisition right away",
			EnvVars: []string{"ROASTCRAFT_AUTOSTART"},
		},
		&cli.StringFlag{
			Name:    "mirror-endpoint",
			Usage:   "Modbus TCP endpoint (host:port) mirroring readings and status; empty disables",
			EnvVars: []string{"ROASTCRAFT_MIRROR_ENDPOINT"},
		},
		&cli.UintFlag{
			Name:    "mirror-unit-id",
			Value:   1,
			EnvVars: []string{"ROASTCRAFT_MIRROR_UNIT_ID"},
		},
		&cli.UintFlag{
			Name:    "mirror-status-slot",
			Usage:   "status block lives at slot*20",
			EnvVars: []string{"ROASTCRAFT_MIRROR_STATUS_SLOT"},
		},
		&cli.UintFlag{
			Name:    "mirror-data-address",
			Usage:   "first holding register of the channel values",
			Value:   100,
			EnvVars: []string{"ROASTCRAFT_MIRROR_DATA_ADDRESS"},
		},
		&cli.DurationFlag{
			Name:    "mirror-timeout",
			Value:   2 * time.Second,
			EnvVars: []string{"ROASTCRAFT_MIRROR_TIMEOUT"},
		},
	}
}

func run(c *cli.Context) error {
	logger, err := logging.New(c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	hub := ws.NewHub(logger)

	// --------------------
	// Machine config: a broken file is reported, not fatal
	// --------------------

	cfgPath := c.String("config")
	cfg, loadErr := config.Load(cfgPath)
	if loadErr != nil {
		logger.Error("config load failed, acquisition unavailable", zap.String("path", cfgPath), zap.Error(loadErr))
		// kept by the hub for UI clients that attach later
		hub.Notify(fmt.Sprintf("config load failed: %v", loadErr))
	} else {
		logger.Info("config loaded",
			zap.String("path", cfgPath),
			zap.String("brand", cfg.Brand),
			zap.String("model", cfg.Model),
			zap.Strings("channels", cfg.Channels()),
		)
	}

	// --------------------
	// Sinks
	// --------------------

	mqttCfg, err := wmqtt.LoadConfig()
	if err != nil {
		return fmt.Errorf("mqtt settings: %w", err)
	}

	opts := writer.Options{
		Channels: cfg.Channels(),
		Hub:      hub,
		MQTT:     mqttCfg,
		Logger:   logger,
	}
	if ep := c.String("mirror-endpoint"); ep != "" {
		var model string
		if cfg != nil {
			model = cfg.Model
		}
		opts.Mirror = &writer.MirrorOptions{
			Endpoint:    ep,
			UnitID:      uint8(c.Uint("mirror-unit-id")),
			Timeout:     c.Duration("mirror-timeout"),
			DataAddress: uint16(c.Uint("mirror-data-address")),
			StatusSlot:  uint16(c.Uint("mirror-status-slot")),
			DeviceName:  model,
		}
	}

	sinks, statusWriter, closeSinks, err := writer.Build(opts)
	if err != nil {
		return fmt.Errorf("sinks: %w", err)
	}
	defer func() {
		if err := closeSinks(); err != nil {
			logger.Warn("closing sinks", zap.Error(err))
		}
	}()

	// --------------------
	// Supervisor + control surface
	// --------------------

	pollerOpts := []poller.Option{
		poller.WithWriter(sinks),
		poller.WithNotifier(hub),
		poller.WithLogger(logger),
		poller.WithLoadError(loadErr),
	}
	if statusWriter != nil {
		pollerOpts = append(pollerOpts, poller.WithStatusWriter(statusWriter))
	}
	p := poller.New(cfg, pollerOpts...)

	srv := &http.Server{
		Addr:         c.String("listen"),
		Handler:      server.New(p, hub, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	eg, ctx := errgroup.WithContext(c.Context)

	eg.Go(func() error {
		logger.Info("control api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		if p.Running() {
			p.Stop()
		}
		_ = hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if c.Bool("autostart") {
		if err := p.Start(); err != nil {
			logger.Error("autostart failed", zap.Error(err))
		}
	}

	return eg.Wait()
}
