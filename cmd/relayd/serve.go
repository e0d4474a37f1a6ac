package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arung-agamani/icerelay/config"
	"github.com/arung-agamani/icerelay/internal/admin"
	"github.com/arung-agamani/icerelay/internal/auth"
	"github.com/arung-agamani/icerelay/internal/relay"
	"github.com/arung-agamani/icerelay/internal/source"
	"github.com/arung-agamani/icerelay/internal/stats"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay supervisor and admin API until interrupted",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	relayCfg, err := config.LoadRelayConfig(cfg.RelayConfig)
	if err != nil {
		return err
	}

	st := stats.New()
	registry := source.NewRegistry()

	rereadCh := make(chan struct{}, 1)
	sup := relay.NewSupervisor(cfg.RelayConfig, rereadCh)
	sup.Registry = registry
	sup.Stats = st
	sup.MasterFetcher = relay.NewMasterFetcher(!relayCfg.Master.VerifySSL)
	sup.Sweeper = &relay.Sweeper{
		Registry: registry,
		Stats:    st,
		Signals:  sup.Signals,
		Worker: &relay.Worker{
			Registry:     registry,
			Stats:        st,
			Hostname:     relayCfg.Hostname,
			RedirectPort: relayCfg.Master.RedirectPort,
			UserAgent:    "icerelay/1.0",
		},
	}

	watcher, err := config.NewWatcher(cfg.RelayConfig, rereadCh)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		slog.Warn("Config watcher failed to start, hot-reload via SIGHUP-equivalent disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	authInstance := auth.New(auth.Config{
		Username:  cfg.AdminUsername,
		Password:  cfg.AdminPassword,
		JWTSecret: cfg.JWTSecret,
	})

	adminServer := admin.NewServer(cfg.AdminBind, cfg.MetricsBind, sup, authInstance, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)
	go func() {
		errCh <- sup.Run(ctx)
	}()
	go func() {
		errCh <- adminServer.Start(ctx)
	}()

	select {
	case sig := <-sigCh:
		slog.Info("Received signal, shutting down", "signal", sig.String())
		cancel()
	case err := <-errCh:
		if err != nil {
			slog.Error("Component exited with error", "error", err)
		}
		cancel()
	}

	time.Sleep(300 * time.Millisecond)
	return nil
}
