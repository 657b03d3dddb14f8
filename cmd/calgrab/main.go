package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sableworks/calgrab/internal/announce"
	"github.com/sableworks/calgrab/internal/api"
	"github.com/sableworks/calgrab/internal/config"
	"github.com/sableworks/calgrab/internal/export"
	"github.com/sableworks/calgrab/internal/extract"
	"github.com/sableworks/calgrab/internal/session"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("calgrab starting", "port", cfg.Port, "target", cfg.TargetHost)

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		slog.Error("failed to load selector profile", "path", cfg.ProfilePath, "error", err)
		os.Exit(1)
	}
	if cfg.ProfilePath != "" {
		slog.Info("selector profile loaded", "path", cfg.ProfilePath)
	}

	// Announcer (optional — the service works without NATS, just no events)
	var announcer session.Announcer
	var natsClient *announce.Client
	if cfg.NatsURL != "" {
		natsClient, err = announce.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		announcer = natsClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without announcements")
	}

	ext := extract.New(profile, slog.Default())
	sess := session.New(cfg.TargetHost, ext, announcer, slog.Default())
	exporter := export.New(export.NewDiskSaver(cfg.ExportDir), slog.Default())

	settle := time.Duration(cfg.SettleMillis) * time.Millisecond
	srv := api.NewServer(cfg.Port, sess, exporter, settle)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("calgrab ready", "port", cfg.Port, "export_dir", cfg.ExportDir)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
