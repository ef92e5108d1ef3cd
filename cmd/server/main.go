package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bobthearsonist/meeting-coach/internal/broadcast"
	"github.com/bobthearsonist/meeting-coach/internal/coach"
	"github.com/bobthearsonist/meeting-coach/internal/config"
	"github.com/bobthearsonist/meeting-coach/internal/logging"
	"github.com/bobthearsonist/meeting-coach/internal/server"
	"github.com/bobthearsonist/meeting-coach/internal/timeline"
	"github.com/bobthearsonist/meeting-coach/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, hub *broadcast.Hub, grace time.Duration, cancelDemo context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		cancelDemo()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	demo := flag.Bool("demo", false, "publish a scripted coaching session instead of waiting for a producer")
	demoInterval := flag.Duration("demo-interval", 2*time.Second, "delay between scripted demo utterances")
	flag.Parse()

	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	queue := broadcast.NewQueue(cfg.QueueCapacity, clock)
	hub := broadcast.NewHub(queue, broadcast.Options{
		MaxClients: cfg.MaxClients,
		Clock:      clock,
	})

	srv := server.NewServer(cfg, hub, clock)

	demoCtx, cancelDemo := context.WithCancel(context.Background())
	defer cancelDemo()
	if *demo {
		tl := timeline.New(cfg.TimelineWindow, cfg.TimelineMaxEntries, clock)
		c := coach.New(hub, tl, nil, clock)
		slog.Info("Demo producer enabled", "interval", *demoInterval)
		go c.RunDemo(demoCtx, *demoInterval)
	}

	done := runGracefulShutdown(srv, hub, cfg.ShutdownGrace, cancelDemo)

	slog.Info("Server starting", "addr", cfg.Addr())
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
