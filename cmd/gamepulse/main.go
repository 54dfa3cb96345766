package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gamepulse/internal/config"
	"gamepulse/internal/games"
	"gamepulse/internal/netmon"
	"gamepulse/internal/server"
	"gamepulse/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", ":8080", "address for the web server")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("initialise logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	pingStore, err := storage.NewConnectivityStorage(
		filepath.Join(cfg.DataDirectory, "ping_history.json"),
		cfg.Monitor.PersistedSampleRetention,
	)
	if err != nil {
		logger.Fatal("initialise ping storage", zap.Error(err))
	}

	gameStore, err := storage.OpenGameStore(filepath.Join(cfg.DataDirectory, "games.db"))
	if err != nil {
		logger.Fatal("initialise game store", zap.Error(err))
	}
	defer func() { _ = gameStore.Close() }()

	source := netmon.NewInterfaceSource(time.Duration(cfg.Monitor.ReachabilityPollSeconds) * time.Second)
	monitor := netmon.New(source, pingStore, netmon.Options{
		PingURL:      cfg.HealthURL(),
		PingInterval: time.Duration(cfg.Monitor.PingIntervalSeconds) * time.Second,
		PingTimeout:  time.Duration(cfg.Monitor.PingTimeoutSeconds) * time.Second,
	}, logger)
	monitor.Start()
	defer monitor.Stop()

	client := games.NewClient(cfg.GamesURL(), cfg.Backend.APIKey)
	syncer := games.NewSyncer(
		client,
		gameStore,
		time.Duration(cfg.Games.SyncIntervalSeconds)*time.Second,
		cfg.Games.PageSize,
		logger,
	)
	syncer.Start()
	defer syncer.Stop()

	srv := server.New(*addr, cfg.NodeName, monitor, pingStore, gameStore, syncer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("gamepulse listening",
		zap.String("addr", *addr),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("ping_interval_seconds", cfg.Monitor.PingIntervalSeconds),
	)
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
