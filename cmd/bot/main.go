package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ZoneSentinel/internal/collector"
	"ZoneSentinel/internal/config"
	"ZoneSentinel/internal/notifier"
	"ZoneSentinel/internal/recorder"
	"ZoneSentinel/internal/scheduler"
	"ZoneSentinel/internal/server"
	"ZoneSentinel/internal/snapshot"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] ZoneSentinel starting...")

	_ = godotenv.Load(".env")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetchers
	primary := collector.NewBackendFetcher(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Proxy)
	var fallback collector.Fetcher
	switch cfg.Backend.Fallback {
	case config.FallbackMock:
		fallback = &collector.MockFetcher{}
	case config.FallbackYahoo:
		fallback = collector.NewYahooFetcher(cfg.Proxy)
	}
	col := collector.NewCollector(primary, fallback, cfg.Watch.Bars)
	log.Printf("[INFO] data source: %s (fallback: %s)", primary.Name(), cfg.Backend.Fallback)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if !tn.Enabled() {
		log.Println("[WARN] telegram.bot_token not set, notifications disabled")
	}

	// Init recorder
	rec := newRecorder(cfg)
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := snapshot.NewStore()
	targets := cfg.Targets()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, store, tn, rec, targets, cfg.SMC.Enabled)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.HealthCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start websocket hub and HTTP API
	hub := server.NewHub()
	updates := store.Subscribe(64)
	go hub.Run(ctx, updates)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(store, sched, hub, targets).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] API server listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] API server: %v", err)
		}
	}()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, refreshing all targets now")
		go sched.RunAllNow()
	}

	log.Println("[INFO] ZoneSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] API server shutdown: %v", err)
	}
	store.Unsubscribe(updates)
	log.Println("[INFO] ZoneSentinel stopped")
}

// newRecorder prefers Postgres, then SQLite, and falls back to a no-op
// recorder when neither can be opened.
func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.PostgresDSN != "" {
		pr, err := recorder.NewPostgresRecorder(cfg.Database.PostgresDSN)
		if err == nil {
			log.Println("[INFO] recording to postgres")
			return pr
		}
		log.Printf("[WARN] init postgres recorder failed: %v", err)
	}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err == nil {
			log.Printf("[INFO] recording to sqlite %s", cfg.Database.SQLitePath)
			return sr
		}
		log.Printf("[WARN] init sqlite recorder failed: %v", err)
	}
	log.Println("[INFO] recording disabled")
	return recorder.NewNoopRecorder()
}
