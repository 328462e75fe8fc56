package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"secdash/config"
	"secdash/internal/assistant"
	"secdash/internal/classify"
	"secdash/internal/input/backend"
	"secdash/internal/logger"
	"secdash/internal/mitre"
	"secdash/internal/pipeline"
	"secdash/internal/server"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("secdash.yml"); err == nil {
		return "secdash.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "secdash.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "secdash.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.Secdash.Server.Addr == "" {
		cfg.Secdash.Server.Addr = ":8080"
	}
	if cfg.Secdash.Server.ReadTimeout <= 0 {
		cfg.Secdash.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Secdash.Server.WriteTimeout <= 0 {
		cfg.Secdash.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Secdash.Server.ShutdownTimeout <= 0 {
		cfg.Secdash.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Secdash.Backend.Timeout <= 0 {
		cfg.Secdash.Backend.Timeout = 10 * time.Second
	}
	if cfg.Secdash.Backend.RequestsPerSecond <= 0 {
		cfg.Secdash.Backend.RequestsPerSecond = 10
	}
	if cfg.Secdash.Backend.SearchSize <= 0 {
		cfg.Secdash.Backend.SearchSize = 500
	}

	if cfg.Secdash.Assistant.Timeout <= 0 {
		cfg.Secdash.Assistant.Timeout = 30 * time.Second
	}
	if cfg.Secdash.Assistant.PollInterval <= 0 {
		cfg.Secdash.Assistant.PollInterval = 1500 * time.Millisecond
	}
	if cfg.Secdash.Assistant.MaxPollAttempts <= 0 {
		cfg.Secdash.Assistant.MaxPollAttempts = 40
	}
	if cfg.Secdash.Assistant.Cache.Mode == "" {
		cfg.Secdash.Assistant.Cache.Mode = "memory"
	}

	if cfg.Secdash.Classifier.CriticalLevel <= 0 {
		cfg.Secdash.Classifier.CriticalLevel = classify.DefaultThresholds.Critical
	}
	if cfg.Secdash.Classifier.HighLevel <= 0 {
		cfg.Secdash.Classifier.HighLevel = classify.DefaultThresholds.High
	}
	if cfg.Secdash.Classifier.MediumLevel <= 0 {
		cfg.Secdash.Classifier.MediumLevel = classify.DefaultThresholds.Medium
	}

	if cfg.Secdash.Aggregation.TopN <= 0 {
		cfg.Secdash.Aggregation.TopN = 5
	}
	if cfg.Secdash.Aggregation.WindowDays <= 0 {
		cfg.Secdash.Aggregation.WindowDays = 10
	}

	if cfg.Secdash.Logging.Level == "" {
		cfg.Secdash.Logging.Level = "info"
	}
}

func main() {
	configArg := ""
	if len(os.Args) > 1 {
		configArg = os.Args[1]
	}

	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(logger.Config{
		Enabled:    cfg.Secdash.Logging.Enabled,
		Level:      cfg.Secdash.Logging.Level,
		File:       cfg.Secdash.Logging.File,
		Console:    cfg.Secdash.Logging.Console,
		MaxSizeMB:  cfg.Secdash.Logging.MaxSizeMB,
		MaxBackups: cfg.Secdash.Logging.MaxBackups,
		MaxAgeDays: cfg.Secdash.Logging.MaxAgeDays,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Infof("secdash starting")
	logger.Infof("Config loaded from: %s", configPath)

	backendClient, err := backend.NewClient(backend.Config{
		URL:               cfg.Secdash.Backend.URL,
		Token:             cfg.Secdash.Backend.Token,
		Timeout:           cfg.Secdash.Backend.Timeout,
		Headers:           cfg.Secdash.Backend.Headers,
		RequestsPerSecond: cfg.Secdash.Backend.RequestsPerSecond,
		SearchSize:        cfg.Secdash.Backend.SearchSize,
	})
	if err != nil {
		logger.Errorf("Failed to create backend client: %v", err)
		log.Fatalf("Failed to create backend client: %v", err)
	}

	classifier := classify.New(classify.Thresholds{
		Critical: cfg.Secdash.Classifier.CriticalLevel,
		High:     cfg.Secdash.Classifier.HighLevel,
		Medium:   cfg.Secdash.Classifier.MediumLevel,
	})

	table := mitre.BuiltinTable()
	if path := strings.TrimSpace(cfg.Secdash.Mitre.TablePath); path != "" {
		loaded, err := mitre.LoadTable(path)
		if err != nil {
			logger.Errorf("Failed to load MITRE table from %s: %v", path, err)
			log.Fatalf("Failed to load MITRE table: %v", err)
		}
		table = loaded
		logger.Infof("MITRE table loaded: entries=%d path=%s", table.Len(), path)
	}

	assistantClient, err := assistant.NewClient(assistant.ClientConfig{
		URL:     cfg.Secdash.Assistant.URL,
		Token:   cfg.Secdash.Assistant.Token,
		Version: cfg.Secdash.Assistant.Version,
		Timeout: cfg.Secdash.Assistant.Timeout,
	})
	if err != nil {
		logger.Errorf("Failed to create assistant client: %v", err)
		log.Fatalf("Failed to create assistant client: %v", err)
	}

	var threadCache assistant.ThreadCache
	switch cfg.Secdash.Assistant.Cache.Mode {
	case "memory":
		threadCache = assistant.NewMemoryCache()
		logger.Infof("Thread cache mode: memory")
	case "redis":
		cache, err := assistant.NewRedisCache(assistant.RedisCacheConfig{
			Addr:      cfg.Secdash.Assistant.Cache.Redis.Addr,
			Password:  cfg.Secdash.Assistant.Cache.Redis.Password,
			DB:        cfg.Secdash.Assistant.Cache.Redis.DB,
			KeyPrefix: cfg.Secdash.Assistant.Cache.Redis.KeyPrefix,
			TTL:       cfg.Secdash.Assistant.Cache.Redis.TTL,
		})
		if err != nil {
			logger.Errorf("Failed to create redis thread cache: %v", err)
			log.Fatalf("Failed to create redis thread cache: %v", err)
		}
		defer cache.Close()
		threadCache = cache
		logger.Infof("Thread cache mode: redis (%s)", cfg.Secdash.Assistant.Cache.Redis.Addr)
	default:
		log.Fatalf("Unknown thread cache mode: %s", cfg.Secdash.Assistant.Cache.Mode)
	}

	controller := assistant.NewController(assistantClient, threadCache, assistant.ControllerConfig{
		PollInterval:    cfg.Secdash.Assistant.PollInterval,
		MaxPollAttempts: cfg.Secdash.Assistant.MaxPollAttempts,
	})

	fetcher := pipeline.NewFetcher(backendClient, classifier, table, pipeline.Config{
		TopN:       cfg.Secdash.Aggregation.TopN,
		WindowDays: cfg.Secdash.Aggregation.WindowDays,
	})

	api := server.New(fetcher, backendClient, controller)
	httpServer := &http.Server{
		Addr:         cfg.Secdash.Server.Addr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Secdash.Server.ReadTimeout,
		WriteTimeout: cfg.Secdash.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("HTTP API listening on %s", cfg.Secdash.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Secdash.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Error shutting down HTTP server: %v", err)
	}

	logger.Infof("secdash stopped")
}
