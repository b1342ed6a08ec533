package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"brandscope/internal/api"
	"brandscope/internal/catalog"
	"brandscope/internal/compare"
	"brandscope/internal/config"
	"brandscope/internal/fetcher"
	"brandscope/internal/insight"
	"brandscope/internal/robots"
	"brandscope/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		addr       = flag.String("addr", ":8080", "listen address")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetcher.New(fetcher.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Headers:      cfg.Fetch.Headers,
		Timeout:      cfg.Fetch.Timeout.Duration,
		MaxRetries:   cfg.Fetch.MaxRetries,
		RetryBackoff: cfg.Fetch.RetryBackoff.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		HostDelay:    cfg.Fetch.HostDelay.Duration,
	})
	robotsAgent := robots.NewAgent(cfg.Robots, client.HTTPClient())
	retriever := catalog.NewRetriever(client, cfg.Catalog, logger)
	assembler := insight.New(client, retriever, robotsAgent, cfg.Extract, logger)
	discovery := compare.NewDiscovery(client, cfg.Competitors.SearchEndpoint, logger)
	analyzer := compare.NewAnalyzer(assembler, discovery, cfg.Competitors, logger)

	var store storage.InsightStore = storage.NoopStore{}
	if cfg.DB.DSN != "" {
		sqlStore, err := storage.NewSQLStore(ctx, cfg.DB, logger)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		store = sqlStore
		logger.Info("database connected")
	} else {
		logger.Info("no database configured, saving disabled")
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           api.NewServer(assembler, analyzer, store, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Structured {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
