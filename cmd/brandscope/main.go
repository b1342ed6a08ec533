// Command brandscope runs a one-shot extraction or competitor analysis
// against a single store URL and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"brandscope/internal/catalog"
	"brandscope/internal/compare"
	"brandscope/internal/config"
	"brandscope/internal/fetcher"
	"brandscope/internal/insight"
	"brandscope/internal/robots"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		storeURL    = flag.String("url", "", "store URL to analyze")
		competitors = flag.Bool("competitors", false, "run competitor analysis instead of a plain extraction")
		timeout     = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *storeURL == "" {
		return fmt.Errorf("-url is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

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

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *competitors {
		discovery := compare.NewDiscovery(client, cfg.Competitors.SearchEndpoint, logger)
		analyzer := compare.NewAnalyzer(assembler, discovery, cfg.Competitors, logger)
		return enc.Encode(analyzer.Analyze(ctx, *storeURL, 0))
	}
	return enc.Encode(assembler.Extract(ctx, *storeURL))
}
