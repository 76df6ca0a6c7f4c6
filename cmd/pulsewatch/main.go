// Command pulsewatch taps the marketplace's live WebSocket feed, printing
// decoded frames and fetching a listing snapshot for each new priced product.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BAODAU/whop-wss-streaming/config"
	"github.com/BAODAU/whop-wss-streaming/pulse"
	"github.com/BAODAU/whop-wss-streaming/scrape"
)

func main() {
	feedURL := flag.String("url", "", "feed page to watch (default from config)")
	headful := flag.Bool("headful", false, "run the browser with a visible window")
	showRaw := flag.Bool("raw", false, "print every decoded frame, not just product sightings")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	url := cfg.Pulse.URL
	if *feedURL != "" {
		url = *feedURL
	}

	watcher := pulse.NewWatcher(pulse.WatcherOptions{
		Headless: cfg.Pulse.Headless && !*headful,
		ShowRaw:  cfg.Pulse.ShowRaw || *showRaw,
		Logger:   logger,
		Scrape: scrape.Options{
			Timeout:       time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second,
			UserAgent:     cfg.Fetcher.UserAgent,
			ChromePath:    cfg.Fetcher.ChromePath,
			DisableRender: cfg.Fetcher.DisableRender,
			Logger:        logger,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watcher.Run(ctx, url); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
