// Command pulsed serves the extraction pipeline over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BAODAU/whop-wss-streaming/config"
	"github.com/BAODAU/whop-wss-streaming/scrape"
	"github.com/BAODAU/whop-wss-streaming/serve"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	handler := serve.NewHandler(scrape.Options{
		Timeout:       time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second,
		UserAgent:     cfg.Fetcher.UserAgent,
		ChromePath:    cfg.Fetcher.ChromePath,
		DisableRender: cfg.Fetcher.DisableRender,
	}, logger)
	router := serve.SetupRouter(handler, logger)

	logger.Info("listening", "addr", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
