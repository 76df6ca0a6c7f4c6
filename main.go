// Whopscrape fetches a marketplace listing and prints a structured snapshot.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BAODAU/whop-wss-streaming/config"
	"github.com/BAODAU/whop-wss-streaming/scrape"
	"github.com/BAODAU/whop-wss-streaming/snapshot"
)

func main() {
	timeout := flag.Float64("timeout", 0, "fetch timeout in seconds (default from config, 30)")
	featuresOnly := flag.Bool("features-only", false, "print only the simplified listing shape")
	noRender := flag.Bool("no-render", false, "skip the headless browser render step")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <url-or-slug>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	target := flag.Arg(0)

	level := slog.LevelWarn
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

	opts := scrape.Options{
		Timeout:       time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second,
		UserAgent:     cfg.Fetcher.UserAgent,
		ChromePath:    cfg.Fetcher.ChromePath,
		DisableRender: cfg.Fetcher.DisableRender || *noRender,
		Logger:        logger,
	}
	if *timeout > 0 {
		opts.Timeout = time.Duration(*timeout * float64(time.Second))
	}

	result, err := scrape.FetchListingSnapshot(context.Background(), target, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var output any = result
	if *featuresOnly && result.Flat != nil {
		output = snapshot.Simplify(result.Flat)
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
