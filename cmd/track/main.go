// Command track resolves one tracking number and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"container-tracker/internal/core/config"
	"container-tracker/internal/core/logger"
	"container-tracker/internal/features/tracking"
	"container-tracker/internal/features/tracking/domain"
)

func main() {
	carrier := flag.String("carrier", "", "carrier code override")
	scope := flag.String("scope", "", "tenant scope")
	provider := flag.String("provider", "", "web_scraping or vendor_api")
	force := flag.Bool("force", false, "skip the cache")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall timeout")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println(`{"error": "Please provide a tracking number as an argument"}`)
		os.Exit(2)
	}

	opts, err := resolveOptions(*carrier, *scope, *provider, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	os.Exit(run(flag.Arg(0), opts, *timeout))
}

func resolveOptions(carrier, scope, provider string, force bool) (domain.ResolveOptions, error) {
	preferred, ok := domain.ParsePreferredProvider(provider)
	if !ok {
		return domain.ResolveOptions{}, fmt.Errorf("invalid -provider %q: must be one of web_scraping, vendor_api", provider)
	}
	return domain.ResolveOptions{
		Carrier:           carrier,
		ForceRefresh:      force,
		ScopeID:           scope,
		PreferredProvider: preferred,
	}, nil
}

func run(trackingNumber string, opts domain.ResolveOptions, timeout time.Duration) int {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	// Production logs go to stderr so stdout carries only the JSON result.
	if err := logger.InitWithFile("production", cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	module, err := tracking.Build(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build tracking module: %v\n", err)
		return 1
	}
	defer module.Close()

	result := module.Orchestrator.Resolve(ctx, trackingNumber, opts)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		return 1
	}
	if !result.Success {
		return 1
	}
	return 0
}
