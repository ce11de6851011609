package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/social-listening/mentions-dashboard/internal/cache"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/sources"
)

func main() {
	fmt.Println("Mentions Dashboard - Source Connectivity Check")
	fmt.Println("==============================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("\nChecking cache...")
	fmt.Println(strings.Repeat("-", 40))
	sheetCache, err := cache.New(ctx, cfg)
	switch {
	case err != nil:
		fmt.Printf("Valkey: ERROR: %v\n", err)
	case sheetCache == nil:
		fmt.Println("Valkey: DISABLED (VALKEY_ADDRESS not set)")
	default:
		fmt.Printf("Valkey: OK (%s)\n", cfg.ValkeyAddress)
		defer sheetCache.Close()
	}

	fmt.Println("\nChecking sources...")
	fmt.Println(strings.Repeat("-", 40))

	normalizer := sources.NewRowNormalizer(nil)
	checkSource(ctx, "Sample", sources.NewSampleSource(cfg.SampleSize, 42))
	// The cache is bypassed so the export itself is exercised
	checkSource(ctx, "Google Sheet", sources.NewGoogleSheetSource(cfg.GoogleSheetID, cfg.GoogleSheetGID, normalizer, nil, 0))

	fmt.Println("\nSource check completed")
}

func checkSource(ctx context.Context, name string, source sources.Source) {
	fmt.Printf("%s... ", name)

	if !source.IsEnabled() {
		fmt.Println("DISABLED (not configured)")
		return
	}

	start := time.Now()
	mentions, err := source.FetchMentions(ctx)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}

	fmt.Printf("OK (%d mentions in %v)\n", len(mentions), time.Since(start).Round(time.Millisecond))
	if len(mentions) > 0 {
		fmt.Printf("   Sample: %q (%s, %s)\n", mentions[0].Content, mentions[0].Channel, mentions[0].Sentiment)
	}
}
