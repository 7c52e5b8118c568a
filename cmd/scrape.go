package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"swatch-extractor/extractor"
	"swatch-extractor/internal/config"
	"swatch-extractor/internal/types"

	"github.com/spf13/cobra"
)

var scrapeFlags struct {
	collectionURL string
	outputDir     string
	outputFile    string
	requestDelay  time.Duration
	imageDelay    time.Duration
	timeout       time.Duration
	browser       bool
	incremental   bool
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Extract every product of the collection page",
	Args:  cobra.NoArgs,
	RunE:  runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeFlags.collectionURL, "collection-url", "", "Collection page URL")
	f.StringVar(&scrapeFlags.outputDir, "output-dir", "", "Directory for the JSON file and images")
	f.StringVar(&scrapeFlags.outputFile, "output-file", "", "JSON file name inside the output directory")
	f.DurationVar(&scrapeFlags.requestDelay, "delay", 0, "Delay before each page request")
	f.DurationVar(&scrapeFlags.imageDelay, "image-delay", 0, "Delay before each image download")
	f.DurationVar(&scrapeFlags.timeout, "timeout", 0, "Per-request timeout")
	f.BoolVar(&scrapeFlags.browser, "browser", false, "Use headless browser for JavaScript-heavy pages")
	f.BoolVar(&scrapeFlags.incremental, "incremental", true, "Rewrite the output file after every product")
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	applyScrapeFlags(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := extractor.Run(ctx, cfg, logger, nil)
	if result != nil {
		printSummary(cmd.OutOrStdout(), result)
	}
	return err
}

// applyScrapeFlags overrides config values with flags given explicitly.
func applyScrapeFlags(cmd *cobra.Command, cfg *types.Config) {
	f := cmd.Flags()
	if f.Changed("collection-url") {
		cfg.CollectionURL = scrapeFlags.collectionURL
	}
	if f.Changed("output-dir") {
		cfg.OutputDir = scrapeFlags.outputDir
	}
	if f.Changed("output-file") {
		cfg.OutputFile = scrapeFlags.outputFile
	}
	if f.Changed("delay") {
		cfg.RequestDelay = scrapeFlags.requestDelay
	}
	if f.Changed("image-delay") {
		cfg.ImageDelay = scrapeFlags.imageDelay
	}
	if f.Changed("timeout") {
		cfg.Timeout = scrapeFlags.timeout
	}
	if f.Changed("browser") {
		cfg.UseHeadlessBrowser = scrapeFlags.browser
	}
	if f.Changed("incremental") {
		cfg.Incremental = scrapeFlags.incremental
	}
}
