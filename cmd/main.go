// swatch extracts product names, images and representative colors from a
// single Shopify collection page.
//
// Usage:
//
//	swatch scrape [--collection-url=<url>] [--output-dir=<dir>] [--delay=1s]
//	swatch sample [--crop-start=0.3] [--crop-end=0.7] [--statistic=mean] <image>...
//	swatch probe  [--collection-url=<url>] [--browser]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"swatch-extractor/internal/config"
	"swatch-extractor/internal/types"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	exitError            = 1
	exitListingExhausted = 2
)

var rootFlags struct {
	configPath string
	verbose    bool
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "swatch",
	Short: "Extract product swatches and colors from a Shopify collection",
	Long: "swatch fetches one collection page, follows every product link, downloads\n" +
		"the product image and samples its central region for a representative color.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Config file (default: swatch.yaml in ., ./config or $HOME/.swatch)")
	pf.BoolVar(&rootFlags.verbose, "verbose", false, "Enable verbose logging")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.Version = version
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := exitCode(err)
		if code == exitListingExhausted {
			fmt.Fprintln(os.Stderr, "The collection page no longer matches any listing rule; update rules.listing in the config file.")
		}
		os.Exit(code)
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var exhausted *types.ListingExhaustedError
	if errors.As(err, &exhausted) {
		return exitListingExhausted
	}
	return exitError
}

// newLogger sets up logging the same way for every command.
func newLogger(out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	switch rootFlags.logFormat {
	case "", "text":
		// Set timestamp format with milliseconds
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", rootFlags.logFormat)
	}

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if rootFlags.verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger, nil
}

// setup loads configuration and a logger writing to the command's stderr.
func setup(cmd *cobra.Command) (*types.Config, *logrus.Logger, error) {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
