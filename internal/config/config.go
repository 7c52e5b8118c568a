package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"swatch-extractor/imaging"
	"swatch-extractor/internal/types"

	"github.com/andybalholm/cascadia"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// SWATCH_REQUEST_DELAY or SWATCH_SAMPLING_CROP_START.
const EnvPrefix = "SWATCH"

// Load reads configuration from defaults, an optional swatch.yaml and
// SWATCH_* environment variables, in increasing priority. An explicit path
// must exist; otherwise the file is searched in the usual places and may be
// absent.
func Load(path string) (*types.Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("swatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.swatch")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Rule lists are not given viper defaults: decoding into a prefilled
	// slice would keep trailing default rules behind shorter configured lists.
	var config types.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.Rules = config.Rules.WithDefaults()

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("collection_url", d.CollectionURL)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("images_dir", d.ImagesDir)
	v.SetDefault("output_file", d.OutputFile)
	v.SetDefault("request_delay", d.RequestDelay)
	v.SetDefault("image_delay", d.ImageDelay)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("use_headless_browser", d.UseHeadlessBrowser)
	v.SetDefault("max_body_bytes", d.MaxBodyBytes)
	v.SetDefault("max_image_bytes", d.MaxImageBytes)
	v.SetDefault("incremental", d.Incremental)

	v.SetDefault("sampling.crop_start", d.Sampling.CropStart)
	v.SetDefault("sampling.crop_end", d.Sampling.CropEnd)
	v.SetDefault("sampling.statistic", d.Sampling.Statistic)
}

// Validate checks a configuration after flags and overrides are applied.
func Validate(config *types.Config) error {
	u, err := url.Parse(config.CollectionURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("collection_url must be an absolute http(s) URL, got: %q", config.CollectionURL)
	}

	if config.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if err := ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	if config.RequestDelay < 0 || config.ImageDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", config.Timeout)
	}
	if config.MaxBodyBytes <= 0 || config.MaxImageBytes <= 0 {
		return fmt.Errorf("max_body_bytes and max_image_bytes must be positive")
	}

	if _, err := imaging.NewSampler(config.Sampling); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}

	for i, rule := range config.Rules.Listing {
		if err := validateSelector("listing", i, rule.Selector); err != nil {
			return err
		}
	}
	for i, rule := range config.Rules.Title {
		if err := validateSelector("title", i, rule.Selector); err != nil {
			return err
		}
	}
	for i, rule := range config.Rules.Image {
		if err := validateSelector("image", i, rule.Selector); err != nil {
			return err
		}
	}
	for i, rule := range config.Rules.Color {
		if err := validateSelector("color", i, rule.Selector); err != nil {
			return err
		}
	}

	return nil
}

// ValidateOutputFile checks that name is a bare file name. The results file
// always lives directly in output_dir, so absolute paths, separators and
// dot segments are rejected.
func ValidateOutputFile(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("output_file is required")
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) ||
		name != filepath.Base(name) || name != filepath.Clean(name) ||
		name == "." || name == ".." {
		return fmt.Errorf("output_file must be a plain file name, got: %q", name)
	}
	return nil
}

// validateSelector compiles selector the way goquery will, so a typo is a
// configuration error rather than a rule that silently matches nothing.
func validateSelector(list string, index int, selector string) error {
	if strings.TrimSpace(selector) == "" {
		return fmt.Errorf("rules.%s[%d]: selector is required", list, index)
	}
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("rules.%s[%d]: invalid selector %q: %w", list, index, selector, err)
	}
	return nil
}
