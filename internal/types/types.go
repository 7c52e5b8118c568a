package types

import "time"

// DefaultUserAgent is sent with every request unless the config overrides it.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is the raw result of a single fetch.
type Page struct {
	URL         string
	Body        []byte
	ContentType string
}

// ProductReference is a product link discovered on the collection page.
type ProductReference struct {
	URL     string
	RawName string
}

// ProductRecord is one line of output. Optional fields are nil when the
// corresponding pipeline stage failed; they serialize as null.
type ProductRecord struct {
	URL            string  `json:"url"`
	Name           string  `json:"name"`
	Color          string  `json:"color"`
	ImageURL       *string `json:"image_url"`
	LocalImagePath *string `json:"local_image_path"`
	HexColor       *string `json:"hex_color"`
}

// Stage names a step of the per-product pipeline.
type Stage string

const (
	StageDiscovered    Stage = "discovered"
	StageNameResolved  Stage = "name_resolved"
	StageImageAcquired Stage = "image_acquired"
	StageColorSampled  Stage = "color_sampled"
	StageFinalized     Stage = "finalized"
	StagePartial       Stage = "partial"

	// failure points
	StageDetailFetch   Stage = "detail_fetch"
	StageImageURL      Stage = "image_url"
	StageImageDownload Stage = "image_download"
	StageColorSample   Stage = "color_sample"
)

// ProductOutcome records how far a product got through the pipeline.
type ProductOutcome struct {
	URL         string
	State       Stage
	FailedStage Stage
	Err         error
}

// Complete reports whether every stage succeeded.
func (o ProductOutcome) Complete() bool {
	return o.State == StageFinalized
}

// RunResult is everything one extraction run produced.
// Records and Outcomes are parallel slices in discovery order.
type RunResult struct {
	RunID         string
	CollectionURL string
	OutputFile    string
	Records       []ProductRecord
	Outcomes      []ProductOutcome
	StartedAt     time.Time
	Duration      time.Duration
}

// CompleteCount returns the number of fully processed products.
func (r *RunResult) CompleteCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Complete() {
			n++
		}
	}
	return n
}

// FailuresByStage counts partial products by the stage that failed.
func (r *RunResult) FailuresByStage() map[Stage]int {
	counts := make(map[Stage]int)
	for _, o := range r.Outcomes {
		if !o.Complete() {
			counts[o.FailedStage]++
		}
	}
	return counts
}

// LinkRule selects product links on the collection page.
type LinkRule struct {
	Selector string `mapstructure:"selector" json:"selector"`
	Attr     string `mapstructure:"attr" json:"attr,omitempty"`         // defaults to href
	Contains string `mapstructure:"contains" json:"contains,omitempty"` // optional substring filter on the raw value
}

// TextRule selects a text value; Attr empty means the element text.
type TextRule struct {
	Selector string `mapstructure:"selector" json:"selector"`
	Attr     string `mapstructure:"attr" json:"attr,omitempty"`
}

// ImageRule selects an image element and lists the attributes to read,
// best resolution first.
type ImageRule struct {
	Selector string   `mapstructure:"selector" json:"selector"`
	Attrs    []string `mapstructure:"attrs" json:"attrs,omitempty"`
}

// RuleSet holds the ordered extraction rules for one run.
type RuleSet struct {
	Listing []LinkRule  `mapstructure:"listing"`
	Title   []TextRule  `mapstructure:"title"`
	Image   []ImageRule `mapstructure:"image"`
	Color   []TextRule  `mapstructure:"color"`
}

// DefaultImageAttrs is used for image rules that list no attributes.
var DefaultImageAttrs = []string{"data-zoom", "data-zoom-src", "data-srcset", "srcset", "data-src", "src"}

// DefaultRuleSet returns the rules for a Shopify collection page.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Listing: []LinkRule{
			{Selector: `a[href*="/products/merino"]`, Contains: "/products/"},
			{Selector: ".product-card a", Contains: "/products/"},
			{Selector: ".product-item a", Contains: "/products/"},
			{Selector: "a.product-link", Contains: "/products/"},
		},
		Title: []TextRule{
			{Selector: "h1.product-title"},
			{Selector: "h1"},
			{Selector: ".product-title"},
			{Selector: `meta[property="og:title"]`, Attr: "content"},
			{Selector: "title"},
		},
		Image: []ImageRule{
			{Selector: "img.product-image"},
			{Selector: ".product-gallery img"},
			{Selector: `img[src*="merino"]`},
			{Selector: ".main-image img"},
			{Selector: `meta[property="og:image"]`, Attrs: []string{"content"}},
		},
		Color: []TextRule{
			{Selector: `[data-option-name="Color"] option[selected]`},
		},
	}
}

// WithDefaults fills empty rule lists from DefaultRuleSet.
func (r RuleSet) WithDefaults() RuleSet {
	def := DefaultRuleSet()
	if len(r.Listing) == 0 {
		r.Listing = def.Listing
	}
	if len(r.Title) == 0 {
		r.Title = def.Title
	}
	if len(r.Image) == 0 {
		r.Image = def.Image
	}
	if len(r.Color) == 0 {
		r.Color = def.Color
	}
	return r
}

// SamplingConfig controls the color sampler.
type SamplingConfig struct {
	CropStart float64 `mapstructure:"crop_start"`
	CropEnd   float64 `mapstructure:"crop_end"`
	Statistic string  `mapstructure:"statistic"` // "mean" or "median"
}

// Config holds the configuration for the extractor.
// It is loaded by internal/config and may be adjusted by CLI flags or API
// request fields before a run starts.
type Config struct {
	CollectionURL      string         `mapstructure:"collection_url"`
	OutputDir          string         `mapstructure:"output_dir"`
	ImagesDir          string         `mapstructure:"images_dir"`
	OutputFile         string         `mapstructure:"output_file"`
	RequestDelay       time.Duration  `mapstructure:"request_delay"`
	ImageDelay         time.Duration  `mapstructure:"image_delay"`
	Timeout            time.Duration  `mapstructure:"timeout"`
	UserAgent          string         `mapstructure:"user_agent"`
	UseHeadlessBrowser bool           `mapstructure:"use_headless_browser"`
	MaxBodyBytes       int64          `mapstructure:"max_body_bytes"`
	MaxImageBytes      int64          `mapstructure:"max_image_bytes"`
	Incremental        bool           `mapstructure:"incremental"`
	Sampling           SamplingConfig `mapstructure:"sampling"`
	Rules              RuleSet        `mapstructure:"rules"`
}

// DefaultConfig returns the default configuration.
// It targets the Knitting for Olive merino collection with polite delays.
func DefaultConfig() *Config {
	return &Config{
		CollectionURL:      "https://knittingforolive.com/collections/knitting-for-olives-merino",
		OutputDir:          "./kfo_yarn_data",
		ImagesDir:          "images",
		OutputFile:         "yarn_data.json",
		RequestDelay:       1 * time.Second,
		ImageDelay:         500 * time.Millisecond,
		Timeout:            30 * time.Second,
		UserAgent:          DefaultUserAgent,
		UseHeadlessBrowser: false,
		MaxBodyBytes:       10 << 20,
		MaxImageBytes:      20 << 20,
		Incremental:        true,
		Sampling: SamplingConfig{
			CropStart: 0.30,
			CropEnd:   0.70,
			Statistic: "mean",
		},
		Rules: DefaultRuleSet(),
	}
}

// Logger defines the logging interface.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
