package adapters

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"swatch-extractor/internal/types"
	"swatch-extractor/utils"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BaseAdapter provides the page access and selector helpers shared by
// store adapters.
type BaseAdapter struct {
	logger  types.Logger
	fetcher utils.PageFetcher
	closers []func()
}

// NewBaseAdapter creates a base adapter that fetches pages over plain HTTP,
// or through a headless browser when config.UseHeadlessBrowser is set.
func NewBaseAdapter(config *types.Config, logger types.Logger) *BaseAdapter {
	if config.UseHeadlessBrowser {
		return NewBaseAdapterWithFetcher(logger, utils.NewBrowserClient(config, logger))
	}

	httpClient := utils.NewHTTPClient(config, logger)
	b := NewBaseAdapterWithFetcher(logger, httpClient)
	b.closers = append(b.closers, httpClient.Close)
	return b
}

// NewBaseAdapterWithFetcher creates a base adapter around an existing fetcher.
// The caller keeps ownership of the fetcher; Close does not release it.
func NewBaseAdapterWithFetcher(logger types.Logger, fetcher utils.PageFetcher) *BaseAdapter {
	return &BaseAdapter{
		logger:  logger,
		fetcher: fetcher,
	}
}

// GetPage fetches url with the configured fetcher.
func (b *BaseAdapter) GetPage(ctx context.Context, url string) (*types.Page, error) {
	return b.fetcher.Fetch(ctx, url)
}

// ParseHTML parses page content into a goquery document.
func (b *BaseAdapter) ParseHTML(page *types.Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", page.URL, err)
	}
	if u, err := url.Parse(page.URL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// Close cleans up resources.
func (b *BaseAdapter) Close() {
	for _, c := range b.closers {
		c()
	}
}

// FirstMatch evaluates rules in order and returns the value of the first rule
// that resolves, together with its index. Later rules are never consulted
// once one resolves.
func FirstMatch[R, T any](rules []R, resolve func(R) (T, bool)) (T, int, bool) {
	for i, rule := range rules {
		if v, ok := resolve(rule); ok {
			return v, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// ExtractText applies a text rule to the first element matching its selector.
func ExtractText(root *goquery.Selection, rule types.TextRule) (string, bool) {
	sel := root.Find(rule.Selector).First()
	if sel.Length() == 0 {
		return "", false
	}

	var raw string
	if rule.Attr != "" {
		v, ok := sel.Attr(rule.Attr)
		if !ok {
			return "", false
		}
		raw = v
	} else {
		raw = sel.Text()
	}

	text := normalizeSpace(raw)
	return text, text != ""
}

// PickImageURL reads the first usable attribute of sel, in the order given.
// srcset-style values yield their largest candidate and Shopify {width}
// templates are expanded using the element's data-widths.
func PickImageURL(sel *goquery.Selection, attrs []string) (string, bool) {
	if len(attrs) == 0 {
		attrs = types.DefaultImageAttrs
	}

	for _, attr := range attrs {
		raw, ok := sel.Attr(attr)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if strings.HasSuffix(strings.ToLower(attr), "srcset") {
			raw = largestSrcsetCandidate(raw)
		}
		if raw == "" || strings.HasPrefix(raw, "data:") {
			continue
		}
		if strings.Contains(raw, "{width}") {
			raw = strings.ReplaceAll(raw, "{width}", strconv.Itoa(maxDataWidth(sel)))
		}
		return raw, true
	}
	return "", false
}

// largestSrcsetCandidate returns the URL with the largest width or density
// descriptor. Candidates without a descriptor count as 1x.
func largestSrcsetCandidate(srcset string) string {
	best := ""
	bestScore := -1.0

	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}

		score := 1.0
		if len(fields) > 1 {
			desc := strings.ToLower(fields[len(fields)-1])
			if n, err := strconv.ParseFloat(strings.TrimRight(desc, "wx"), 64); err == nil {
				score = n
				// width descriptors always outrank density descriptors
				if strings.HasSuffix(desc, "w") {
					score += 1e6
				}
			}
		}
		if score > bestScore {
			best, bestScore = fields[0], score
		}
	}
	return best
}

const defaultTemplateWidth = 1080

func maxDataWidth(sel *goquery.Selection) int {
	raw, ok := sel.Attr("data-widths")
	if !ok {
		return defaultTemplateWidth
	}

	best := 0
	for _, part := range strings.Split(strings.Trim(raw, "[] "), ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > best {
			best = n
		}
	}
	if best == 0 {
		return defaultTemplateWidth
	}
	return best
}

// ResolveURL resolves ref against base and drops the fragment. Only http
// and https results are accepted.
func ResolveURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty url")
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}

	abs := baseURL.ResolveReference(refURL)
	abs.Fragment = ""
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme in %q", abs.String())
	}
	return abs.String(), nil
}

// DeslugifyName turns the last path segment of a product URL into a
// human-readable name: "merino-oak" becomes "Merino Oak".
func DeslugifyName(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil {
		return ""
	}

	slug := path.Base(strings.TrimRight(u.Path, "/"))
	if slug == "." || slug == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}

	slug = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(slug)
	return cases.Title(language.English).String(normalizeSpace(slug))
}

var colorSeparators = []string{" - ", " – ", " — ", " | ", " / "}

// DeriveColorLabel takes the colorway part of a product name, i.e. the text
// after the last separator: "Merino - Oak" gives "Oak". Names without a
// separator are returned whole.
func DeriveColorLabel(name string) string {
	cut := -1
	sepLen := 0
	for _, sep := range colorSeparators {
		if i := strings.LastIndex(name, sep); i > cut {
			cut, sepLen = i, len(sep)
		}
	}

	if cut >= 0 {
		if label := strings.TrimSpace(name[cut+sepLen:]); label != "" {
			return label
		}
	}
	return strings.TrimSpace(name)
}

var siteSeparators = []string{" – ", " | "}

// TrimSiteSuffix drops the store name that a document <title> carries after
// the product name, as Shopify themes render "Merino - Oak – Store". Only the
// en dash and pipe count as site separators, so "Merino - Oak" is returned
// unchanged.
func TrimSiteSuffix(title string) string {
	cut := -1
	for _, sep := range siteSeparators {
		if i := strings.LastIndex(title, sep); i > cut {
			cut = i
		}
	}
	if cut <= 0 {
		return title
	}
	return strings.TrimSpace(title[:cut])
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
