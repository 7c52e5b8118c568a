package adapters

import (
	"context"
	"fmt"
	"strings"

	"swatch-extractor/internal/types"
	"swatch-extractor/utils"

	"github.com/PuerkitoBio/goquery"
)

// ShopifyAdapter extracts product links and product details from a Shopify
// storefront using an ordered, configurable rule set.
type ShopifyAdapter struct {
	*BaseAdapter
	rules types.RuleSet
}

// ProductDetails is what a product page yields. Name is always set; the
// other fields are empty when no rule matched.
type ProductDetails struct {
	Name        string
	NameFromURL bool
	ImageURL    string
	Color       string
}

// RuleCount reports how a single listing rule fares against a page.
// Matches counts selected elements, Links the usable product links left
// after filtering, resolution and de-duplication.
type RuleCount struct {
	Selector string
	Matches  int
	Links    int
}

// NewShopifyAdapter creates a new Shopify adapter.
// Rule lists missing from config.Rules fall back to the defaults, and pages
// are fetched over HTTP or through a headless browser per config.
func NewShopifyAdapter(config *types.Config, logger types.Logger) *ShopifyAdapter {
	return &ShopifyAdapter{
		BaseAdapter: NewBaseAdapter(config, logger),
		rules:       config.Rules.WithDefaults(),
	}
}

// NewShopifyAdapterWithFetcher creates a Shopify adapter around an existing fetcher.
// Tests use it to serve canned pages.
func NewShopifyAdapterWithFetcher(config *types.Config, logger types.Logger, fetcher utils.PageFetcher) *ShopifyAdapter {
	return &ShopifyAdapter{
		BaseAdapter: NewBaseAdapterWithFetcher(logger, fetcher),
		rules:       config.Rules.WithDefaults(),
	}
}

// GetStoreName returns the store name.
func (s *ShopifyAdapter) GetStoreName() string {
	return "shopify"
}

// Rules returns the rule set in effect.
func (s *ShopifyAdapter) Rules() types.RuleSet {
	return s.rules
}

// GetProductReferences fetches the collection page and extracts product links.
func (s *ShopifyAdapter) GetProductReferences(ctx context.Context, collectionURL string) ([]types.ProductReference, error) {
	s.logger.Infof("Fetching collection page: %s", collectionURL)

	page, err := s.GetPage(ctx, collectionURL)
	if err != nil {
		return nil, err
	}

	return s.ExtractLinks(page)
}

// ExtractLinks applies the listing rules in priority order. The first rule
// that yields at least one product link wins; links found by lower-priority
// rules are never merged in. No match gives an empty result, not an error.
func (s *ShopifyAdapter) ExtractLinks(page *types.Page) ([]types.ProductReference, error) {
	doc, err := s.ParseHTML(page)
	if err != nil {
		return nil, err
	}

	refs, i, ok := FirstMatch(s.rules.Listing, func(rule types.LinkRule) ([]types.ProductReference, bool) {
		refs := s.linksForRule(doc, page.URL, rule)
		return refs, len(refs) > 0
	})
	if !ok {
		s.logger.Warnf("No listing rule matched on %s", page.URL)
		return nil, nil
	}

	s.logger.Infof("Found %d products using selector: %s", len(refs), s.rules.Listing[i].Selector)
	return refs, nil
}

// linksForRule collects the de-duplicated, absolute links one rule selects.
func (s *ShopifyAdapter) linksForRule(doc *goquery.Document, baseURL string, rule types.LinkRule) []types.ProductReference {
	attr := rule.Attr
	if attr == "" {
		attr = "href"
	}

	var refs []types.ProductReference
	seen := make(map[string]bool)

	doc.Find(rule.Selector).Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr(attr)
		if !exists {
			return
		}
		if rule.Contains != "" && !strings.Contains(href, rule.Contains) {
			return
		}

		abs, err := ResolveURL(baseURL, href)
		if err != nil {
			s.logger.Debugf("Skipping link %q: %v", href, err)
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true

		refs = append(refs, types.ProductReference{
			URL:     abs,
			RawName: normalizeSpace(sel.Text()),
		})
	})

	return refs
}

// RuleMatchCounts evaluates every listing rule independently, for diagnosing
// a rule set that no longer fits the page.
func (s *ShopifyAdapter) RuleMatchCounts(page *types.Page) ([]RuleCount, error) {
	doc, err := s.ParseHTML(page)
	if err != nil {
		return nil, err
	}

	counts := make([]RuleCount, 0, len(s.rules.Listing))
	for _, rule := range s.rules.Listing {
		counts = append(counts, RuleCount{
			Selector: rule.Selector,
			Matches:  doc.Find(rule.Selector).Length(),
			Links:    len(s.linksForRule(doc, page.URL, rule)),
		})
	}
	return counts, nil
}

// GetProductDetails fetches a product page and extracts its details.
func (s *ShopifyAdapter) GetProductDetails(ctx context.Context, productURL string) (*ProductDetails, error) {
	page, err := s.GetPage(ctx, productURL)
	if err != nil {
		return nil, err
	}
	return s.ExtractDetails(page, productURL)
}

// ExtractDetails resolves name, image URL and color label from a product
// page. Missing fields are left empty; only unparseable markup is an error.
func (s *ShopifyAdapter) ExtractDetails(page *types.Page, productURL string) (*ProductDetails, error) {
	doc, err := s.ParseHTML(page)
	if err != nil {
		return nil, err
	}

	details := &ProductDetails{}

	name, index, ok := FirstMatch(s.rules.Title, func(rule types.TextRule) (string, bool) {
		return ExtractText(doc.Selection, rule)
	})
	if ok {
		if isDocumentTitle(s.rules.Title[index]) {
			name = TrimSiteSuffix(name)
		}
		details.Name = name
	} else {
		details.Name = DeslugifyName(productURL)
		details.NameFromURL = true
		s.logger.Debugf("No title rule matched on %s, using %q", productURL, details.Name)
	}

	imageURL, _, ok := FirstMatch(s.rules.Image, func(rule types.ImageRule) (string, bool) {
		sel := doc.Find(rule.Selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		raw, ok := PickImageURL(sel, rule.Attrs)
		if !ok {
			return "", false
		}
		abs, err := ResolveURL(page.URL, raw)
		if err != nil {
			s.logger.Debugf("Skipping image %q: %v", raw, err)
			return "", false
		}
		return abs, true
	})
	if ok {
		details.ImageURL = imageURL
	}

	color, _, ok := FirstMatch(s.rules.Color, func(rule types.TextRule) (string, bool) {
		return ExtractText(doc.Selection, rule)
	})
	if !ok {
		color = DeriveColorLabel(details.Name)
	}
	details.Color = color

	return details, nil
}

// isDocumentTitle reports whether rule reads the page's <title> element,
// which carries the store name as well as the product name.
func isDocumentTitle(rule types.TextRule) bool {
	selector := strings.ToLower(strings.TrimSpace(rule.Selector))
	return rule.Attr == "" && (selector == "title" || selector == "head title" || selector == "head > title")
}

// FallbackDetails is used when the product page itself could not be fetched.
func (s *ShopifyAdapter) FallbackDetails(productURL string) *ProductDetails {
	name := DeslugifyName(productURL)
	return &ProductDetails{
		Name:        name,
		NameFromURL: true,
		Color:       DeriveColorLabel(name),
	}
}

// String describes the adapter for log lines.
func (s *ShopifyAdapter) String() string {
	return fmt.Sprintf("%s (%d listing, %d title, %d image rules)",
		s.GetStoreName(), len(s.rules.Listing), len(s.rules.Title), len(s.rules.Image))
}
