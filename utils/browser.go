package utils

import (
	"context"
	"fmt"
	"time"

	"swatch-extractor/internal/types"

	"github.com/chromedp/chromedp"
)

// BrowserClient fetches pages through a headless Chrome so that markup
// rendered by JavaScript is visible to the extractors.
type BrowserClient struct {
	config *types.Config
	logger types.Logger
	pacer  *Pacer
	settle time.Duration
}

// NewBrowserClient creates a new browser client paced by config.RequestDelay.
// Each Fetch launches its own headless Chrome, so there is nothing to
// release between calls.
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	return &BrowserClient{
		config: config,
		logger: logger,
		pacer:  NewPacer(config.RequestDelay),
		settle: 500 * time.Millisecond,
	}
}

// Fetch renders url and returns the resulting document HTML.
func (b *BrowserClient) Fetch(ctx context.Context, url string) (*types.Page, error) {
	if err := b.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	html, err := b.GetPageContent(ctx, url)
	if err != nil {
		return nil, &types.FetchError{URL: url, Cause: err}
	}

	return &types.Page{
		URL:         url,
		Body:        []byte(html),
		ContentType: "text/html; charset=utf-8",
	}, nil
}

// GetPageContent retrieves the HTML content of a page using headless browser.
func (b *BrowserClient) GetPageContent(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(b.config.UserAgent))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithErrorf(b.logger.Debugf))
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	var html string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debugf("Successfully retrieved page content from %s (%d bytes)", url, len(html))
	return html, nil
}
