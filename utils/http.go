package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"swatch-extractor/internal/types"

	"github.com/dustin/go-humanize"
)

const (
	acceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptImage = "image/avif,image/webp,image/png,image/jpeg,image/*;q=0.8,*/*;q=0.5"
)

// PageFetcher is anything that can turn a URL into page content.
// HTTPClient and BrowserClient both implement it, so adapters do not care
// whether a page was fetched plainly or rendered by Chrome.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*types.Page, error)
}

// HTTPClient performs paced, single-attempt GET requests.
// Every request waits for the configured delay first, sends browser-like
// headers and reads at most the configured number of body bytes. A non-2xx
// status or a transport failure is reported as a *types.FetchError.
type HTTPClient struct {
	client   *http.Client
	config   *types.Config
	logger   types.Logger
	pacer    *Pacer
	maxBytes int64
	accept   string
}

// NewHTTPClient creates a client for HTML pages, paced by config.RequestDelay.
// Bodies are capped at config.MaxBodyBytes.
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	return newHTTPClient(config, logger, config.RequestDelay, config.MaxBodyBytes, acceptHTML)
}

// NewImageClient creates a client for image downloads, paced independently
// by config.ImageDelay.
func NewImageClient(config *types.Config, logger types.Logger) *HTTPClient {
	return newHTTPClient(config, logger, config.ImageDelay, config.MaxImageBytes, acceptImage)
}

func newHTTPClient(config *types.Config, logger types.Logger, delay time.Duration, maxBytes int64, accept string) *HTTPClient {
	client := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &HTTPClient{
		client:   client,
		config:   config,
		logger:   logger,
		pacer:    NewPacer(delay),
		maxBytes: maxBytes,
		accept:   accept,
	}
}

// Fetch waits for the politeness delay, then performs one GET request.
// Any transport failure or non-2xx status is returned as *types.FetchError.
// Cancellation of ctx before the request starts is returned as ctx.Err().
func (h *HTTPClient) Fetch(ctx context.Context, url string) (*types.Page, error) {
	if err := h.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.FetchError{URL: url, Cause: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", h.accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	h.logger.Debugf("Making request to %s", url)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &types.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	reader := io.Reader(resp.Body)
	if h.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, h.maxBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: url, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}
	if h.maxBytes > 0 && int64(len(body)) > h.maxBytes {
		return nil, &types.FetchError{
			URL:   url,
			Cause: fmt.Errorf("response body exceeds %s", humanize.IBytes(uint64(h.maxBytes))),
		}
	}

	h.logger.Debugf("Successfully retrieved %s from %s", humanize.Bytes(uint64(len(body))), url)

	return &types.Page{
		URL:         url,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Close releases idle connections.
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
