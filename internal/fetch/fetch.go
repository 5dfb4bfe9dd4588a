// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch provides the shared HTTP client used by every download
// strategy: browser-like headers, per-request timeouts, redirect
// following, and a global outbound rate limit.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paperhound/pkg/types"
)

// maxBodySize bounds how much of a response is read into memory. Large
// enough for any paper PDF, small enough to survive a hostile endpoint.
const maxBodySize = 256 << 20

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string

	// FinalURL is the URL after redirects, used to resolve relative
	// references found in the body.
	FinalURL string
}

// OK reports whether the response has a 2xx status and a non-empty body.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300 && len(r.Body) > 0
}

// IsPDF reports whether the response declares a PDF content type.
func (r *Response) IsPDF() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "application/pdf")
}

// Client wraps http.Client with the shared header set, split timeouts for
// metadata versus binary requests, and a token-bucket rate limiter.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	metaT      time.Duration
	downloadT  time.Duration
	log        zerolog.Logger
}

// New builds a Client from cfg. The zero limiter (RequestsPerSecond == 0)
// disables rate limiting.
func New(cfg types.HTTPConfig, log zerolog.Logger) *Client {
	c := &Client{
		// Timeouts are applied per request via context; redirects are
		// followed by default.
		httpClient: &http.Client{},
		userAgent:  cfg.UserAgent,
		metaT:      cfg.MetadataTimeout,
		downloadT:  cfg.DownloadTimeout,
		log:        log,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Page fetches url with the metadata timeout, retrying on HTTP 429.
// Intended for API lookups, landing pages, and mirror HTML.
func (c *Client) Page(ctx context.Context, url string) (*Response, error) {
	return c.get(ctx, url, c.metaT, true)
}

// Download fetches url with the longer binary timeout. No 429 retry:
// a rate-limited PDF host is treated as a miss and the caller moves on.
func (c *Client) Download(ctx context.Context, url string) (*Response, error) {
	return c.get(ctx, url, c.downloadT, false)
}

func (c *Client) get(ctx context.Context, url string, timeout time.Duration, retry bool) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	var resp *http.Response
	if retry {
		resp, err = DoWithRetry(ctx, c.httpClient, req, 0)
	} else {
		resp, err = c.httpClient.Do(req)
	}
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	c.log.Debug().Str("url", url).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("fetched")

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    finalURL,
	}, nil
}
