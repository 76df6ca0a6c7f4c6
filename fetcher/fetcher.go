// Package fetcher provides HTTP fetching with optional headless browser
// rendering for listing pages.
//
// A Client wraps one underlying HTTP session so a profile fan-out batch can
// reuse connections across its child fetches. Rendering is a separate,
// optional step: its failure is never fatal to the caller.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default request headers, matching what the marketplace serves best.
const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/123.0.0.0 Safari/537.36"
	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.9"
)

// Options configures fetching and rendering behavior.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	ChromePath string // path to a Chrome binary; empty = auto-detect
}

func (o *Options) defaults() {
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
}

// Result contains a fetched document and its metadata.
type Result struct {
	Body       string
	StatusCode int
	FinalURL   string // URL after following redirects
	Query      url.Values
}

// RenderResult contains the rendered DOM markup and the page's final URL.
type RenderResult struct {
	HTML     string
	FinalURL string
}

// Client performs HTTP requests over one reusable session.
type Client struct {
	http *http.Client
	opts Options
}

// New creates a Client. The underlying connection pool is shared by every
// request made through it.
func New(opts Options) *Client {
	opts.defaults()
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// Options returns the client's effective options.
func (c *Client) Options() Options {
	return c.opts
}

// Get fetches a URL, following redirects, and returns the body, status, and
// final URL. Extra query parameters are merged into the request URL.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Result, error) {
	if len(params) > 0 {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		merged := parsed.Query()
		for key, values := range params {
			for _, value := range values {
				merged.Set(key, value)
			}
		}
		parsed.RawQuery = merged.Encode()
		rawURL = parsed.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	final := resp.Request.URL
	return &Result{
		Body:       string(body),
		StatusCode: resp.StatusCode,
		FinalURL:   final.String(),
		Query:      final.Query(),
	}, nil
}

// Render loads a URL in headless Chrome and returns the final DOM markup
// after the page settles. Navigation that never reaches idleness degrades to
// whatever markup is present once the document is ready.
func Render(ctx context.Context, targetURL string, opts Options) (*RenderResult, error) {
	opts.defaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	timeout := opts.Timeout
	if timeout < time.Second {
		timeout = time.Second
	}
	runCtx, cancelTimeout := context.WithTimeout(allocCtx, timeout)
	defer cancelTimeout()

	browserCtx, cancelBrowser := chromedp.NewContext(runCtx)
	defer cancelBrowser()

	var html, finalURL string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers(map[string]any{
			"Accept":          acceptHeader,
			"Accept-Language": acceptLanguageHeader,
		})),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Let streamed payloads and hydration settle; networkidle has no
		// direct equivalent in the devtools protocol.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser render: %w", err)
	}
	return &RenderResult{HTML: html, FinalURL: finalURL}, nil
}
