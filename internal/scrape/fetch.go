package scrape

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"jobscrape-engine/internal/config"
)

// Fetcher returns the server-rendered markup for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// HTTPFetcher is the production Fetcher: browser-like headers, bounded
// timeout and body size, per-host rate limit, body decoded to UTF-8.
type HTTPFetcher struct {
	hc        *http.Client
	limiter   *HostLimiter
	userAgent string
	maxBody   int64
}

func NewHTTPFetcher(cfg config.ScrapeConfig, limiter *HostLimiter) *HTTPFetcher {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 << 20
	}
	return &HTTPFetcher{
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		limiter:   limiter,
		userAgent: ua,
		maxBody:   maxBody,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return "", eris.Wrap(err, "fetch: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetch: build request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.hc.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetch: request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", eris.Errorf("fetch: status %d", resp.StatusCode)
	}

	br := bufio.NewReader(io.LimitReader(resp.Body, f.maxBody))
	peek, _ := br.Peek(1024)
	enc, _, _ := charset.DetermineEncoding(peek, resp.Header.Get("Content-Type"))

	b, err := io.ReadAll(transform.NewReader(br, enc.NewDecoder()))
	if err != nil {
		return "", eris.Wrap(err, "fetch: read body")
	}
	return string(b), nil
}
