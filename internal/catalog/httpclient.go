package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trendsub/internal/services"
)

const maxBodyBytes = 8 << 20

// Getter performs a GET and returns the response body.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPOptions configures the outbound fetcher.
type HTTPOptions struct {
	UserAgent string
	Referer   string
	Timeout   time.Duration
	// Proxy is the effective proxy address. Empty means direct connections,
	// even when proxy variables are present in the environment.
	Proxy string
}

// HTTPClient sends browser-like GET requests to catalog hosts.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	referer   string
}

// NewHTTPClient builds the fetcher. It fails only when the proxy address is unparsable.
func NewHTTPClient(opts HTTPOptions) (*HTTPClient, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if proxy := strings.TrimSpace(opts.Proxy); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, services.Wrap(services.ErrConfiguration, "catalog", "proxy", fmt.Sprintf("invalid proxy address %q", proxy), err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout, Transport: transport},
		userAgent: opts.UserAgent,
		referer:   opts.Referer,
	}, nil
}

// Client exposes the underlying *http.Client so other API clients share the
// proxy and timeout settings.
func (c *HTTPClient) Client() *http.Client {
	return c.client
}

// Get fetches rawURL. Non-200 responses are reported as ErrFetch.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "get", fmt.Sprintf("%s (latency=%v)", rawURL, latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(services.ErrFetch, "catalog", "get", fmt.Sprintf("%s returned %d (latency=%v)", rawURL, resp.StatusCode, latency), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "read body", rawURL, err)
	}
	return body, nil
}
