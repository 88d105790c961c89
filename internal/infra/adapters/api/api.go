// api is the HTTP adapter for the catalog API. The same client also
// fetches manifests and subtitles, it implements both
// ports.ForCataloging and ports.ForFetching.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sa6mwa/funidl/internal/app/humanreadable"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

const (
	DefaultBaseURL = "https://prod-api-funimationnow.dadcdigital.com/api"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:91.0) Gecko/20100101 Firefox/91.0"
)

type Options struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	Token   string
	Timeout time.Duration
	// Proxy is an optional http(s) proxy url.
	Proxy string
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the catalog API. Timeout applies to every
// request, no request is retried.
func New(opts Options) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		token:   opts.Token,
		http:    &http.Client{Timeout: opts.Timeout, Transport: transport},
	}, nil
}

// Token is the authentication token requests are signed with.
func (c *Client) Token() string {
	return c.token
}

// HTTPClient returns the underlying client, configured with the
// timeout and proxy of the Client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Get fetches url, anything but 200 OK is an error.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %d %s", url, status, http.StatusText(status))
	}
	return body, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	l := logger.FromContext(req.Context())
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	l.Debug("HTTP request", "method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode, "size", humanreadable.IEC(int64(len(body))), "duration", time.Since(start))
	return body, resp.StatusCode, nil
}

// call performs an API request and decodes the JSON body into v
// whatever the status, error payloads are inspected by the caller.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, form url.Values, v any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	b, status, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		if status != http.StatusOK {
			return fmt.Errorf("%s %s: %d %s", method, path, status, http.StatusText(status))
		}
		return fmt.Errorf("%s %s: unable to decode response: %w", method, path, err)
	}
	return nil
}

func deviceInstanceID() string {
	return uuid.NewString()
}
