// Package http fetches pages for the crawler.
package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/PentesterFlow/icscrawl/internal/errors"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 5 * 1024 * 1024

// ClientConfig holds configuration for the downloader.
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConnsPerHost int
	UserAgent           string
	MaxBodyBytes        int64
	MaxRedirects        int
	Retry               errors.RetryConfig
}

// DefaultClientConfig returns defaults. Retries are off.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 10,
		UserAgent:           "IR UW25 icscrawl",
		MaxBodyBytes:        DefaultMaxBodyBytes,
		MaxRedirects:        10,
		Retry:               errors.DefaultRetryConfig(),
	}
}

// Response is the outcome of one fetch.
type Response struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	// Err is set for transport failures and every status other than 200.
	Err      error
	Duration time.Duration
	Attempts int
}

// OK reports whether the fetch produced a 200 response.
func (r *Response) OK() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

// Client is a crawler HTTP client.
type Client struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	retrier      *errors.Retrier
}

// NewClient creates a new client.
func NewClient(config ClientConfig) *Client {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = 10
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	maxRedirects := config.MaxRedirects
	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:    config.UserAgent,
		maxBodyBytes: config.MaxBodyBytes,
		retrier:      errors.NewRetrier(config.Retry),
	}
}

// Fetch downloads targetURL. It never returns nil; failures are reported
// in Response.Err.
func (c *Client) Fetch(ctx context.Context, targetURL string) *Response {
	start := time.Now()

	resp, result := errors.DoWithResult(ctx, c.retrier, "fetch", targetURL, func(ctx context.Context) (*Response, error) {
		r := c.get(ctx, targetURL)
		return r, r.Err
	})

	if resp == nil {
		resp = &Response{URL: targetURL}
	}
	if !result.Success && resp.Err == nil {
		resp.Err = result.LastError
	}
	resp.Attempts = result.Attempts
	resp.Duration = time.Since(start)
	return resp
}

func (c *Client) get(ctx context.Context, targetURL string) *Response {
	result := &Response{URL: targetURL, FinalURL: targetURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Err = errors.NewMalformedURLError(targetURL, err)
		return result
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		result.Err = errors.Categorize(err, targetURL)
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.FinalURL = resp.Request.URL.String()
	result.ContentType = resp.Header.Get("Content-Type")

	if httpErr := errors.CategorizeHTTPStatus(resp.StatusCode, targetURL); httpErr != nil {
		result.Err = httpErr
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		result.Err = errors.NewNetworkError(targetURL, "body_read", fmt.Errorf("read body: %w", err))
		return result
	}
	result.Body = body

	return result
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
