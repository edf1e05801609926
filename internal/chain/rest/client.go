// Package rest is the JSON-over-HTTP transport shared by the connectors that
// talk to public REST gateways (TronGrid, Blockstream, toncenter).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrz1836/polywallet/internal/chain"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const (
	maxErrorBodySize    = 2 * 1024
	maxResponseBodySize = 4 * 1024 * 1024
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Client sends rate-limited, retried requests to one base URL.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	limiter    *chain.RateLimiter
	retry      chain.RetryConfig
	logger     chain.LogWriter
}

// New creates a client for baseURL using the shared connector options.
func New(baseURL string, opts chain.Options) *Client {
	opts = opts.WithDefaults()
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		headers:    make(map[string]string),
		httpClient: opts.HTTPClient,
		limiter:    opts.RateLimiter,
		retry:      opts.Retry,
		logger:     opts.Logger,
	}
}

// SetHeader adds a header sent with every request, e.g. an API key.
func (c *Client) SetHeader(key, value string) {
	if value == "" {
		delete(c.headers, key)
		return
	}
	c.headers[key] = value
}

// BaseURL returns the endpoint the client was created for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON issues a GET to path and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// PostJSON posts in as JSON and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, path, "application/json", payload)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// PostText posts a plain-text body and returns the trimmed response text.
func (c *Client) PostText(ctx context.Context, path, text string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, path, "text/plain", []byte(text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	url := c.baseURL + path

	return chain.Retry(ctx, c.retryConfig(method, path), func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, chain.WrapRetryable(walleterr.WithCause(walleterr.ErrNetworkError, err))
		}
		defer func() { _ = resp.Body.Close() }()

		c.logger.Debug("%s %s -> %d (%s)", method, url, resp.StatusCode, time.Since(start).Round(time.Millisecond))

		if resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, &chain.RateLimitedError{RetryAfter: chain.ParseRetryAfter(resp.Header.Get("Retry-After"))}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
			err := walleterr.WithCause(walleterr.ErrNetworkError, statusErr)
			if resp.StatusCode >= 500 {
				return nil, chain.WrapRetryable(err)
			}
			return nil, err
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		if err != nil {
			return nil, chain.WrapRetryable(walleterr.WithCause(walleterr.ErrNetworkError, err))
		}
		return body, nil
	})
}

// retryConfig returns the retry policy for a request. Only GETs are retried.
func (c *Client) retryConfig(method, path string) chain.RetryConfig {
	if method != http.MethodGet {
		return chain.NoRetry()
	}
	cfg := c.retry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Debug("retrying %s%s (attempt %d in %s): %v", c.baseURL, path, attempt, delay, err)
	}
	return cfg
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return walleterr.WithCause(walleterr.ErrNetworkError, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
