package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/ratelimit"
	"emojiharvest/pkg/retry"
)

// Page is one response of the emoji listing endpoint
type Page struct {
	Items      []Entry `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// Entry is one emoji as served by the API
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client fetches pages of the emoji listing
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	pageSize   int
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// ClientOption customises a Client
type ClientOption func(*Client)

// WithToken sends a bearer token with every request
func WithToken(token string) ClientOption {
	return func(c *Client) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithLimiter paces requests
func WithLimiter(l ratelimit.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithRetry overrides the retry policy
func WithRetry(cfg *retry.Config) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.headers["User-Agent"] = ua
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the listing at baseURL
func NewClient(baseURL string, pageSize int, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    u,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "emojiharvest",
		},
		pageSize: pageSize,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = retry.DefaultConfig()
		c.retry.Logger = c.logger
	}
	return c, nil
}

// FetchPage returns the page at cursor for mode. Empty mode and cursor
// are left out of the query.
func (c *Client) FetchPage(ctx context.Context, mode, cursor string) (*Page, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (*Page, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return c.fetch(ctx, c.pageURL(mode, cursor))
	}, c.retry)
}

func (c *Client) pageURL(mode, cursor string) string {
	u := *c.baseURL
	q := u.Query()
	if mode != "" {
		q.Set("mode", mode)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if c.pageSize > 0 {
		q.Set("limit", strconv.Itoa(c.pageSize))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    pageURL,
	})
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()
	logger.LogRequest(req.Method, pageURL, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusTooManyRequests {
			logger.LogRateLimit(pageURL, retryAfter(resp))
		}
		return nil, &errs.Error{
			Type:    errs.FromStatusCode(resp.StatusCode),
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("unexpected status: %s", string(body)),
		}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to decode page")
	}
	return &page, nil
}

func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
