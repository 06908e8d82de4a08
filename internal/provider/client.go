package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mihrab-app/mihrab/internal/times"
)

const (
	defaultBaseURL = "https://api.aladhan.com/v1"
	// Muslim World League calculation method.
	defaultMethod = 2

	responseBodyLimit = 1 << 20
)

// apiResponse is the AlAdhan timings envelope. A code other than 200 in
// the payload is a failure even when the HTTP status is 200.
type apiResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings times.PrayerTimeSet `json:"timings"`
	} `json:"data"`
}

// Client fetches daily prayer times from the AlAdhan API.
type Client struct {
	baseURL string
	method  int
	client  *retryablehttp.Client
}

// ClientOption customizes the API client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL, primarily for testing.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithMethod selects the calculation method identifier.
func WithMethod(method int) ClientOption {
	return func(c *Client) {
		c.method = method
	}
}

// NewClient constructs an API client. Retries are disabled: the refresh
// cycle re-invokes the provider on its own cadence, so each invocation
// makes exactly one attempt.
func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timeout}

	c := &Client{
		baseURL: defaultBaseURL,
		method:  defaultMethod,
		client:  client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTimings retrieves and validates today's prayer times for the given
// coordinates.
func (c *Client) FetchTimings(ctx context.Context, lat, lon float64) (times.PrayerTimeSet, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", lat))
	params.Set("longitude", fmt.Sprintf("%f", lon))
	params.Set("method", fmt.Sprintf("%d", c.method))

	reqURL := fmt.Sprintf("%s/timings?%s", c.baseURL, params.Encode())
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build timings request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timings request failed: %s", resp.Status)
	}

	var payload apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyLimit)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode timings response: %w", err)
	}
	if payload.Code != http.StatusOK {
		return nil, fmt.Errorf("timings API error: code=%d status=%s", payload.Code, payload.Status)
	}
	if err := payload.Data.Timings.Validate(); err != nil {
		return nil, fmt.Errorf("malformed timings: %w", err)
	}

	return payload.Data.Timings, nil
}
