package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const failureBodyLimit = 1024

// timingConfig bounds a poster's request timeout, per-window rate, and
// retry backoff.
type timingConfig struct {
	timeout           time.Duration
	rateInterval      time.Duration
	rateBurst         int
	backoffMaxElapsed time.Duration
	backoffMax        time.Duration
	backoffInitial    time.Duration
}

var defaultTiming = timingConfig{
	timeout:           10 * time.Second,
	rateInterval:      1 * time.Second,
	rateBurst:         1,
	backoffMaxElapsed: 30 * time.Second,
	backoffMax:        10 * time.Second,
	backoffInitial:    1 * time.Second,
}

// webhookPoster delivers JSON payloads to a single webhook URL. Transient
// failures are retried with exponential backoff, a Retry-After header is
// honored verbatim, and deliveries are rate limited per prayer window so
// a flapping boundary cannot spam the destination.
type webhookPoster struct {
	logger      zerolog.Logger
	serviceName string
	webhookURL  string
	contentType string
	client      *retryablehttp.Client
	timing      timingConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newWebhookPoster(logger zerolog.Logger, serviceName, webhookURL, contentType string, timing timingConfig) *webhookPoster {
	// retryablehttp's own retry loop is disabled; postWithRetry owns the
	// policy so Retry-After and 4xx handling stay in one place.
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(context.Context, *http.Response, error) (bool, error) { return false, nil }
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timing.timeout}

	return &webhookPoster{
		logger:      logger,
		serviceName: serviceName,
		webhookURL:  webhookURL,
		contentType: contentType,
		client:      client,
		timing:      timing,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// waitForRateLimit blocks until the limiter for the given window admits a
// delivery, or the context ends.
func (p *webhookPoster) waitForRateLimit(ctx context.Context, window string) error {
	p.mu.Lock()
	limiter, ok := p.limiters[window]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(p.timing.rateInterval), p.timing.rateBurst)
		p.limiters[window] = limiter
	}
	p.mu.Unlock()

	return limiter.Wait(ctx)
}

func (p *webhookPoster) postWithRetry(ctx context.Context, payload []byte) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.timing.backoffInitial
	policy.MaxInterval = p.timing.backoffMax
	policy.MaxElapsedTime = p.timing.backoffMaxElapsed
	policy.Reset()

	for attempt := 1; ; attempt++ {
		err := p.postOnce(ctx, payload)
		if err == nil {
			return nil
		}

		delay, retry := retryDelay(err, policy)
		if !retry {
			return err
		}
		p.logger.Debug().
			Str("service", p.serviceName).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("delivery failed; retrying")
		if !pause(ctx, delay) {
			return ctx.Err()
		}
	}
}

// retryDelay decides whether a failed attempt should be retried and after
// how long. An upstream Retry-After hint wins over the backoff policy.
func retryDelay(err error, policy *backoff.ExponentialBackOff) (time.Duration, bool) {
	var hinted *retryAfterError
	if errors.As(err, &hinted) {
		return hinted.Duration, true
	}

	var transient *transientError
	if !errors.As(err, &transient) {
		return 0, false
	}
	delay := policy.NextBackOff()
	if delay == backoff.Stop {
		return 0, false
	}
	return delay, true
}

func (p *webhookPoster) postOnce(ctx context.Context, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.timing.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodPost, p.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", p.serviceName, err)
	}
	req.Header.Set("Content-Type", p.contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return &transientError{err: fmt.Errorf("%s request failed: %w", p.serviceName, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return p.classifyFailure(resp)
}

// classifyFailure maps a non-2xx response to a permanent, transient, or
// retry-after error.
func (p *webhookPoster) classifyFailure(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		cause := fmt.Errorf("%s rate limited: %s", p.serviceName, resp.Status)
		if wait, ok := retryAfterHint(resp.Header.Get("Retry-After")); ok {
			return &retryAfterError{Duration: wait, err: cause}
		}
		return &transientError{err: cause}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &transientError{err: fmt.Errorf("%s server error: %s", p.serviceName, resp.Status)}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, failureBodyLimit))
	if detail := strings.TrimSpace(string(body)); detail != "" {
		return fmt.Errorf("%s request failed: %s (%s)", p.serviceName, resp.Status, detail)
	}
	return fmt.Errorf("%s request failed: %s", p.serviceName, resp.Status)
}

// retryAfterHint parses a Retry-After header, which may carry either a
// delay in seconds or an HTTP date. Hints that are empty, non-positive, or
// already in the past are ignored.
func retryAfterHint(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait, true
		}
	}
	return 0, false
}

// pause sleeps for the given duration, returning false if the context
// ended first.
func pause(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// retryAfterError carries the delay advertised by the destination.
type retryAfterError struct {
	Duration time.Duration
	err      error
}

func (e *retryAfterError) Error() string {
	return fmt.Sprintf("rate limited; retry after %s", e.Duration)
}

func (e *retryAfterError) Unwrap() error { return e.err }
