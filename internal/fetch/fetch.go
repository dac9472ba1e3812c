package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
)

var (
	// ErrNotFound is returned for a 404; the unit of data does not exist
	// upstream and the caller should skip it without retrying.
	ErrNotFound = errors.New("fetch: not found")

	// ErrPermanent is returned for any other non-retryable 4xx.
	ErrPermanent = errors.New("fetch: permanent upstream error")
)

// Policy parameterizes the retry behavior shared by every outbound call:
// bounded attempts, fixed delay, retry only transient failures.
type Policy struct {
	MaxAttempts uint
	Delay       time.Duration
	MinInterval time.Duration
}

// DefaultPolicy matches the pacing the upstream rate limits tolerate
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		MinInterval: 150 * time.Millisecond,
	}
}

// Client wraps an HTTP client with the retry policy. Failures never
// propagate as panics; callers receive an error and treat the unit as
// unavailable.
type Client struct {
	rest   *resty.Client
	policy Policy

	mu       sync.Mutex
	lastCall time.Time
}

// New creates a fetch client with the given request timeout and policy
func New(timeout time.Duration, policy Policy) *Client {
	rest := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "wipesontrash-ingestion/1.0")

	return &Client{rest: rest, policy: policy}
}

// GetJSON performs a GET and decodes the response body into out.
// A decode failure on a 200 is treated as no-data (fail closed), not retried.
func (c *Client) GetJSON(ctx context.Context, url string, query, headers map[string]string, out interface{}) error {
	return c.do(ctx, url, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetHeaders(headers).
			SetHeader("Accept", "application/json").
			Get(url)
	}, out)
}

// PostJSON performs a POST with a JSON body and decodes the response into out
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	return c.do(ctx, url, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetBody(payload).
			Post(url)
	}, out)
}

// GetHTML performs a GET and returns the raw body, for DOM scraping
func (c *Client) GetHTML(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte
	err := c.do(ctx, url, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetHeaders(headers).
			Get(url)
	}, &body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// do runs one logical request under the retry policy: up to MaxAttempts
// attempts with a fixed delay, retrying only network errors, timeouts,
// 429 and 5xx. 404 and other 4xx fail immediately.
func (c *Client) do(ctx context.Context, url string, send func() (*resty.Response, error), out interface{}) error {
	c.pace()

	err := retry.Do(
		func() error {
			resp, err := send()
			if err != nil {
				// Timeout or network error: retryable
				metrics.RecordAPICall(url, "error")
				return fmt.Errorf("request failed: %w", err)
			}

			status := resp.StatusCode()
			metrics.RecordAPICall(url, fmt.Sprintf("%d", status))

			switch {
			case status == http.StatusOK:
				return decode(resp.Body(), out)

			case status == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("%w: %s", ErrNotFound, url))

			case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
				log.Warn().
					Str("url", url).
					Int("status", status).
					Msg("Retryable upstream status")
				return fmt.Errorf("upstream returned status %d", status)

			default:
				return retry.Unrecoverable(fmt.Errorf("%w: status %d from %s", ErrPermanent, status, url))
			}
		},
		retry.Attempts(c.policy.MaxAttempts),
		retry.Delay(c.policy.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return err
	}
	return nil
}

// decode fills out from body. A *[]byte target receives the raw bytes.
func decode(body []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// pace enforces the fixed minimum interval between consecutive calls
func (c *Client) pace() {
	if c.policy.MinInterval <= 0 {
		return
	}

	c.mu.Lock()
	wait := c.policy.MinInterval - time.Since(c.lastCall)
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}
