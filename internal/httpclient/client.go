// internal/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultRetries is the number of retry attempts after the initial
	// request when Options.Retries is left at zero.
	DefaultRetries = 3

	defaultTimeout     = 30 * time.Second
	defaultBackoffBase = 1 * time.Second
	maxErrorBodyBytes  = 512
)

type contextKey string

const instanceTokenKey contextKey = "instance_token"

// WithInstanceToken returns a context carrying the caller's instance token.
// Secured requests read the token back and attach it as a bearer header.
func WithInstanceToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, instanceTokenKey, token)
}

func InstanceTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(instanceTokenKey).(string); ok {
		return token
	}
	return ""
}

// HTTPError is returned when a request resolves with a non-success status.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Message)
}

// IsRetryable reports whether a status code indicates a transient upstream
// condition worth retrying.
func IsRetryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Options control a single request.
type Options struct {
	// Secured attaches the instance token from the context. The request
	// fails without one.
	Secured bool
	// Retries overrides the retry attempt count; zero means DefaultRetries
	// and a negative value disables retries.
	Retries int
	// Headers are added to the request verbatim.
	Headers map[string]string
	// MaxBodyBytes caps how much of the response body is read when > 0.
	MaxBodyBytes int64
}

// Client is the shared HTTP transport for all upstream calls. Transient
// failures (429, 502, 503, 504, and transport errors) are retried with
// exponential backoff before surfacing a typed error.
type Client struct {
	httpClient  *http.Client
	backoffBase time.Duration
}

func New() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		backoffBase: defaultBackoffBase,
	}
}

// NewWithBackoff builds a client with a custom backoff base, used by tests
// to keep retry sleeps short.
func NewWithBackoff(httpClient *http.Client, backoffBase time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		httpClient:  httpClient,
		backoffBase: backoffBase,
	}
}

// Do performs a request and returns the response body. A JSON body is
// marshaled once and replayed on every retry attempt.
func (c *Client) Do(ctx context.Context, method, url string, body interface{}, opts Options) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	var token string
	if opts.Secured {
		token = InstanceTokenFromContext(ctx)
		if token == "" {
			return nil, errors.New("secured request without an instance token")
		}
	}

	retries := opts.Retries
	if retries == 0 {
		retries = DefaultRetries
	}
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"url":     url,
				"attempt": attempt,
			}).Debug("Retrying upstream request")
		}

		respBody, err := c.doOnce(ctx, method, url, payload, token, opts)
		if err == nil {
			return respBody, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !IsRetryable(httpErr.StatusCode) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", retries, lastErr)
}

// DoJSON performs a request and decodes the JSON response into out when out
// is non-nil.
func (c *Client) DoJSON(ctx context.Context, method, url string, body, out interface{}, opts Options) error {
	respBody, err := c.Do(ctx, method, url, body, opts)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload []byte, token string, opts Options) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if opts.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, opts.MaxBodyBytes)
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    truncate(respBody, maxErrorBodyBytes),
			URL:        url,
		}
	}

	return respBody, nil
}

// sleep blocks for the backoff of the given attempt, doubling each time.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	backoff := c.backoffBase << (attempt - 1)
	select {
	case <-time.After(backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(body []byte, limit int) string {
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
