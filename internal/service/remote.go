package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/smartfarmer/backend/internal/domain"
)

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 256

// remoteClient performs JSON requests against a provider and classifies every
// failure into the domain error taxonomy.
type remoteClient struct {
	name       string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

func newRemoteClient(name string, timeout time.Duration, maxRetries int) *remoteClient {
	return &remoteClient{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: 250 * time.Millisecond,
	}
}

// getJSON GETs url and decodes the body into out. Network errors and 5xx are
// retried up to maxRetries times; 4xx and decode errors are not.
func (c *remoteClient) getJSON(ctx context.Context, url string, out any) error {
	newReq := func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxRetries)),
		ctx,
	)
	err := backoff.Retry(func() error { return c.attempt(newReq, out) }, b)
	return c.classify(err)
}

// postJSON POSTs body once and decodes the response into out.
func (c *remoteClient) postJSON(ctx context.Context, url string, body []byte, out any) error {
	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
	return c.classify(c.attempt(newReq, out))
}

func (c *remoteClient) attempt(newReq func() (*http.Request, error), out any) error {
	req, err := newReq()
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%s: failed to create request: %w", c.name, err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w: %v", c.name, domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("%s: status %d: %w: %s", c.name, resp.StatusCode, domain.ErrRemoteUnavailable, snippet)
		if resp.StatusCode >= 500 {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("%s: failed to decode response: %w: %v", c.name, domain.ErrMalformedResponse, err))
	}
	return nil
}

// classify makes sure anything that escaped attempt, such as a cancelled
// context reported by backoff, still reads as ErrRemoteUnavailable.
func (c *remoteClient) classify(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if err == nil || domain.IsAbsorbable(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", c.name, domain.ErrRemoteUnavailable, err)
}

// ping GETs url once and reports whether it answered 2xx.
func (c *remoteClient) ping(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create health request: %w", c.name, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: health check failed: %w: %v", c.name, domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: health check returned status %d: %w", c.name, resp.StatusCode, domain.ErrRemoteUnavailable)
	}
	return nil
}
