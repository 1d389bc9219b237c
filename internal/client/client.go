// Package client calls the prediction service over an unreliable,
// possibly slow-starting network. It owns the retry protocol: per-attempt
// timeout, linear backoff between attempts, and error classification so
// only transient failures are masked from the caller.
package client

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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goldcast/internal/errs"
	"goldcast/models"
)

// Client is the resilient caller for the prediction service
type Client struct {
	httpClient     *http.Client
	baseURL        string
	retries        int
	attemptTimeout time.Duration
	baseDelay      time.Duration
	coldStartAfter time.Duration
	onColdStart    func(elapsed time.Duration)
	logger         zerolog.Logger
}

// Options holds options for creating a new Client
type Options struct {
	BaseURL        string
	Retries        int           // retry budget after the first attempt
	AttemptTimeout time.Duration // long enough to cover cold-start model loading
	BaseDelay      time.Duration // backoff grows linearly from this
	ColdStartAfter time.Duration // elapsed time on one attempt before OnColdStart fires
	OnColdStart    func(elapsed time.Duration)
}

// New creates a resilient prediction client
func New(opts Options) *Client {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.AttemptTimeout == 0 {
		opts.AttemptTimeout = 120 * time.Second
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = 2 * time.Second
	}
	if opts.ColdStartAfter == 0 {
		opts.ColdStartAfter = 10 * time.Second
	}

	return &Client{
		// Per-attempt deadlines come from the request context, not a
		// client-wide timeout.
		httpClient:     &http.Client{},
		baseURL:        opts.BaseURL,
		retries:        opts.Retries,
		attemptTimeout: opts.AttemptTimeout,
		baseDelay:      opts.BaseDelay,
		coldStartAfter: opts.ColdStartAfter,
		onColdStart:    opts.OnColdStart,
		logger:         log.With().Str("component", "client").Logger(),
	}
}

// linearBackOff grows the delay as base * attempt number, matching the
// pacing the upstream service's own data fetch uses.
type linearBackOff struct {
	base     time.Duration
	attempts int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempts++
	return b.base * time.Duration(b.attempts)
}

func (b *linearBackOff) Reset() {
	b.attempts = 0
}

// Predict calls the service, retrying transient failures up to the
// configured budget. On exhaustion it returns the last observed error,
// classified; well-formed 4xx responses are surfaced immediately.
func (c *Client) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	var result *models.PredictionResult
	attempt := 0

	operation := func() error {
		attempt++
		res, err := c.attempt(ctx, req)
		if err != nil {
			kind := errs.KindOf(err)
			if !retryable(kind) {
				c.logger.Debug().Int("attempt", attempt).Str("kind", string(kind)).Msg("Non-retryable failure")
				return backoff.Permanent(err)
			}
			c.logger.Warn().Int("attempt", attempt).Err(err).Msg("Attempt failed, will retry")
			return err
		}
		result = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: c.baseDelay}, uint64(c.retries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func retryable(kind errs.Kind) bool {
	switch kind {
	case errs.KindTransient, errs.KindNetwork, errs.KindTimeout:
		return true
	}
	return false
}

// errorPayload is the classified error shape the service returns
type errorPayload struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// attempt performs one bounded call against the service.
func (c *Client) attempt(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	// UX signal only: a pending attempt past this threshold usually
	// means the service is loading its model.
	start := time.Now()
	if c.onColdStart != nil {
		notify := time.AfterFunc(c.coldStartAfter, func() {
			c.onColdStart(time.Since(start))
		})
		defer notify.Stop()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+"/api/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, errs.New(errs.KindTimeout,
				"attempt did not complete within %s", c.attemptTimeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.KindNetwork, "request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "reading response: %v", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result models.PredictionResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, errs.New(errs.KindNetwork, "decoding response: %v", err)
		}
		return &result, nil

	case resp.StatusCode >= 500:
		return nil, errs.New(errs.KindTransient, "server error (%d): %s",
			resp.StatusCode, errorMessage(raw, resp.StatusCode))

	default:
		// Well-formed 4xx: final, never retried
		kind := errs.KindConfiguration
		if resp.StatusCode == http.StatusUnprocessableEntity {
			kind = errs.KindInsufficientHistory
		}
		var payload errorPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			// A 4xx stays final even if the payload names a retryable kind
			if parsed, ok := errs.ParseKind(payload.Kind); ok && !retryable(parsed) {
				kind = parsed
			}
		}
		return nil, errs.New(kind, "request rejected (%d): %s",
			resp.StatusCode, errorMessage(raw, resp.StatusCode))
	}
}

func errorMessage(raw []byte, status int) string {
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(status)
}
