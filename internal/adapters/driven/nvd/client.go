// Package nvd provides a VulnerabilityRegistry backed by the NVD CVE API 2.0.
package nvd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.VulnerabilityRegistry = (*Client)(nil)

// Default configuration values.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
	DefaultUserAgent   = "cvescope"
)

// Outcomes reported to the metrics recorder.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeRetry    = "retry"
	outcomeFailed   = "failed"
)

// Config holds configuration for the NVD client.
type Config struct {
	// BaseURL is the CVE endpoint (default: domain.DefaultRegistryURL).
	BaseURL string

	// APIKey is sent in the apiKey header when set and raises the rate limit.
	APIKey string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// MaxAttempts is the total number of tries per fetch (default: 3).
	MaxAttempts int

	// RetryDelay is the fixed pause between attempts (default: 2s).
	RetryDelay time.Duration

	// UserAgent identifies the client (default: cvescope).
	UserAgent string
}

// Client fetches CVE records from the NVD.
type Client struct {
	client  *http.Client
	cfg     Config
	limiter *rate.Limiter
	metrics driven.MetricsRecorder
	sleep   func(ctx context.Context, d time.Duration) error
}

// cveResponse is the subset of the CVE API 2.0 response we read.
type cveResponse struct {
	TotalResults    int                       `json:"totalResults"`
	Vulnerabilities []domain.RawVulnerability `json:"vulnerabilities"`
}

// statusError is returned for non-200 responses.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Is reports 429 responses as domain.ErrRateLimited.
func (e *statusError) Is(target error) bool {
	return target == domain.ErrRateLimited && e.Code == http.StatusTooManyRequests
}

// errDecode marks bodies that cannot be parsed; these are not retried.
var errDecode = errors.New("decode registry response")

// NewClient creates a new NVD client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultRegistryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultRegistryTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	} else if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: newLimiter(cfg.APIKey != ""),
		sleep:   sleepCtx,
	}
}

// SetMetrics sets the recorder for request outcomes.
func (c *Client) SetMetrics(m driven.MetricsRecorder) {
	c.metrics = m
}

// Fetch returns the registry record for id. Unknown identifiers yield
// domain.ErrNotFound; exhausted retries yield *domain.NetworkError.
func (c *Client) Fetch(ctx context.Context, id string) (*domain.RawVulnerability, error) {
	cveID, err := domain.NormalizeCVEID(id)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		raw, err := c.fetchOnce(ctx, cveID)
		switch {
		case err == nil:
			c.record(outcomeOK, start)
			return raw, nil
		case errors.Is(err, domain.ErrNotFound):
			c.record(outcomeNotFound, start)
			return nil, err
		case errors.Is(err, errDecode):
			c.record(outcomeFailed, start)
			return nil, err
		case ctx.Err() != nil:
			c.record(outcomeFailed, start)
			return nil, ctx.Err()
		}

		lastErr = err
		c.record(outcomeRetry, start)
		logger.Warn("registry attempt %d/%d for %s failed: %v", attempt, c.cfg.MaxAttempts, cveID, err)
	}

	return nil, &domain.NetworkError{Attempts: c.cfg.MaxAttempts, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, cveID string) (*domain.RawVulnerability, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse registry url: %w", err)
	}
	q := endpoint.Query()
	q.Set("cveId", cveID)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("apiKey", c.cfg.APIKey)
	}

	logger.Debug("GET %s", endpoint.String())
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{Code: resp.StatusCode}
	}

	var body cveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}
	if body.TotalResults == 0 || len(body.Vulnerabilities) == 0 {
		return nil, fmt.Errorf("%s: %w", cveID, domain.ErrNotFound)
	}

	return &body.Vulnerabilities[0], nil
}

func (c *Client) record(outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RegistryRequest(outcome, time.Since(start))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
