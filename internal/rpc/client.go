package rpc

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
	"golang.org/x/time/rate"
)

// ErrRateLimited signals the upstream rate-limit condition. It is the
// only fault class the client retries; everything else is terminal for
// that single call.
var ErrRateLimited = errors.New("rate limited")

// Client is the sole network egress point for chain RPC. Every remote
// call from higher components routes through Call.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxAttempts int
	baseBackoff time.Duration
	limiter     *rate.Limiter
	logger      *logrus.Logger

	// sleep is replaced in tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int           // attempt ceiling for rate-limited calls
	BaseBackoff time.Duration // first retry delay, doubled each attempt
	Limiter     *rate.Limiter // shared request pacing, optional
	Logger      *logrus.Logger
}

// NewClient creates a new RPC client with rate-limit retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     cfg.BaseURL,
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: cfg.BaseBackoff,
		limiter:     cfg.Limiter,
		logger:      cfg.Logger,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Call makes a JSON-RPC call. It retries only while the upstream
// signals rate limiting, with a doubling delay per attempt. Any other
// fault returns immediately; callers treat the error as "no data".
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	delay := c.baseBackoff

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		resp, err := c.doRequest(ctx, data)
		if err == nil {
			if rlerr := rateLimitError(resp); rlerr != nil {
				err = rlerr
			} else {
				if uerr := json.Unmarshal(resp, result); uerr != nil {
					return fmt.Errorf("failed to unmarshal response: %w", uerr)
				}
				return nil
			}
		}

		if !errors.Is(err, ErrRateLimited) {
			c.logger.WithError(err).WithField("method", method).Warn("rpc call failed")
			return err
		}

		c.logger.WithFields(logrus.Fields{
			"method":  method,
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warn("rate limit hit, backing off")

		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}

	return fmt.Errorf("%s: max attempts exceeded: %w", method, ErrRateLimited)
}

// rateLimitError reports whether a 200 response carries a JSON-RPC
// rate-limit error object. Some providers signal throttling in-band
// instead of via HTTP 429.
func rateLimitError(resp []byte) error {
	var probe struct {
		Error *RPCError `json:"error"`
	}
	if err := json.Unmarshal(resp, &probe); err != nil || probe.Error == nil {
		return nil
	}
	if probe.Error.Code == CodeRateLimited {
		return fmt.Errorf("rpc %d: %w", probe.Error.Code, ErrRateLimited)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("http 429: %w", ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}
