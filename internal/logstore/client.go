// Package logstore executes bounded range queries against the log store's
// HTTP endpoint.
package logstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/auth"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/config"
	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/resolve"
)

// Authenticator is the interface for adding authentication to requests
type Authenticator interface {
	Authenticate(req *http.Request) error
}

// Client is an HTTP client for the log store range-query endpoint
type Client struct {
	httpClient    *http.Client
	config        *config.Config
	logger        *zap.Logger
	rateLimiter   *rate.Limiter
	authenticator Authenticator
}

// New creates a new log store client
func New(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	authenticator, err := auth.New(cfg.Token, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.RetrievalTimeout,
	}

	var rateLimiter *rate.Limiter
	if cfg.EnableRateLimit {
		rateLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)
	}

	return &Client{
		httpClient:    httpClient,
		config:        cfg,
		logger:        logger,
		rateLimiter:   rateLimiter,
		authenticator: authenticator,
	}, nil
}

// FetchLogs executes one bounded range query. Retry with exponential
// backoff happens at this boundary only; on exhaustion the last failure
// surfaces as a RetrievalError.
func (c *Client) FetchLogs(ctx context.Context, query *resolve.Query) (*QueryResponse, error) {
	var lastErr *perrors.RetrievalError

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			shift := min(attempt-1, 30)
			waitTime := c.config.RetryWaitMin * time.Duration(1<<shift)
			if waitTime > c.config.RetryWaitMax {
				waitTime = c.config.RetryWaitMax
			}

			c.logger.Debug("Retrying log store request",
				zap.Int("attempt", attempt),
				zap.Duration("wait", waitTime),
			)

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, perrors.NewRetrievalTransport(ctx.Err())
			}
		}

		resp, err := c.doRequest(ctx, query)
		if err != nil {
			lastErr = perrors.NewRetrievalTransport(err)
			if isRetryable(err) {
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = perrors.NewRetrievalStatus(resp.StatusCode, string(resp.Body))
			if shouldRetry(resp.StatusCode) {
				continue
			}
			return nil, lastErr
		}

		var result QueryResponse
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			return nil, perrors.NewRetrievalTransport(fmt.Errorf("failed to parse response: %w", err))
		}
		return &result, nil
	}

	return nil, lastErr
}

type rawResponse struct {
	StatusCode int
	Body       []byte
}

func (c *Client) doRequest(ctx context.Context, query *resolve.Query) (*rawResponse, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf(`{container=%q}`, query.Container))
	params.Set("start", strconv.FormatInt(query.Start, 10))
	params.Set("end", strconv.FormatInt(query.End, 10))
	params.Set("limit", strconv.Itoa(query.Limit))
	requestURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if err := c.authenticator.Authenticate(httpReq); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	c.logger.Debug("Executing log store request",
		zap.String("container", query.Container),
		zap.Int64("start", query.Start),
		zap.Int64("end", query.End),
		zap.Int("limit", query.Limit),
	)

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Log store request failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Log store request completed",
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
		zap.Int("response_size", len(body)),
	)

	return &rawResponse{
		StatusCode: httpResp.StatusCode,
		Body:       body,
	}, nil
}

// isRetryable determines if an error is retryable (transient network errors)
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH) ||
			errors.Is(opErr.Err, syscall.ETIMEDOUT) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset",
		"connection refused",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"tls handshake timeout",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// shouldRetry determines if an HTTP status code should trigger a retry
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
