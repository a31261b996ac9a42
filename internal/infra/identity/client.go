// Package identity provides the identity-provider client. The service
// treats uid and nickname as opaque authenticated strings; all validation
// happens at the provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
)

// VerifyEndpoint is the provider's token verification path.
const VerifyEndpoint = "/v1/tokens/verify"

// ClientConfig holds configuration for the identity client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
	CB      CBConfig
}

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// ErrUnauthorized is returned when the provider rejects the token.
var ErrUnauthorized = errors.New("token rejected by identity provider")

// Client implements domain.IdentityVerifier against the remote provider.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// verifyResponse is the provider's wire shape for a verified token.
type verifyResponse struct {
	UID      string `json:"uid"`
	Nickname string `json:"nickname"`
}

// New creates a new identity client with retry and circuit breaking.
func New(cfg ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: newRestyClient(cfg),
		cb:     newCircuitBreaker[*resty.Response]("identity", cfg.CB),
		logger: logger,
	}
}

// Verify resolves a bearer token into an authenticated principal.
// Provider rejection surfaces ErrUnauthorized; transport failures and open
// circuits surface as wrapped errors the handler maps to a retryable state.
func (c *Client) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		var result verifyResponse
		r, err := c.client.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetResult(&result).
			Post(VerifyEndpoint)
		if err != nil {
			return nil, err
		}
		// A rejected token is a provider decision, not a provider
		// failure; it must not trip the breaker.
		if r.StatusCode() == 401 || r.StatusCode() == 403 {
			return r, nil
		}
		if r.IsError() {
			return nil, fmt.Errorf("identity provider returned status %d", r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		c.logger.Warn("token verification failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("verifying token: %w", err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return nil, ErrUnauthorized
	}

	result := resp.Result().(*verifyResponse)

	return &domain.Identity{
		UID:      result.UID,
		Nickname: result.Nickname,
	}, nil
}

// HealthCheck verifies the provider is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}

// newRestyClient creates a Resty HTTP client with retry configuration.
func newRestyClient(cfg ClientConfig) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retry.MaxAttempts).
		SetRetryWaitTime(cfg.Retry.WaitTime).
		SetRetryMaxWaitTime(cfg.Retry.MaxWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on network errors or 5xx status codes; a rejected
			// token is final.
			if err != nil {
				return true
			}

			return r.StatusCode() >= 500
		})
}

// newCircuitBreaker creates a circuit breaker for the provider.
func newCircuitBreaker[T any](name string, cfg CBConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
