package newslate

import (
	"context"
	"errors"
	"time"

	"github.com/ZaguanLabs/newslate/logging"
	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig configures CircuitBreakerProvider.
type CircuitBreakerConfig struct {
	Name             string        // Breaker name for logs (default: "translate")
	MaxFailures      uint32        // Consecutive upstream failures that open the breaker (default: 5)
	OpenTimeout      time.Duration // How long the breaker stays open (default: 30s)
	HalfOpenRequests uint32        // Probe requests allowed while half-open (default: 1)
}

// CircuitBreakerProvider stops calling an upstream that keeps failing.
// Retryable failures (network, 429, 5xx) and expired call deadlines count
// against the upstream. Client errors such as an unsupported language and
// calls cancelled by the caller do not.
type CircuitBreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// NewCircuitBreakerProvider wraps provider with a circuit breaker.
func NewCircuitBreakerProvider(provider Provider, cfg CircuitBreakerConfig) *CircuitBreakerProvider {
	if cfg.Name == "" {
		cfg.Name = "translate"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	logger := logging.NewLogger("breaker")
	maxFailures := cfg.MaxFailures

	return &CircuitBreakerProvider{
		provider: provider,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.HalfOpenRequests,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: upstreamHealthy,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}),
	}
}

// Translate implements Provider. While the breaker is open it fails fast
// with a non-retryable ProviderError.
func (p *CircuitBreakerProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.provider.Translate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &ProviderError{Message: "translation service unavailable", Cause: err}
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// upstreamHealthy reports whether err leaves the breaker's view of the
// upstream unchanged.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !IsRetryable(err)
}

// State reports the breaker state: "closed", "half-open" or "open".
func (p *CircuitBreakerProvider) State() string {
	return p.breaker.State().String()
}
