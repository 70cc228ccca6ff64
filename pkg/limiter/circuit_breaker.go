package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/driftline/embedkit/embeddings"
)

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Name        string                             `json:"name"`
	MaxRequests uint32                             `json:"max_requests"`
	Interval    time.Duration                      `json:"interval"`
	Timeout     time.Duration                      `json:"timeout"`
	ReadyToTrip func(counts gobreaker.Counts) bool `json:"-"`
}

// DefaultCircuitBreakerConfig returns a default circuit breaker configuration
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Open circuit if failure rate is > 50% and we have at least 5 requests
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	}
}

// BreakerTransport wraps a Transport with a circuit breaker so a dead
// endpoint fails fast instead of burning the engine's gas on doomed sends.
// Only transport-level failures count against the breaker: an API error
// body is a completed exchange and passes through as a success.
type BreakerTransport struct {
	next    embeddings.Transport
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerTransport wraps the given transport.
func NewBreakerTransport(next embeddings.Transport, config *CircuitBreakerConfig, logger *zap.Logger) *BreakerTransport {
	if config == nil {
		config = DefaultCircuitBreakerConfig("embeddings")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: config.ReadyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &BreakerTransport{
		next:    next,
		breaker: breaker,
		logger:  logger,
	}
}

// Send forwards the batch through the breaker. A rejected call (open
// circuit) surfaces as a TransportError, which the resilient engine treats
// like any other transport failure.
func (t *BreakerTransport) Send(ctx context.Context, batch []string) ([]byte, error) {
	result, err := t.breaker.Execute(func() (interface{}, error) {
		return t.next.Send(ctx, batch)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &embeddings.TransportError{Err: err}
		}
		return nil, err
	}
	return result.([]byte), nil
}

// State returns the breaker's current state.
func (t *BreakerTransport) State() gobreaker.State {
	return t.breaker.State()
}
