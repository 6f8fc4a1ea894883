package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"defi-assistant/observability"
)

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	MaxRequests uint32        // max requests allowed in half-open state
	Interval    time.Duration // cyclic period of the closed state to clear counts
	Timeout     time.Duration // period of the open state before transitioning to half-open
}

var DefaultCircuitBreakerConfig = CircuitBreakerConfig{
	MaxRequests: 3,
	Interval:    1 * time.Minute,
	Timeout:     30 * time.Second,
}

// Circuit breaker names for external services
const (
	BreakerCoinGecko = "coingecko"
	BreakerNewsAPI   = "newsapi"
	BreakerOpenAI    = "openai"
	BreakerBedrock   = "bedrock"
)

// CircuitBreakerRegistry manages circuit breakers for different services
type CircuitBreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	config   CircuitBreakerConfig
}

// NewCircuitBreakerRegistry creates a new registry with the given config
func NewCircuitBreakerRegistry(config CircuitBreakerConfig) *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		config:   config,
	}
}

// GetBreaker returns (or creates) a circuit breaker for the given service name
func (r *CircuitBreakerRegistry) GetBreaker(name string) *gobreaker.CircuitBreaker[any] {
	r.mu.RLock()
	cb, exists := r.breakers[name]
	r.mu.RUnlock()

	if exists {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, exists = r.breakers[name]; exists {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: r.config.MaxRequests,
		Interval:    r.config.Interval,
		Timeout:     r.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		// Caller cancellations and 4xx answers say nothing about upstream health
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Retryable()
			}
			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			observability.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())

			metrics := observability.GetMetrics()
			metrics.SetCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(name)
			}
		},
	}

	cb = gobreaker.NewCircuitBreaker[any](settings)
	r.breakers[name] = cb

	return cb
}

// Execute runs the given function through the named circuit breaker
func (r *CircuitBreakerRegistry) Execute(ctx context.Context, name string, fn func() (any, error)) (any, error) {
	cb := r.GetBreaker(name)

	result, err := cb.Execute(func() (any, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return fn()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		observability.Warn("circuit breaker open, rejecting request", "breaker", name)
		return nil, fmt.Errorf("%s: circuit breaker open: %w", name, ErrServiceUnavailable)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.Warn("circuit breaker half-open, too many requests", "breaker", name)
		return nil, fmt.Errorf("%s: too many requests in half-open state: %w", name, ErrServiceUnavailable)
	}

	return result, err
}

// Status returns the current state of all circuit breakers, sorted by name
func (r *CircuitBreakerRegistry) Status() []CircuitBreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make([]CircuitBreakerStatus, 0, len(r.breakers))
	for name, cb := range r.breakers {
		counts := cb.Counts()
		status = append(status, CircuitBreakerStatus{
			Name:             name,
			State:            cb.State().String(),
			Requests:         counts.Requests,
			TotalSuccesses:   counts.TotalSuccesses,
			TotalFailures:    counts.TotalFailures,
			ConsecutiveFails: counts.ConsecutiveFailures,
		})
	}
	sort.Slice(status, func(i, j int) bool { return status[i].Name < status[j].Name })
	return status
}

// State returns the state name of the named breaker, or "closed" if it has never been used
func (r *CircuitBreakerRegistry) State(name string) string {
	r.mu.RLock()
	cb, exists := r.breakers[name]
	r.mu.RUnlock()
	if !exists {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

// CircuitBreakerStatus represents the current state of a circuit breaker
type CircuitBreakerStatus struct {
	Name             string `json:"name"`
	State            string `json:"state"`
	Requests         uint32 `json:"requests"`
	TotalSuccesses   uint32 `json:"total_successes"`
	TotalFailures    uint32 `json:"total_failures"`
	ConsecutiveFails uint32 `json:"consecutive_failures"`
}

var (
	globalRegistry *CircuitBreakerRegistry
	registryMu     sync.RWMutex
)

// GetGlobalRegistry returns the global circuit breaker registry
func GetGlobalRegistry() *CircuitBreakerRegistry {
	registryMu.RLock()
	r := globalRegistry
	registryMu.RUnlock()
	if r != nil {
		return r
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if globalRegistry == nil {
		globalRegistry = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	}
	return globalRegistry
}

// SetGlobalRegistry replaces the global registry; tests use it for isolation
func SetGlobalRegistry(r *CircuitBreakerRegistry) {
	registryMu.Lock()
	globalRegistry = r
	registryMu.Unlock()
}

// WithCircuitBreaker wraps a function call with circuit breaker protection
func WithCircuitBreaker[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	result, err := GetGlobalRegistry().Execute(ctx, name, func() (any, error) {
		return fn()
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result.(T), nil
}

// stateToInt converts a circuit breaker state to an integer for metrics
// 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
