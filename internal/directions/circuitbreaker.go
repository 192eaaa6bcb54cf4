package directions

import (
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"frameworks/courierplan/internal/logging"
)

// circuitBreakerConfig configures the provider-call circuit breaker. Adapted
// from the teacher's pkg/clients/failsafe.go CircuitBreakerConfig, trimmed to
// the fields this client actually wires.
type circuitBreakerConfig struct {
	Name         string
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

func defaultCircuitBreakerConfig() circuitBreakerConfig {
	return circuitBreakerConfig{
		Name:         "directions-provider",
		Timeout:      15 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  10,
	}
}

type circuitBreaker struct {
	cb     circuitbreaker.CircuitBreaker[any]
	name   string
	logger logging.Logger
}

func newCircuitBreaker(cfg circuitBreakerConfig, logger logging.Logger) *circuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "directions-provider"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.5
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}

	failureThreshold := uint(float64(cfg.MinRequests) * cfg.FailureRatio)
	if failureThreshold < 1 {
		failureThreshold = 1
	}

	builder := circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(failureThreshold, uint(cfg.MinRequests)).
		WithDelay(cfg.Timeout).
		WithSuccessThreshold(1)

	if logger != nil {
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logger.WithFields(logging.Fields{
				"circuit_breaker": cfg.Name,
				"from_state":      event.OldState.String(),
				"to_state":        event.NewState.String(),
			}).Warn("directions circuit breaker state change")
		})
	}

	return &circuitBreaker{cb: builder.Build(), name: cfg.Name, logger: logger}
}

// call executes fn through the breaker; fn's returned error, if any, counts
// as a failure toward the trip threshold.
func (cb *circuitBreaker) call(fn func() (Result, error)) (Result, error) {
	v, err := failsafe.With(cb.cb).Get(func() (any, error) {
		res, callErr := fn()
		return res, callErr
	})
	if v == nil {
		return Result{}, err
	}
	return v.(Result), err
}

func (cb *circuitBreaker) isOpen() bool {
	return cb.cb.IsOpen()
}
