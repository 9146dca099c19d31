package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerProvider stops calling a failing provider for a while. Quota and
// transport errors tend to come in bursts, and every sentence of an article
// would otherwise hit the same wall.
type BreakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker
}

// NewBreakerProvider opens the circuit after failures consecutive synthesis
// errors and probes again after timeout.
func NewBreakerProvider(p Provider, failures uint32, timeout time.Duration, logger *zap.Logger) *BreakerProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if failures == 0 {
		failures = 1
	}

	settings := gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// A stop or an article switch is not the provider's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("synthesis circuit changed state",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerProvider{
		Provider: p,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Synthesize runs the wrapped provider through the circuit breaker
func (b *BreakerProvider) Synthesize(ctx context.Context, text string) (Clip, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.Provider.Synthesize(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Clip{}, fmt.Errorf("%s synthesis suspended: %w", b.Provider.Name(), err)
		}
		return Clip{}, err
	}
	return out.(Clip), nil
}

// Name returns the provider name
func (b *BreakerProvider) Name() string {
	return b.Provider.Name()
}

// State reports the breaker state, mostly for status output
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}
