package services

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/julianjca/op-portfolio-tracker/internal/metrics"
)

// Throttle gates calls to a rate-sensitive upstream
type Throttle interface {
	Wait(ctx context.Context) error
}

// IntervalThrottle lets one call through per interval. The first call is not delayed.
type IntervalThrottle struct {
	limiter *rate.Limiter
}

// NewIntervalThrottle returns a throttle spacing calls by at least interval.
// A non-positive interval disables throttling.
func NewIntervalThrottle(interval time.Duration) Throttle {
	if interval <= 0 {
		return NoThrottle{}
	}
	return &IntervalThrottle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next call is allowed or ctx is done
func (t *IntervalThrottle) Wait(ctx context.Context) error {
	start := time.Now()
	err := t.limiter.Wait(ctx)
	metrics.ThrottleWaitSeconds.Observe(time.Since(start).Seconds())
	return err
}

// NoThrottle never waits
type NoThrottle struct{}

func (NoThrottle) Wait(ctx context.Context) error {
	return ctx.Err()
}
