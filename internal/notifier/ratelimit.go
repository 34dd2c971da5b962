package notifier

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/julianstephens/shiftbell/internal/models"
)

// RateLimited bounds how fast Schedule and Cancel reach the wrapped port.
type RateLimited struct {
	Port
	limiter *rate.Limiter
}

// WithRateLimit wraps p. A non-positive perSecond returns p unchanged.
func WithRateLimit(p Port, perSecond, burst int) Port {
	if perSecond <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Port: p, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimited) Schedule(ctx context.Context, n models.ScheduledNotification) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.Port.Schedule(ctx, n)
}

func (r *RateLimited) Cancel(ctx context.Context, id string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.Port.Cancel(ctx, id)
}
