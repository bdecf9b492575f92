package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/errs"
)

// RateLimited wraps a Fetcher and spaces calls per provider. Providers without
// a limiter are not throttled.
type RateLimited struct {
	F        Fetcher
	limiters map[string]*rate.Limiter
}

func NewRateLimited(f Fetcher) *RateLimited {
	return &RateLimited{F: f, limiters: make(map[string]*rate.Limiter)}
}

// Limit allows perMinute calls to provider with the given burst. A
// non-positive perMinute removes the limit. Limit is not safe to call
// concurrently with Fetch.
func (r *RateLimited) Limit(provider string, perMinute, burst int) *RateLimited {
	if perMinute <= 0 {
		delete(r.limiters, provider)
		return r
	}
	if burst <= 0 {
		burst = 1
	}
	r.limiters[provider] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	return r
}

func (r *RateLimited) Fetch(ctx context.Context, req dto.FetchRequest) (binding.Value, error) {
	if l, ok := r.limiters[req.Provider]; ok {
		if err := l.Wait(ctx); err != nil {
			return binding.Value{}, errs.NewExternalServiceError(req.Provider, "rate limit wait aborted", true, err)
		}
	}
	return r.F.Fetch(ctx, req)
}
