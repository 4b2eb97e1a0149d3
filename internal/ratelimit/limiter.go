// Package ratelimit provides admission-control backends. Every backend
// honours the same contract: calls with the same key share one quota,
// calls with different keys never affect each other.
package ratelimit

import "context"

type Limiter interface {
	// Limit consumes one unit of quota for key and reports whether the
	// call is admitted.
	Limit(ctx context.Context, key string) (bool, error)
}

// LimiterFunc adapts a plain function to Limiter.
type LimiterFunc func(ctx context.Context, key string) (bool, error)

func (f LimiterFunc) Limit(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}
