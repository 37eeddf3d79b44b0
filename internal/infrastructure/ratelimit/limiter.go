// Package ratelimit implements sliding-window limiters keyed by an arbitrary
// string (an email address, a client IP, a user id).
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is how long until the oldest counted event leaves the window.
	ResetIn time.Duration
}

// Limiter admits at most Limit events per key inside any Window-long span.
// Denied attempts are not counted.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
