// Package ratelimit provides the process-wide admission gate for outbound CRM
// API calls. A single Limiter is shared by every session so that the upstream
// account-level rate limit is protected regardless of how many tenants are
// active: at most MaxConcurrent calls run at once, and successive dispatches
// are spaced at least MinInterval apart, admitted in submission order.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Options configure a Limiter.
type Options struct {
	// MinInterval is the minimum spacing between two successive call
	// dispatches. Defaults to 100ms.
	MinInterval time.Duration
	// MaxConcurrent caps the number of calls in flight. Defaults to 4.
	MaxConcurrent int
}

func (o *Options) withDefaults() Options {
	if o == nil {
		o = &Options{}
	}
	opts := *o
	if opts.MinInterval <= 0 {
		opts.MinInterval = 100 * time.Millisecond
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return opts
}

// Limiter throttles function execution. Both the spacing limiter and the
// concurrency semaphore admit waiters in FIFO order, so submission order is
// preserved for dispatch (completion order is up to the calls themselves).
type Limiter struct {
	opts    Options
	spacing *rate.Limiter
	slots   *semaphore.Weighted
}

// New constructs a Limiter. Pass nil options for defaults.
func New(opts *Options) *Limiter {
	options := opts.withDefaults()
	return &Limiter{
		opts:    options,
		spacing: rate.NewLimiter(rate.Every(options.MinInterval), 1),
		slots:   semaphore.NewWeighted(int64(options.MaxConcurrent)),
	}
}

// Do runs fn once admission is granted and returns whatever fn returns. The
// context bounds the wait for admission as well as fn itself; a cancelled
// context surfaces before fn runs. Failed calls are not retried.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("ratelimit: acquire slot: %w", err)
	}
	defer l.slots.Release(1)
	if err := l.spacing.Wait(ctx); err != nil {
		return fmt.Errorf("ratelimit: wait for dispatch slot: %w", err)
	}
	return fn(ctx)
}

// MinInterval reports the configured spacing between dispatches.
func (l *Limiter) MinInterval() time.Duration { return l.opts.MinInterval }

// MaxConcurrent reports the configured concurrency cap.
func (l *Limiter) MaxConcurrent() int { return l.opts.MaxConcurrent }
