// Package ratelimit provides the pacing primitive provider calls are
// scheduled through: a minimum interval between the start of successive
// calls plus a bounded number of concurrently executing calls (one, for
// every limiter this system creates).
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter serializes and paces calls. Acquire admits a call once a slot is
// free and the pacing interval since the previous admitted start has
// elapsed; the returned release must be called when the underlying call
// finishes, even if the caller stopped waiting for it.
type Limiter struct {
	pace  *rate.Limiter
	slots chan struct{}
}

// NewLimiter creates a limiter admitting at most concurrency simultaneous
// calls, with at least minInterval between successive starts. A
// non-positive minInterval disables pacing; concurrency below one is
// raised to one.
func NewLimiter(minInterval time.Duration, concurrency int) *Limiter {
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Limiter{
		pace:  rate.NewLimiter(limit, 1),
		slots: make(chan struct{}, concurrency),
	}
}

// Acquire blocks until the limiter admits a call or ctx is done. On success
// it returns a release function that frees the execution slot; release is
// safe to call more than once.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquiring slot: %w", ctx.Err())
	}

	if err := l.pace.Wait(ctx); err != nil {
		<-l.slots
		return nil, fmt.Errorf("pacing wait: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.slots })
	}, nil
}

// Registry owns the global limiter shared by all providers and the lazily
// created per-provider limiters. Limiter state is process-wide: a provider's
// limiter is created on first use and reused for the process lifetime.
type Registry struct {
	mu               sync.Mutex
	global           *Limiter
	perProvider      map[string]*Limiter
	providerInterval time.Duration
}

const defaultGlobalConcurrency = 16

// NewRegistry creates a Registry. globalInterval and globalConcurrency pace
// and cap all outbound calls collectively; providerInterval paces each
// provider independently, with one call in flight per provider so calls to
// the same marketplace execute strictly in submission order.
func NewRegistry(globalInterval time.Duration, globalConcurrency int, providerInterval time.Duration) *Registry {
	if globalConcurrency < 1 {
		globalConcurrency = defaultGlobalConcurrency
	}
	return &Registry{
		global:           NewLimiter(globalInterval, globalConcurrency),
		perProvider:      make(map[string]*Limiter),
		providerInterval: providerInterval,
	}
}

// Global returns the limiter shared across all providers.
func (r *Registry) Global() *Limiter {
	return r.global
}

// Provider returns the limiter for the named provider, creating it on first
// use. Names are case-insensitive.
func (r *Registry) Provider(name string) *Limiter {
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.perProvider[key]
	if !ok {
		l = NewLimiter(r.providerInterval, 1)
		r.perProvider[key] = l
	}
	return l
}

// Acquire schedules a call for the named provider through both gates,
// global first. The returned release frees both slots.
func (r *Registry) Acquire(ctx context.Context, provider string) (func(), error) {
	releaseGlobal, err := r.global.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	releaseProvider, err := r.Provider(provider).Acquire(ctx)
	if err != nil {
		releaseGlobal()
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			releaseProvider()
			releaseGlobal()
		})
	}, nil
}
