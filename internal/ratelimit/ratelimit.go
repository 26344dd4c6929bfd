// Package ratelimit spaces outbound attempts against the marketplace.
// Delays are jittered so request timing does not look mechanical.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

// JitteredLimiter enforces a randomized minimum gap between consecutive
// attempts. Safe for concurrent use.
type JitteredLimiter struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	rng        *rand.Rand
}

func NewJitteredLimiter(minDelay, maxDelay time.Duration) *JitteredLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &JitteredLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (l *JitteredLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	delay := l.nextDelay()
	elapsed := time.Since(l.lastAction)
	wait := delay - elapsed
	l.lastAction = time.Now().Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (l *JitteredLimiter) SetDelay(min, max time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minDelay = min
	l.maxDelay = max
	if l.maxDelay < l.minDelay {
		l.maxDelay = l.minDelay
	}
}

func (l *JitteredLimiter) nextDelay() time.Duration {
	if l.maxDelay == l.minDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(l.rng.Int63n(int64(l.maxDelay-l.minDelay)))
}

// NopLimiter never waits. Used in tests and when spacing is disabled.
type NopLimiter struct{}

func (NopLimiter) Wait(ctx context.Context) error { return ctx.Err() }
func (NopLimiter) SetDelay(min, max time.Duration) {}
