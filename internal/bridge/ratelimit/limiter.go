// Package ratelimit provides the Broker Bridge's leaky-bucket limiters,
// built on golang.org/x/time/rate rather than a hand-rolled bucket.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Buckets holds the Bridge's two independent limiters.
type Buckets struct {
	Trading *rate.Limiter
	History *rate.Limiter
}

// New builds the default buckets: trading-ops at tradingPerSec (default
// 50/s) and history-ops at historyPerSec (default 5/s), each with a
// burst equal to its own per-second rate.
func New(tradingPerSec, historyPerSec float64) *Buckets {
	if tradingPerSec <= 0 {
		tradingPerSec = 50
	}
	if historyPerSec <= 0 {
		historyPerSec = 5
	}
	return &Buckets{
		Trading: rate.NewLimiter(rate.Limit(tradingPerSec), int(tradingPerSec)),
		History: rate.NewLimiter(rate.Limit(historyPerSec), int(historyPerSec)),
	}
}

// AcquireTrading suspends the caller until a trading-ops token is free.
func (b *Buckets) AcquireTrading(ctx context.Context) error {
	return b.Trading.Wait(ctx)
}

// AcquireHistory suspends the caller until a history-ops token is free.
func (b *Buckets) AcquireHistory(ctx context.Context) error {
	return b.History.Wait(ctx)
}
