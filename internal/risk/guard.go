// Package risk implements the pre-trade gates evaluated in a fixed
// order, first failure short-circuits: drawdown, margin, spread,
// circuit breaker.
package risk

import (
	"sync"
	"time"

	"github.com/Rajchodisetti/oracle-core/internal/errs"
	"github.com/Rajchodisetti/oracle-core/internal/observ"
)

// Check is the input to one pre-trade evaluation.
type Check struct {
	Equity            float64
	FreeMargin        float64
	RequiredMargin    float64
	SpreadPips        float64
	SpreadKnown       bool
	MaxSpreadPips     float64
}

// Guard evaluates the ordered gates and tracks the consecutive-loss
// circuit breaker. Safe for concurrent use.
type Guard struct {
	mu sync.Mutex

	cfg Config

	consecutiveLosses int
	cooldownUntil     time.Time
}

func New(cfg Config) *Guard {
	return &Guard{cfg: cfg}
}

// CheckAll runs the four gates in order. Returns the first failing
// gate's error, or nil if the trade is clear to proceed.
func (g *Guard) CheckAll(c Check) error {
	if err := g.checkDrawdown(c.Equity); err != nil {
		return err
	}
	if err := g.checkMargin(c.FreeMargin, c.RequiredMargin); err != nil {
		return err
	}
	if err := g.checkSpread(c.SpreadPips, c.SpreadKnown, c.MaxSpreadPips); err != nil {
		return err
	}
	if err := g.checkCircuitBreaker(); err != nil {
		return err
	}
	return nil
}

func (g *Guard) checkDrawdown(equity float64) error {
	if g.cfg.InitialBalance <= 0 {
		return nil
	}
	dd := (g.cfg.InitialBalance - equity) / g.cfg.InitialBalance * 100
	observ.SetGauge("risk_drawdown_pct", dd, nil)
	if dd >= g.cfg.DrawdownEmergencyPct {
		observ.IncCounter("risk_blocks_total", map[string]string{"gate": "drawdown", "kind": "emergency"})
		return errs.New(errs.Emergency, "emergency drawdown breached")
	}
	if dd >= g.cfg.DrawdownLimitPct {
		observ.IncCounter("risk_blocks_total", map[string]string{"gate": "drawdown", "kind": "limit"})
		return errs.New(errs.DrawdownLimit, "drawdown limit breached")
	}
	return nil
}

func (g *Guard) checkMargin(freeMargin, required float64) error {
	if freeMargin < required {
		observ.IncCounter("risk_blocks_total", map[string]string{"gate": "margin"})
		return errs.New(errs.InsufficientMargin, "free margin below required margin")
	}
	return nil
}

func (g *Guard) checkSpread(spreadPips float64, known bool, maxSpreadPips float64) error {
	if !known {
		if g.cfg.SpreadFailOpen {
			return nil
		}
		observ.IncCounter("risk_blocks_total", map[string]string{"gate": "spread", "kind": "unknown"})
		return errs.New(errs.SpreadUnknown, "current spread unknown, fail-closed policy")
	}
	if spreadPips > maxSpreadPips {
		observ.IncCounter("risk_blocks_total", map[string]string{"gate": "spread", "kind": "exceeded"})
		return errs.New(errs.SpreadExceeded, "current spread exceeds configured maximum")
	}
	return nil
}

func (g *Guard) checkCircuitBreaker() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cooldownUntil.IsZero() && time.Now().Before(g.cooldownUntil) {
		observ.IncCounter("risk_blocks_total", map[string]string{"gate": "circuit_breaker"})
		return errs.New(errs.CircuitBreakerOpen, "circuit breaker cooling down")
	}
	if !g.cooldownUntil.IsZero() && time.Now().After(g.cooldownUntil) {
		g.consecutiveLosses = 0
		g.cooldownUntil = time.Time{}
	}
	if g.consecutiveLosses >= g.cfg.MaxConsecutiveLosses {
		g.cooldownUntil = time.Now().Add(g.cfg.CooldownDuration)
		observ.IncCounter("risk_blocks_total", map[string]string{"gate": "circuit_breaker"})
		return errs.New(errs.CircuitBreakerOpen, "consecutive loss threshold reached")
	}
	return nil
}

// RecordResult updates the consecutive-loss counter: increments on a
// loss, resets to 0 otherwise.
func (g *Guard) RecordResult(pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pnl < 0 {
		g.consecutiveLosses++
	} else {
		g.consecutiveLosses = 0
	}
	observ.SetGauge("risk_consecutive_losses", float64(g.consecutiveLosses), nil)
}

// ResetCircuitBreaker manually re-arms the breaker, e.g. via an operator
// action.
func (g *Guard) ResetCircuitBreaker() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consecutiveLosses = 0
	g.cooldownUntil = time.Time{}
}

// ConsecutiveLosses reports the current streak, for health/telemetry.
func (g *Guard) ConsecutiveLosses() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.consecutiveLosses
}
