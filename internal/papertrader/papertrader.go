// Package papertrader simulates the exact same signal stream against an
// isolated account using frozen training-time cost parameters, so that
// drift between the model-as-trained and the model-as-executed can be
// measured independently of real broker conditions.
package papertrader

import (
	"sync"
	"time"

	"github.com/Rajchodisetti/oracle-core/internal/observ"
	"github.com/Rajchodisetti/oracle-core/internal/predictor"
	"github.com/Rajchodisetti/oracle-core/internal/vposition"
)

// Trade is one closed paper position, ready for persistence alongside
// real trades with Paper always true.
type Trade struct {
	Symbol      string
	Direction   int
	Intensity   int
	RealizedPnL float64
	ClosedAt    time.Time
	HMMState    int
}

// Trader owns one isolated virtual position per symbol, seeded from that
// symbol's training cost parameters — never from live broker costs.
type Trader struct {
	mu       sync.Mutex
	balance  float64
	initial  float64
	accounts map[string]*vposition.Position
}

func New(initialBalance float64) *Trader {
	return &Trader{
		balance:  initialBalance,
		initial:  initialBalance,
		accounts: make(map[string]*vposition.Position),
	}
}

// LoadSymbol registers a symbol's frozen training cost parameters. Must
// be called once the corresponding model has been loaded by the
// predictor, before any signal for that symbol is processed.
func (t *Trader) LoadSymbol(symbol string, cost vposition.CostParams) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accounts[symbol] = vposition.New(cost)
	observ.Log("paper_symbol_loaded", map[string]any{"symbol": symbol})
}

// ProcessSignal mirrors the executor's entry point: called with the same
// Signal the real executor receives, at the same point in the pipeline.
// Returns a Trade when the call closed a position (possibly followed by
// an immediate reopen, matching the predictor's own close-then-reopen
// semantics), or nil if nothing closed.
func (t *Trader) ProcessSignal(sig predictor.Signal) *Trade {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.accounts[sig.Symbol]
	if !ok {
		return nil
	}

	prevDir, prevIntensity := pos.Direction, pos.Intensity
	realized := pos.Update(sig.Action, sig.ClosePrice)
	closed := prevDir != 0 && (prevDir != pos.Direction || prevIntensity != pos.Intensity)
	if !closed {
		return nil
	}

	t.balance += realized
	observ.Observe("paper_realized_pnl", realized, map[string]string{"symbol": sig.Symbol})

	return &Trade{
		Symbol:      sig.Symbol,
		Direction:   prevDir,
		Intensity:   prevIntensity,
		RealizedPnL: realized,
		ClosedAt:    sig.Timestamp,
		HMMState:    sig.HMMState,
	}
}

// Balance reports the paper account's current balance across all
// symbols; Drift compares its growth with the real account's.
func (t *Trader) Balance() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// Drift reports the percentage divergence between paper and real
// balance growth, given the real account's current balance.
func (t *Trader) Drift(realBalance float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initial == 0 {
		return 0
	}
	paperGrowth := (t.balance - t.initial) / t.initial
	realGrowth := (realBalance - t.initial) / t.initial
	return (paperGrowth - realGrowth) * 100
}
