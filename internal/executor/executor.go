// Package executor ties the sync state machine, risk guard, price
// converter and broker bridge together: for every Signal it decides
// whether to do nothing, close, wait, or open, and returns a bounded
// acknowledgement.
package executor

import (
	"context"
	"sync"

	"github.com/Rajchodisetti/oracle-core/internal/bridge"
	"github.com/Rajchodisetti/oracle-core/internal/errs"
	"github.com/Rajchodisetti/oracle-core/internal/observ"
	"github.com/Rajchodisetti/oracle-core/internal/predictor"
	"github.com/Rajchodisetti/oracle-core/internal/priceconv"
	"github.com/Rajchodisetti/oracle-core/internal/risk"
	syncfsm "github.com/Rajchodisetti/oracle-core/internal/sync"
)

// Ack is the bounded acknowledgement returned for every signal
// processed, regardless of which branch fired.
type Ack struct {
	Status    string // "OK", "SKIP", "ERROR"
	Reason    string
	Ticket    string
	FillPrice float64
}

func (a Ack) String() string { return a.Status + "/" + a.Reason }

func ok(reason string) Ack    { return Ack{Status: "OK", Reason: reason} }
func skip(reason string) Ack  { return Ack{Status: "SKIP", Reason: reason} }
func errAck(reason string) Ack { return Ack{Status: "ERROR", Reason: reason} }

// Executor is single-writer per symbol: callers must not invoke Process
// concurrently for the same symbol.
type Executor struct {
	client bridge.Client
	guard  *risk.Guard

	mu      sync.Mutex
	paused  bool
	dryRun  bool

	configs map[string]SymbolConfig
	states  map[string]*syncfsm.State

	initialBalance float64
	auditVersion   string
}

func New(client bridge.Client, guard *risk.Guard, initialBalance float64, configs map[string]SymbolConfig, dryRun bool) *Executor {
	return &Executor{
		client:         client,
		guard:          guard,
		configs:        configs,
		states:         make(map[string]*syncfsm.State),
		initialBalance: initialBalance,
		dryRun:         dryRun,
		auditVersion:   auditVersion,
	}
}

func (e *Executor) Pause()  { e.mu.Lock(); e.paused = true; e.mu.Unlock() }
func (e *Executor) Resume() { e.mu.Lock(); e.paused = false; e.mu.Unlock() }

func (e *Executor) stateFor(symbol string) *syncfsm.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[symbol]
	if !ok {
		st = syncfsm.New()
		e.states[symbol] = st
	}
	return st
}

// Process reconciles one signal end-to-end and returns its ack.
// Bounded by the broker bridge's own request timeout.
func (e *Executor) Process(ctx context.Context, sig predictor.Signal) Ack {
	cfg, exists := e.configs[sig.Symbol]
	if !exists || !cfg.Enabled {
		return skip("DISABLED")
	}

	e.mu.Lock()
	paused := e.paused
	e.mu.Unlock()
	if paused {
		return skip("PAUSED")
	}

	realPos, err := e.client.GetPosition(ctx, sig.Symbol)
	if err != nil {
		return errAck(string(mustKind(err)))
	}
	hasReal := realPos != nil
	realDir := 0
	if hasReal {
		realDir = realPos.Direction
	}

	st := e.stateFor(sig.Symbol)
	decision, shouldOpen := st.Step(hasReal, realDir, sig.Direction)

	switch decision {
	case syncfsm.NOOP:
		return ok("SYNCED")

	case syncfsm.CLOSE:
		res, err := e.client.CloseOrder(ctx, realPos.Ticket)
		if err != nil || !res.Success {
			observ.IncCounter("executor_close_errors_total", map[string]string{"symbol": sig.Symbol})
			return errAck(closeFailureReason(err, res))
		}
		realized := realPos.RealizedPnL
		e.guard.RecordResult(realized)
		observ.IncCounter("executor_closes_total", map[string]string{"symbol": sig.Symbol})
		return Ack{Status: "OK", Reason: "CLOSED", Ticket: res.Ticket, FillPrice: res.ExecutedPrice}

	case syncfsm.WAITSYNC:
		if !shouldOpen {
			return ok("WAITING_SYNC")
		}
	case syncfsm.OPEN:
		// shouldOpen is always true alongside OPEN; fall through to open.
	}

	return e.openPosition(ctx, sig, cfg)
}

func (e *Executor) openPosition(ctx context.Context, sig predictor.Signal, cfg SymbolConfig) Ack {
	volume := cfg.LotForIntensity(sig.Intensity)
	if volume == 0 {
		return skip("ZERO_LOT")
	}

	account, err := e.client.GetAccount(ctx)
	if err != nil {
		return errAck(string(mustKind(err)))
	}
	symInfo, err := e.client.GetSymbolInfo(ctx, sig.Symbol)
	if err != nil {
		return errAck(string(mustKind(err)))
	}

	check := risk.Check{
		Equity:         account.Equity,
		FreeMargin:     account.FreeMargin,
		RequiredMargin: estimateRequiredMargin(symInfo, volume),
		MaxSpreadPips:  cfg.MaxSpreadPips,
	}
	if spreadPips, known := spreadPipsFor(symInfo); known {
		check.SpreadPips = spreadPips
		check.SpreadKnown = true
	}
	if err := e.guard.CheckAll(check); err != nil {
		return skip(string(mustKind(err)))
	}

	levels, err := priceconv.Convert(sig.Symbol, sig.Direction, sig.ClosePrice, volume,
		cfg.SLUSD, cfg.TPUSD, symInfo.PipValuePerLot, symInfo.PipValuePerLot > 0, symInfo.Digits, symInfo.Digits > 0)
	if err != nil {
		return skip(string(mustKind(err)))
	}

	comment := BuildComment(AuditFields{
		Version:    e.auditVersion,
		HMMState:   sig.HMMState,
		ActionIdx:  int(sig.Action),
		Intensity:  sig.Intensity,
		BalanceInt: int(account.Balance),
		DDPct:      (e.initialBalance - account.Equity) / e.initialBalance * 100,
		VPnL:       sig.VirtualPnL,
	})

	if e.dryRun {
		observ.IncCounter("executor_dry_run_opens_total", map[string]string{"symbol": sig.Symbol})
		return ok("DRY_RUN")
	}

	req := bridge.OrderRequest{
		Symbol:    sig.Symbol,
		Direction: sig.Direction,
		Volume:    volume,
		SL:        levels.SLPrice,
		TP:        levels.TPPrice,
		Comment:   comment,
	}
	res, err := e.client.OpenOrder(ctx, req)
	if err != nil || !res.Success {
		observ.IncCounter("executor_open_errors_total", map[string]string{"symbol": sig.Symbol})
		return errAck(openFailureReason(err, res))
	}
	observ.IncCounter("executor_opens_total", map[string]string{"symbol": sig.Symbol})
	return Ack{Status: "OK", Reason: "OPENED", Ticket: res.Ticket, FillPrice: res.ExecutedPrice}
}

func mustKind(err error) errs.Kind {
	if k, ok := errs.KindOf(err); ok {
		return k
	}
	return errs.Kind(err.Error())
}

func closeFailureReason(err error, res bridge.OrderResult) string {
	if err != nil {
		return string(mustKind(err))
	}
	if res.ErrorCode != "" {
		return res.ErrorCode
	}
	return "UNKNOWN"
}

func openFailureReason(err error, res bridge.OrderResult) string {
	return closeFailureReason(err, res)
}

const (
	standardLotUnits = 100000.0
	assumedLeverage  = 30.0 // conservative floor; broker may grant more
)

// estimateRequiredMargin approximates required margin from contract size
// and volume. Real margin depends on leverage tiers the broker doesn't
// expose uniformly, so this intentionally errs stricter than the broker
// would actually enforce.
func estimateRequiredMargin(info bridge.SymbolInfo, volume float64) float64 {
	if info.PipValuePerLot <= 0 {
		return 0
	}
	notional := volume * standardLotUnits
	return notional / assumedLeverage
}

func spreadPipsFor(info bridge.SymbolInfo) (float64, bool) {
	if info.Point <= 0 {
		return 0, false
	}
	mult := priceconv.PipMultiplier(info.Digits)
	return info.SpreadPoints / float64(mult), true
}
