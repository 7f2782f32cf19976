// Package orchestrator wires every component together and owns the
// process lifecycle: bootstrap ordering, warmup, the concurrent task
// set (event fan-out, heartbeat, health, persistence retry, spread refresh),
// day-boundary handling and graceful shutdown.
package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Rajchodisetti/oracle-core/internal/barmodel"
	"github.com/Rajchodisetti/oracle-core/internal/bardetect"
	"github.com/Rajchodisetti/oracle-core/internal/bridge"
	"github.com/Rajchodisetti/oracle-core/internal/config"
	"github.com/Rajchodisetti/oracle-core/internal/executor"
	"github.com/Rajchodisetti/oracle-core/internal/observ"
	"github.com/Rajchodisetti/oracle-core/internal/papertrader"
	"github.com/Rajchodisetti/oracle-core/internal/persistence"
	"github.com/Rajchodisetti/oracle-core/internal/predictor"
	"github.com/Rajchodisetti/oracle-core/internal/priceconv"
	"github.com/Rajchodisetti/oracle-core/internal/risk"
)

// Deps are the already-constructed collaborators the orchestrator wires
// together. Bootstrap order matters and is enforced by the caller
// (cmd/oracle/main.go) assembling these in this sequence: config ->
// persistence -> model bundles, predictors and paper trader -> risk guard
// -> bridge -> executor; Bootstrap then runs warmup and starts the
// session, and Run starts the tasks.
type Deps struct {
	Cfg          config.Root
	Client       bridge.Client
	Guard        *risk.Guard
	SpreadMap    *risk.SpreadMap
	Predictors   map[string]*predictor.Predictor
	Executor     *executor.Executor
	Paper        *papertrader.Trader
	Sessions     *persistence.SessionManager
	Telemetry    *persistence.TelemetryQueue
	Store        *persistence.LocalStore
	HealthEvery  time.Duration
	SpreadEvery  time.Duration
	SymbolTimeout time.Duration
}

// Orchestrator runs the process's concurrent task set until ctx is
// cancelled or a fatal error occurs in one of the tasks.
type Orchestrator struct {
	d Deps

	health *healthMonitor
	ticks  map[string]chan bridge.Tick
}

func New(d Deps) *Orchestrator {
	if d.HealthEvery == 0 {
		d.HealthEvery = 30 * time.Second
	}
	if d.SpreadEvery == 0 {
		d.SpreadEvery = 30 * time.Second
	}
	if d.SymbolTimeout == 0 {
		d.SymbolTimeout = 300 * time.Second
	}
	ticks := make(map[string]chan bridge.Tick, len(d.Predictors))
	for symbol := range d.Predictors {
		ticks[symbol] = make(chan bridge.Tick, 256)
	}
	return &Orchestrator{d: d, health: newHealthMonitor(d.SymbolTimeout), ticks: ticks}
}

// Ticks returns the per-symbol tick channel fed by the event loop's
// fan-out. The bridge delivers every tick on one shared stream
// (Client.Events); a single eventLoop goroutine is the only reader of
// that stream and routes each tick to its symbol's channel here, so
// per-symbol bar detectors never compete with each other — or with the
// orchestrator itself — for reads off the shared channel.
func (o *Orchestrator) Ticks(symbol string) <-chan bridge.Tick {
	return o.ticks[symbol]
}

// Bootstrap performs the warmup fast-forward for every predictor, using
// historical bars fetched from the bridge, then starts the session —
// recovering one from disk if a RUNNING session is found.
func (o *Orchestrator) Bootstrap(ctx context.Context, warmupBars int) (persistence.Session, bool, error) {
	symbols := make([]string, 0, len(o.d.Predictors))
	for sym, p := range o.d.Predictors {
		symbols = append(symbols, sym)
		history, err := o.d.Client.GetHistory(ctx, sym, periodSecondsFor(o.d.Cfg.Trading.Timeframe), warmupBars)
		if err != nil {
			return persistence.Session{}, false, err
		}
		bars := ticksToBars(history, periodSecondsFor(o.d.Cfg.Trading.Timeframe))
		if err := p.Warmup(bars); err != nil {
			return persistence.Session{}, false, err
		}
	}
	return o.d.Sessions.Start(o.d.Cfg.Trading.InitialBalance, symbols)
}

// Run starts every concurrent task and blocks until ctx is cancelled or
// one task returns a fatal error. On return, all tasks have stopped.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return o.heartbeatLoop(ctx) })
	g.Go(func() error { return o.healthLoop(ctx) })
	g.Go(func() error { return o.persistenceRetryLoop(ctx) })
	g.Go(func() error { return o.spreadRefreshLoop(ctx) })
	g.Go(func() error { return o.eventLoop(ctx) })

	return g.Wait()
}

// eventLoop is the sole reader of the bridge's shared tick/external-event
// stream. It fans Tick events out to their symbol's channel (see Ticks)
// for per-symbol bar detectors to consume, and handles external events
// itself. Without a single demuxer here, every per-symbol bar-loop
// goroutine plus this loop would compete as independent receivers on one
// channel, each tick landing on whichever goroutine happened to be ready
// — dropping ticks for every symbol but the lucky one.
func (o *Orchestrator) eventLoop(ctx context.Context) error {
	events := o.d.Client.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			o.routeEvent(ev)
		}
	}
}

func (o *Orchestrator) routeEvent(ev any) {
	switch e := ev.(type) {
	case bridge.Tick:
		ch, ok := o.ticks[e.Symbol]
		if !ok {
			return
		}
		select {
		case ch <- e:
		default:
			observ.Log("tick_dropped", map[string]any{"symbol": e.Symbol, "reason": "channel full"})
		}
	case bridge.ExternalEvent:
		observ.Log("external_event", map[string]any{"type": e.Type, "symbol": e.Symbol, "ticket": e.Ticket})
	default:
	}
}

// ProcessSignal runs the full per-bar pipeline for one symbol once its
// predictor has emitted a Signal: executor, paper trader, health
// heartbeat. Called by the bar-processing path (cmd/oracle wires a bar
// detector per symbol that calls this on each closed bar).
func (o *Orchestrator) ProcessSignal(ctx context.Context, sig predictor.Signal) executor.Ack {
	ack := o.d.Executor.Process(ctx, sig)

	if o.d.Paper != nil {
		if trade := o.d.Paper.ProcessSignal(sig); trade != nil && o.d.Store != nil {
			_ = o.d.Store.RecordPaperTrade(persistence.TradeRecord{
				Symbol:      trade.Symbol,
				Direction:   trade.Direction,
				Intensity:   trade.Intensity,
				RealizedPnL: trade.RealizedPnL,
				ClosedAt:    trade.ClosedAt,
			})
		}
	}

	o.health.update(sig.Symbol)
	observ.Log("signal_processed", map[string]any{
		"symbol": sig.Symbol, "action": sig.Action.String(), "hmm_state": sig.HMMState,
		"vpnl": sig.VirtualPnL, "exec_status": ack.Status, "exec_reason": ack.Reason,
	})
	return ack
}

func (o *Orchestrator) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.d.HealthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := o.d.Sessions.Heartbeat(); err != nil {
				observ.Log("heartbeat_error", map[string]any{"error": err.Error()})
				continue
			}
			if o.d.Sessions.CheckDayBoundary(time.Now()) {
				o.handleDayChange(ctx)
			}
		}
	}
}

func (o *Orchestrator) handleDayChange(ctx context.Context) {
	observ.Log("day_boundary_detected", nil)
	if o.d.Cfg.Trading.CloseOnDayChange {
		o.closeAll(ctx)
	}
	_ = o.d.Sessions.End(persistence.EndDayChange)
	sess, _, err := o.d.Sessions.Start(o.d.Cfg.Trading.InitialBalance, nil)
	if err != nil {
		observ.Log("session_restart_failed", map[string]any{"error": err.Error()})
		return
	}
	observ.Log("session_restarted", map[string]any{"session_id": sess.ID})
}

func (o *Orchestrator) closeAll(ctx context.Context) {
	positions, err := o.d.Client.GetPositions(ctx)
	if err != nil {
		observ.Log("close_all_fetch_failed", map[string]any{"error": err.Error()})
		return
	}
	closed := 0
	for _, p := range positions {
		if res, err := o.d.Client.CloseOrder(ctx, p.Ticket); err == nil && res.Success {
			closed++
		}
	}
	observ.Log("close_all_complete", map[string]any{"closed": closed})
}

func (o *Orchestrator) healthLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.d.HealthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report := o.health.check()
			if !report.Healthy {
				observ.Log("health_degraded", map[string]any{"issues": report.Issues})
			}
			observ.SetGauge("health_uptime_s", report.UptimeS, nil)
		}
	}
}

func (o *Orchestrator) persistenceRetryLoop(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if o.d.Telemetry == nil || !o.d.Cfg.Persistence.Enabled {
				continue
			}
			delivered, remaining, err := o.d.Telemetry.Drain(o.sendTelemetry)
			if err != nil {
				observ.Log("telemetry_drain_error", map[string]any{"error": err.Error()})
				continue
			}
			observ.SetGauge("telemetry_pending", float64(remaining), nil)
			if delivered > 0 {
				observ.IncCounterBy("telemetry_delivered_total", nil, float64(delivered))
			}
		}
	}
}

func (o *Orchestrator) sendTelemetry(ev persistence.TelemetryEvent) error {
	// No egress is implemented: nothing is sent, and every event is
	// reported as delivered, so each drain removes all queued events.
	return nil
}

func (o *Orchestrator) spreadRefreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.d.SpreadEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for symbol := range o.d.Predictors {
				info, err := o.d.Client.GetSymbolInfo(ctx, symbol)
				if err != nil {
					o.d.SpreadMap.Invalidate(symbol)
					continue
				}
				if info.Point == 0 {
					continue
				}
				mult := priceconv.PipMultiplier(info.Digits)
				o.d.SpreadMap.Set(symbol, info.SpreadPoints/float64(mult))
			}
		}
	}
}

func periodSecondsFor(timeframe string) int64 {
	switch timeframe {
	case "M1":
		return 60
	case "M5":
		return 300
	case "M15":
		return 900
	case "M30":
		return 1800
	case "H1":
		return 3600
	case "H4":
		return 14400
	case "D1":
		return 86400
	default:
		return 900
	}
}

// ticksToBars runs a batch of historical ticks through a throwaway bar
// detector to produce the closed-bar sequence warmup needs — the same
// aggregation the live tick stream goes through, just fast-forwarded.
func ticksToBars(ticks []bridge.Tick, periodSeconds int64) []barmodel.Bar {
	det := bardetect.New(periodSeconds, len(ticks)+1)
	for _, t := range ticks {
		det.OnTick(bardetect.Tick{Symbol: t.Symbol, Time: t.Time, Price: t.Price})
	}
	var out []barmodel.Bar
	for {
		select {
		case bar := <-det.Bars():
			out = append(out, bar)
		default:
			return out
		}
	}
}
