// Command oracle is the trading execution core's process entry point.
// Bootstrap order: config -> persistence -> model bundles and paper
// trader -> risk guard -> bridge -> executor -> warmup -> session -> tasks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Rajchodisetti/oracle-core/internal/bardetect"
	"github.com/Rajchodisetti/oracle-core/internal/bridge"
	"github.com/Rajchodisetti/oracle-core/internal/bridge/mockbroker"
	"github.com/Rajchodisetti/oracle-core/internal/config"
	"github.com/Rajchodisetti/oracle-core/internal/executor"
	"github.com/Rajchodisetti/oracle-core/internal/modelbundle"
	"github.com/Rajchodisetti/oracle-core/internal/observ"
	"github.com/Rajchodisetti/oracle-core/internal/orchestrator"
	"github.com/Rajchodisetti/oracle-core/internal/papertrader"
	"github.com/Rajchodisetti/oracle-core/internal/persistence"
	"github.com/Rajchodisetti/oracle-core/internal/predictor"
	"github.com/Rajchodisetti/oracle-core/internal/risk"
)

const (
	exitClean    = 0
	exitFatal    = 1
	exitBadConfig = 2
	exitInterrupt = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config/default.yaml", "path to the main configuration document")
	logLevel := flag.String("log-level", "", "override the configured log level (debug|info|warn|error)")
	dryRun := flag.Bool("dry-run", false, "evaluate risk gates but never send real orders")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return exitBadConfig
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	observ.Log("boot", map[string]any{"config": *configPath, "dry_run": *dryRun})

	symDoc, err := config.LoadSymbolConfig(cfg.Paths.ExecutorConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid symbol configuration: %v\n", err)
		return exitBadConfig
	}

	if watcher, err := config.WatchSymbolConfig(cfg.Paths.ExecutorConfig); err != nil {
		observ.Log("symbol_config_watch_unavailable", map[string]any{"error": err.Error()})
	} else {
		defer watcher.Close()
		go config.RunSymbolConfigWatch(watcher, cfg.Paths.ExecutorConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootAndRun(ctx, cfg, symDoc, *dryRun); err != nil {
		if ctx.Err() != nil {
			return exitInterrupt
		}
		observ.Log("fatal", map[string]any{"error": err.Error()})
		return exitFatal
	}
	return exitClean
}

func bootAndRun(ctx context.Context, cfg config.Root, symDoc config.SymbolDocument, dryRun bool) error {
	store, err := persistence.OpenLocalStore(filepath.Join(cfg.Paths.StateDir, "oracle.db"))
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer store.Close()

	telemetry, err := persistence.NewTelemetryQueue(filepath.Join(cfg.Paths.StateDir, "telemetry_queue.json"), 1000)
	if err != nil {
		return fmt.Errorf("open telemetry queue: %w", err)
	}
	sessions := persistence.NewSessionManager(cfg.Paths.StateDir)

	loader := modelbundle.New(modelbundle.NewMockBackendFactory())
	predictors := map[string]*predictor.Predictor{}
	paper := papertrader.New(cfg.Trading.InitialBalance)
	syntheticPrices := map[string]float64{}

	for symbol, entry := range symDoc.Symbols {
		if !entry.Enabled {
			continue
		}
		bundlePath := filepath.Join(cfg.Paths.ModelsDir, symbol+".bundle")
		bundle, err := loader.Load(bundlePath)
		if err != nil {
			return fmt.Errorf("load model bundle for %s: %w", symbol, err)
		}
		predictors[symbol] = predictor.New(symbol, bundle, 350)
		paper.LoadSymbol(symbol, bundle.CostParams())
		syntheticPrices[symbol] = bundle.Metadata.Point * 1000 // arbitrary plausible seed price
	}

	riskCfg := risk.DefaultConfig(cfg.Risk.InitialBalance)
	riskCfg.DrawdownLimitPct = cfg.Risk.DrawdownLimitPct
	riskCfg.DrawdownEmergencyPct = cfg.Risk.DrawdownEmergencyPct
	riskCfg.MaxConsecutiveLosses = cfg.Risk.MaxConsecutiveLosses
	if symDoc.Risk != nil {
		riskCfg.DrawdownLimitPct = symDoc.Risk.DrawdownLimitPct
		riskCfg.DrawdownEmergencyPct = symDoc.Risk.DrawdownEmergencyPct
		riskCfg.MaxConsecutiveLosses = symDoc.Risk.MaxConsecutiveLosses
	}
	guard := risk.New(riskCfg)
	spreadMap := risk.NewSpreadMap()

	client := newBridgeClient(cfg, syntheticPrices)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect broker bridge: %w", err)
	}
	defer client.Disconnect(ctx)

	execConfigs := map[string]executor.SymbolConfig{}
	for symbol, entry := range symDoc.Symbols {
		lotMap := map[int]float64{}
		for k, v := range entry.LotMapping {
			var intensity int
			fmt.Sscanf(k, "%d", &intensity)
			lotMap[intensity] = v
		}
		execConfigs[symbol] = executor.SymbolConfig{
			Enabled:       entry.Enabled,
			LotMapping:    lotMap,
			SLUSD:         entry.SLUSD,
			TPUSD:         entry.TPUSD,
			MaxSpreadPips: entry.MaxSpreadPips,
		}
	}
	exec := executor.New(client, guard, cfg.Risk.InitialBalance, execConfigs, dryRun)

	orch := orchestrator.New(orchestrator.Deps{
		Cfg:           cfg,
		Client:        client,
		Guard:         guard,
		SpreadMap:     spreadMap,
		Predictors:    predictors,
		Executor:      exec,
		Paper:         paper,
		Sessions:      sessions,
		Telemetry:     telemetry,
		Store:         store,
		HealthEvery:   cfg.Health.HeartbeatInterval(),
		SymbolTimeout: cfg.Health.SymbolTimeout(),
	})

	if _, recovered, err := orch.Bootstrap(ctx, 1000); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	} else if recovered {
		observ.Log("session_recovered_on_boot", nil)
	}

	for symbol, p := range predictors {
		go runBarLoop(ctx, orch, client, symbol, p, periodSecondsFromTimeframe(cfg.Trading.Timeframe))
	}

	observ.Log("ready", map[string]any{"symbols": len(predictors)})
	err = orch.Run(ctx)
	if cfg.Trading.CloseOnExit {
		closeAllOnExit(context.Background(), client)
	}
	_ = sessions.End(persistence.EndNormal)
	return err
}

func newBridgeClient(cfg config.Root, syntheticPrices map[string]float64) bridge.Client {
	sdk := mockbroker.New(syntheticPrices, periodSecondsFromTimeframe(cfg.Trading.Timeframe))
	auth := func(ctx context.Context) (string, time.Time, error) {
		return "mock-token", time.Now().Add(time.Hour), nil
	}
	return bridge.New(sdk, auth, bridge.DefaultConfig())
}

func runBarLoop(ctx context.Context, orch *orchestrator.Orchestrator, client bridge.Client, symbol string, p *predictor.Predictor, periodSeconds int64) {
	if err := client.SubscribeBars(ctx, symbol); err != nil {
		observ.Log("subscribe_failed", map[string]any{"symbol": symbol, "error": err.Error()})
		return
	}
	det := bardetect.New(periodSeconds, 64)
	ticks := orch.Ticks(symbol)
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			det.OnTick(bardetect.Tick{Symbol: tick.Symbol, Time: tick.Time, Price: tick.Price})
		case bar := <-det.Bars():
			sig, err := p.ProcessBar(bar)
			if err != nil || sig == nil {
				continue
			}
			orch.ProcessSignal(ctx, *sig)
		}
	}
}

func closeAllOnExit(ctx context.Context, client bridge.Client) {
	positions, err := client.GetPositions(ctx)
	if err != nil {
		return
	}
	for _, p := range positions {
		client.CloseOrder(ctx, p.Ticket)
	}
}

func periodSecondsFromTimeframe(tf string) int64 {
	switch tf {
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
	default:
		return 900
	}
}
