// Package predictor runs the per-symbol pipeline: buffer bars, compute
// features, run HMM + policy inference, update the virtual position, and
// emit a Signal. All state here is single-writer per symbol.
package predictor

import (
	"time"

	"github.com/Rajchodisetti/oracle-core/internal/barmodel"
	"github.com/Rajchodisetti/oracle-core/internal/feature"
	"github.com/Rajchodisetti/oracle-core/internal/modelbundle"
	"github.com/Rajchodisetti/oracle-core/internal/observ"
	"github.com/Rajchodisetti/oracle-core/internal/vposition"
)

// Predictor owns one symbol's buffer, virtual position and model bundle.
type Predictor struct {
	Symbol string

	bundle *modelbundle.Bundle
	buffer *barmodel.Buffer
	pos    *vposition.Position
	cfg    feature.Config

	lastHMMState int
}

func New(symbol string, bundle *modelbundle.Bundle, bufferCapacity int) *Predictor {
	cfg := feature.Config{
		MomentumPeriod:    bundle.Metadata.HMM.MomentumPeriod,
		ConsistencyPeriod: bundle.Metadata.HMM.ConsistencyPeriod,
		RangePeriod:       bundle.Metadata.HMM.RangePeriod,
		ROCPeriod:         bundle.Metadata.RL.ROCPeriod,
		ATRPeriod:         bundle.Metadata.RL.ATRPeriod,
		EMAPeriod:         bundle.Metadata.RL.EMAPeriod,
		VolumeMAPeriod:    bundle.Metadata.RL.VolumeMAPeriod,
		NumHMMStates:      bundle.Metadata.HMM.NumStates,
	}
	return &Predictor{
		Symbol: symbol,
		bundle: bundle,
		buffer: barmodel.NewBuffer(bufferCapacity),
		pos:    vposition.New(bundle.CostParams()),
		cfg:    cfg,
	}
}

// step runs features + inference + virtual-position update for the
// current buffer contents, returning the decoded action and any realized
// PnL. Does not touch the buffer itself — callers push first.
func (p *Predictor) step(bar barmodel.Bar) (vposition.Action, float64) {
	bars := p.buffer.Snapshot()

	hmmFeat := feature.HMMFeatures(bars, p.cfg)
	p.lastHMMState = p.bundle.Backend.HMMPredict(hmmFeat)

	polFeat := feature.PolicyFeatures(bars, p.lastHMMState, p.cfg, feature.PositionFeatures{
		Direction:   p.pos.Direction,
		Size:        p.pos.Size(),
		FloatingPnL: p.pos.FloatingPnL(),
	})

	actionIdx := p.bundle.Backend.PolicyPredict(polFeat, true)
	action := vposition.FromIndex(actionIdx)

	realized := p.pos.Update(action, bar.Close)
	return action, realized
}

// ProcessBar appends bar to the buffer and, if the buffer is full, runs
// the full inference step and emits a Signal. Returns (nil, nil) while
// still warming up.
func (p *Predictor) ProcessBar(bar barmodel.Bar) (*Signal, error) {
	if err := p.buffer.Push(bar); err != nil {
		return nil, err
	}
	if !p.buffer.Ready() {
		return nil, nil
	}

	action, realized := p.step(bar)
	observ.IncCounter("bars_processed_total", map[string]string{"symbol": p.Symbol})
	if realized != 0 {
		observ.Observe("virtual_realized_pnl", realized, map[string]string{"symbol": p.Symbol})
	}

	sig := &Signal{
		Symbol:     p.Symbol,
		Action:     action,
		Direction:  action.Direction(),
		Intensity:  action.Intensity(),
		HMMState:   p.lastHMMState,
		VirtualPnL: p.pos.FloatingPnL(),
		ClosePrice: bar.Close,
		Timestamp:  time.Unix(bar.Time, 0).UTC(),
	}
	observ.IncCounter("signals_emitted_total", map[string]string{"symbol": p.Symbol, "action": action.String()})
	return sig, nil
}

// Warmup fast-forwards the predictor through historical bars without
// emitting Signals, so the virtual position lands in the state the
// training environment would have reached. Used after cold start or
// crash recovery.
func (p *Predictor) Warmup(bars []barmodel.Bar) error {
	for _, bar := range bars {
		if err := p.buffer.Push(bar); err != nil {
			return err
		}
		if p.buffer.Ready() {
			p.step(bar)
		}
	}
	observ.Log("predictor_warmup_complete", map[string]any{"symbol": p.Symbol, "bars": len(bars)})
	return nil
}

// VirtualPosition exposes the current virtual holding for health/paper
// trader consumers.
func (p *Predictor) VirtualPosition() *vposition.Position { return p.pos }

// Ready reports whether the buffer has filled and inference has begun
// for this symbol.
func (p *Predictor) Ready() bool { return p.buffer.Ready() }
