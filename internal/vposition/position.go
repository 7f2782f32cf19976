// Package vposition implements the predictor's virtual position: a
// simulated position mirroring exactly the fill/commission rules of the
// environment the model was trained in.
package vposition

// CostParams are the training-time execution cost parameters frozen into
// the model archive's metadata. They never come from live process
// config, which is what keeps the virtual position numerically identical
// to training regardless of the live broker's actual costs.
type CostParams struct {
	SpreadPoints     float64
	SlippagePoints   float64
	CommissionPerLot float64
	Point            float64
	PipValue         float64
	Digits           int
	LotSizes         map[int]float64 // intensity -> lot size
}

// Position is a single symbol's virtual position. Owned exclusively by
// the Predictor for that symbol; never shared across goroutines.
type Position struct {
	cost CostParams

	Direction   int // -1, 0, +1
	Intensity   int // 0..3
	EntryPrice  float64
	CurrentPnL  float64 // floating, while open; 0 while flat
}

func New(cost CostParams) *Position {
	return &Position{cost: cost}
}

func (p *Position) lotSize(intensity int) float64 {
	return p.cost.LotSizes[intensity]
}

// pricePnL computes the raw, commission-free PnL of moving from entry to
// exit for the given direction/intensity, in account currency.
func (p *Position) pricePnL(entry, exit float64, direction, intensity int) float64 {
	if p.cost.Point == 0 {
		return 0
	}
	pips := (exit - entry) * float64(direction) / p.cost.Point / 10
	return pips * p.cost.PipValue * p.lotSize(intensity)
}

func (p *Position) entryFill(price float64, direction int) float64 {
	offset := (p.cost.SpreadPoints + p.cost.SlippagePoints) * p.cost.Point
	return price + float64(direction)*offset
}

func (p *Position) exitFill(price float64, direction int) float64 {
	offset := p.cost.SlippagePoints * p.cost.Point
	return price - float64(direction)*offset
}

func (p *Position) halfCommission(intensity int) float64 {
	return p.cost.CommissionPerLot * p.lotSize(intensity) / 2
}

// Update applies an action at the bar's close price. Same (direction,
// intensity) as the current holding only refreshes floating PnL. Any
// change closes the existing holding (if any) and opens the new one (if
// direction != 0) within the same call, returning the realized PnL of the
// closed leg (0 when nothing was closed). No partial fills, no partial
// closes.
func (p *Position) Update(action Action, currentPrice float64) float64 {
	targetDir := action.Direction()
	targetIntensity := action.Intensity()

	if targetDir == p.Direction && targetIntensity == p.Intensity {
		if p.Direction != 0 {
			p.CurrentPnL = p.pricePnL(p.EntryPrice, currentPrice, p.Direction, p.Intensity)
		}
		return 0
	}

	realized := 0.0
	if p.Direction != 0 {
		exit := p.exitFill(currentPrice, p.Direction)
		realized += p.pricePnL(p.EntryPrice, exit, p.Direction, p.Intensity)
		realized -= p.halfCommission(p.Intensity)
	}

	p.Direction = targetDir
	p.Intensity = targetIntensity

	if targetDir != 0 {
		p.EntryPrice = p.entryFill(currentPrice, targetDir)
		// No commission is charged on open: floating PnL starts from the
		// raw post-entry price diff, and realized covers only the closed
		// leg.
		p.CurrentPnL = p.pricePnL(p.EntryPrice, currentPrice, p.Direction, p.Intensity)
	} else {
		p.EntryPrice = 0
		p.CurrentPnL = 0
	}

	return realized
}

// FloatingPnL is the position's current unrealized PnL (0 while flat).
func (p *Position) FloatingPnL() float64 { return p.CurrentPnL }

// Size is the lot size of the currently held intensity, 0 while flat —
// the value the policy's position-size feature is always derived from.
func (p *Position) Size() float64 {
	if p.Direction == 0 {
		return 0
	}
	return p.lotSize(p.Intensity)
}
