// Package feature computes the HMM regime features and the policy
// features from a windowed bar series. Every function here is pure: same
// input, same output, no state. Deployed models depend on this precisely
// reproducing the training environment's math.
package feature

import (
	"math"

	"github.com/Rajchodisetti/oracle-core/internal/barmodel"
)

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func tail(bars []barmodel.Bar, n int) []barmodel.Bar {
	if n <= 0 || n > len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}

// rangePosition implements (c): (close - lowest_low)/(highest_high-lowest_low)*2-1
// over the trailing period-sized window, NaN (flat range) mapping to 0.
func rangePosition(bars []barmodel.Bar, period int) float64 {
	w := tail(bars, period)
	if len(w) == 0 {
		return 0
	}
	lo, hi := w[0].Low, w[0].High
	for _, b := range w[1:] {
		if b.Low < lo {
			lo = b.Low
		}
		if b.High > hi {
			hi = b.High
		}
	}
	close := w[len(w)-1].Close
	if hi == lo {
		return 0
	}
	return orZero((close-lo)/(hi-lo)*2 - 1)
}

// momentum implements (a): rolling sum of simple percent-change returns
// over momentum_period bars, rescaled x100 and clipped to [-5, 5]. Uses
// pct_change, not log-returns, to match the training environment's
// pandas close.pct_change().rolling(period).sum() exactly.
func momentum(bars []barmodel.Bar, period int) float64 {
	w := tail(bars, period+1)
	if len(w) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(w); i++ {
		prev, cur := w[i-1].Close, w[i].Close
		if prev == 0 {
			continue
		}
		sum += (cur - prev) / prev
	}
	return clip(orZero(sum*100), -5, 5)
}

// consistency implements (b).
func consistency(bars []barmodel.Bar, period int) float64 {
	w := tail(bars, period+1)
	if len(w) < 2 {
		return 0
	}
	up, down := 0, 0
	for i := 1; i < len(w); i++ {
		switch {
		case w[i].Close > w[i-1].Close:
			up++
		case w[i].Close < w[i-1].Close:
			down++
		}
	}
	n := float64(period)
	mx := float64(up)
	if down > up {
		mx = float64(down)
	}
	val := (mx/n)*2 - 1
	return orZero(val * sign(float64(up-down)))
}

// HMMFeatures computes the 3-scalar feature vector used by the regime
// model.
func HMMFeatures(bars []barmodel.Bar, cfg Config) [3]float64 {
	return [3]float64{
		momentum(bars, cfg.MomentumPeriod),
		consistency(bars, cfg.ConsistencyPeriod),
		rangePosition(bars, cfg.RangePeriod),
	}
}

func trueRange(prevClose float64, b barmodel.Bar, hasPrev bool) float64 {
	tr := b.High - b.Low
	if hasPrev {
		tr = math.Max(tr, math.Abs(b.High-prevClose))
		tr = math.Max(tr, math.Abs(b.Low-prevClose))
	}
	return tr
}

// atr computes the rolling mean of the true range over the trailing
// period-sized window.
func atr(bars []barmodel.Bar, period int) float64 {
	w := tail(bars, period+1)
	if len(w) < 2 {
		return 0
	}
	sum := 0.0
	count := 0
	for i := 1; i < len(w); i++ {
		sum += trueRange(w[i-1].Close, w[i], true)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// ema computes an exponential moving average over the full close series,
// matching a standard recursive EMA seeded at the first close.
func ema(bars []barmodel.Bar, period int) float64 {
	if len(bars) == 0 {
		return 0
	}
	if period <= 1 {
		return bars[len(bars)-1].Close
	}
	alpha := 2.0 / (float64(period) + 1.0)
	val := bars[0].Close
	for _, b := range bars[1:] {
		val = alpha*b.Close + (1-alpha)*val
	}
	return val
}

func volumeMA(bars []barmodel.Bar, period int) float64 {
	w := tail(bars, period)
	if len(w) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range w {
		sum += b.Volume
	}
	return sum / float64(len(w))
}

// PositionFeatures carries the three position-derived scalars appended to
// the policy feature vector. Size is the held lot size (0 while flat),
// not the raw intensity level — the training environment scales the lot
// size, not the 0-3 intensity index, into the policy feature vector.
type PositionFeatures struct {
	Direction   int
	Size        float64
	FloatingPnL float64
}

// PolicyFeatures computes the fixed-length policy feature vector: 6
// market features, a one-hot of the HMM state, and 3 position features.
func PolicyFeatures(bars []barmodel.Bar, hmmState int, cfg Config, pos PositionFeatures) []float64 {
	out := make([]float64, 0, 6+cfg.NumHMMStates+3)

	n := len(bars)
	close := 0.0
	if n > 0 {
		close = bars[n-1].Close
	}

	// 1. tanh((close - close[-roc]) / close[-roc] * 20)
	f1 := 0.0
	if n > cfg.ROCPeriod && cfg.ROCPeriod > 0 {
		past := bars[n-1-cfg.ROCPeriod].Close
		if past != 0 {
			f1 = math.Tanh(orZero((close - past) / past * 20))
		}
	}
	out = append(out, f1)

	// 2. tanh((ATR_n/close)*50)
	f2 := 0.0
	if close != 0 {
		f2 = math.Tanh(orZero(atr(bars, cfg.ATRPeriod) / close * 50))
	}
	out = append(out, f2)

	// 3. tanh((close - EMA_n)/EMA_n*20)
	f3 := 0.0
	emaVal := ema(bars, cfg.EMAPeriod)
	if emaVal != 0 {
		f3 = math.Tanh(orZero((close - emaVal) / emaVal * 20))
	}
	out = append(out, f3)

	// 4. range position
	out = append(out, rangePosition(bars, cfg.RangePeriod))

	// 5. tanh((volume/volume_ma - 1)*2)
	f5 := 0.0
	vma := volumeMA(bars, cfg.VolumeMAPeriod)
	if vma != 0 && n > 0 {
		f5 = math.Tanh(orZero((bars[n-1].Volume/vma - 1) * 2))
	}
	out = append(out, f5)

	// 6. sin(2*pi*hour_of_day/24)
	f6 := 0.0
	if n > 0 {
		hour := float64((bars[n-1].Time / 3600) % 24)
		f6 = math.Sin(2 * math.Pi * hour / 24)
	}
	out = append(out, f6)

	// 7..(6+S): one-hot HMM state
	for s := 0; s < cfg.NumHMMStates; s++ {
		if s == hmmState {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}

	// +3: position features
	out = append(out, float64(pos.Direction))
	out = append(out, pos.Size*10)
	out = append(out, math.Tanh(pos.FloatingPnL/100))

	return out
}
