// Package bardetect converts a per-symbol tick stream into closed-bar
// events aligned to a timeframe boundary.
package bardetect

import (
	"sync"

	"github.com/Rajchodisetti/oracle-core/internal/barmodel"
)

// Tick is a single trade/quote update.
type Tick struct {
	Symbol string
	Time   int64 // epoch seconds
	Price  float64
}

type accumulator struct {
	barStart int64
	open, high, low, close float64
	volume                  float64
	initialized             bool
}

// Detector aggregates ticks into Bar values per symbol and emits them
// over a channel, oldest first, strictly increasing in start time per
// symbol. The first tick for a symbol only initializes state; it never
// emits a bar.
type Detector struct {
	period int64

	mu    sync.Mutex
	state map[string]*accumulator

	out chan barmodel.Bar
}

func New(periodSeconds int64, bufferSize int) *Detector {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Detector{
		period: periodSeconds,
		state:  map[string]*accumulator{},
		out:    make(chan barmodel.Bar, bufferSize),
	}
}

// Bars is the channel closed-bar events are published on.
func (d *Detector) Bars() <-chan barmodel.Bar { return d.out }

func (d *Detector) alignedStart(t int64) int64 {
	return (t / d.period) * d.period
}

// OnTick feeds a single tick. Safe for concurrent use across symbols
// (guarded by a single mutex; per-symbol throughput is not the
// bottleneck here, correctness under reconnect-driven bursts is).
func (d *Detector) OnTick(tick Tick) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.state[tick.Symbol]
	if !ok {
		acc = &accumulator{}
		d.state[tick.Symbol] = acc
	}

	start := d.alignedStart(tick.Time)

	if !acc.initialized {
		d.reset(acc, start, tick.Price)
		return
	}

	if start > acc.barStart {
		bar := barmodel.Bar{
			Symbol: tick.Symbol,
			Time:   acc.barStart,
			Open:   acc.open,
			High:   acc.high,
			Low:    acc.low,
			Close:  acc.close,
			Volume: acc.volume,
		}
		d.out <- bar
		d.reset(acc, start, tick.Price)
		return
	}

	if tick.Price > acc.high {
		acc.high = tick.Price
	}
	if tick.Price < acc.low {
		acc.low = tick.Price
	}
	acc.close = tick.Price
	acc.volume++
}

func (d *Detector) reset(acc *accumulator, start int64, price float64) {
	acc.barStart = start
	acc.open, acc.high, acc.low, acc.close = price, price, price, price
	acc.volume = 1
	acc.initialized = true
}

// PendingBar returns the in-progress bar for a symbol, if any, without
// closing it — used by warm inspection/health endpoints.
func (d *Detector) PendingBar(symbol string) (barmodel.Bar, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acc, ok := d.state[symbol]
	if !ok || !acc.initialized {
		return barmodel.Bar{}, false
	}
	return barmodel.Bar{
		Symbol: symbol,
		Time:   acc.barStart,
		Open:   acc.open,
		High:   acc.high,
		Low:    acc.low,
		Close:  acc.close,
		Volume: acc.volume,
	}, true
}

// Unregister drops a symbol's accumulator state, e.g. on unsubscribe.
func (d *Detector) Unregister(symbol string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.state, symbol)
}
