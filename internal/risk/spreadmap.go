package risk

import "sync"

// SpreadMap is the shared, read-mostly structure the orchestrator's
// spread-refresh loop writes into. The Risk Guard does not read it: the
// executor feeds the guard's spread gate from bridge.SymbolInfo instead.
// Single writer, many readers — guarded by an RWMutex rather than a
// channel.
type SpreadMap struct {
	mu   sync.RWMutex
	pips map[string]float64
}

func NewSpreadMap() *SpreadMap {
	return &SpreadMap{pips: map[string]float64{}}
}

func (m *SpreadMap) Set(symbol string, pips float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pips[symbol] = pips
}

// Get returns the last published spread for a symbol and whether one has
// ever been published — an unpublished or invalidated symbol reads as
// unknown (false).
func (m *SpreadMap) Get(symbol string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.pips[symbol]
	return v, ok
}

func (m *SpreadMap) Invalidate(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pips, symbol)
}
