package orchestrator

import (
	"sync"
	"time"
)

// healthReport is the result of one health check pass.
type healthReport struct {
	Healthy bool
	Issues  []string
	UptimeS float64
}

// healthMonitor tracks per-symbol heartbeats; a symbol that hasn't
// produced a processed signal within the timeout is surfaced as an
// issue, since steady-state bars must never be silently coalesced.
type healthMonitor struct {
	mu        sync.Mutex
	timeout   time.Duration
	lastSeen  map[string]time.Time
	startedAt time.Time
}

func newHealthMonitor(timeout time.Duration) *healthMonitor {
	return &healthMonitor{
		timeout:   timeout,
		lastSeen:  make(map[string]time.Time),
		startedAt: time.Now(),
	}
}

func (h *healthMonitor) update(symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSeen[symbol] = time.Now()
}

func (h *healthMonitor) check() healthReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	var issues []string
	now := time.Now()
	for symbol, last := range h.lastSeen {
		if elapsed := now.Sub(last); elapsed > h.timeout {
			issues = append(issues, symbol+": no heartbeat for "+elapsed.Round(time.Second).String())
		}
	}
	return healthReport{
		Healthy: len(issues) == 0,
		Issues:  issues,
		UptimeS: now.Sub(h.startedAt).Seconds(),
	}
}

func (h *healthMonitor) reset(symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.lastSeen, symbol)
}
