package observ

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type registry struct {
	mu       sync.Mutex
	counters map[string]map[string]int64
	gauges   map[string]map[string]float64
	hist     map[string]map[string][]float64
}

var reg = &registry{
	counters: map[string]map[string]int64{},
	gauges:   map[string]map[string]float64{},
	hist:     map[string]map[string][]float64{},
}

// canonLabels produces a stable key for a label set regardless of map
// iteration order.
func canonLabels(lbl map[string]string) string {
	if len(lbl) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lbl))
	for k := range lbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(lbl[k])
	}
	return b.String()
}

func IncCounter(name string, labels map[string]string) {
	IncCounterBy(name, labels, 1.0)
}

func IncCounterBy(name string, labels map[string]string, value float64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.counters[name]
	if !ok {
		m = map[string]int64{}
		reg.counters[name] = m
	}
	m[canonLabels(labels)] += int64(value)
}

func SetGauge(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.gauges[name]
	if !ok {
		m = map[string]float64{}
		reg.gauges[name] = m
	}
	m[canonLabels(labels)] = value
}

func Observe(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.hist[name]
	if !ok {
		m = map[string][]float64{}
		reg.hist[name] = m
	}
	k := canonLabels(labels)
	m[k] = append(m[k], value)
}

func RecordDuration(name string, d time.Duration, labels map[string]string) {
	Observe(name+"_ms", float64(d.Milliseconds()), labels)
}

// Handler dumps the raw registry as JSON (not a Prometheus exposition
// format on purpose — this mirrors the scrape-free dev endpoint the rest
// of this codebase uses).
func Handler() http.Handler {
	type dump struct {
		Counters map[string]map[string]int64     `json:"counters"`
		Gauges   map[string]map[string]float64   `json:"gauges"`
		Hist     map[string]map[string][]float64 `json:"histograms"`
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dump{Counters: reg.counters, Gauges: reg.gauges, Hist: reg.hist})
	})
}

// HealthStatus is the shape served by HealthHandler.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Metrics   HealthMetrics          `json:"metrics"`
	Details   map[string]interface{} `json:"details"`
}

// HealthMetrics summarizes the signals the orchestrator's health loop and
// an external monitor care about.
type HealthMetrics struct {
	BarLatencyP95Ms     int64   `json:"bar_latency_p95_ms"`
	SignalEmitRate      float64 `json:"signal_emit_rate"`
	BrokerSuccessRate   float64 `json:"broker_success_rate"`
	BrokerReqLatencyP95 int64   `json:"broker_req_latency_p95_ms"`
	RiskBlockRate       float64 `json:"risk_block_rate"`
	SymbolsStale        int64   `json:"symbols_stale"`
	CircuitBreakerOpen  bool    `json:"circuit_breaker_open"`
}

var (
	startTime = time.Now()
	version   = "dev"
)

func SetVersion(v string) { version = v }

// HealthHandler returns a liveness/readiness endpoint derived from the
// in-memory registry — no external time-series store involved.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		defer reg.mu.Unlock()

		health := HealthStatus{
			Status:    calculateOverallHealthStatus(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Version:   version,
			Metrics:   calculateHealthMetrics(),
			Details:   gatherHealthDetails(),
		}

		statusCode := http.StatusOK
		switch health.Status {
		case "degraded":
			statusCode = http.StatusPartialContent
		case "failed":
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(health)
	})
}

func calculateOverallHealthStatus() string {
	if hasFailedComponents() {
		return "failed"
	}
	if hasDegradedComponents() {
		return "degraded"
	}
	return "healthy"
}

func p95(samples map[string][]float64) int64 {
	for _, s := range samples {
		if len(s) == 0 {
			continue
		}
		sorted := append([]float64(nil), s...)
		sort.Float64s(sorted)
		idx := int(float64(len(sorted)) * 0.95)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return int64(sorted[idx])
	}
	return 0
}

func sumCounter(name string) int64 {
	var total int64
	for _, c := range reg.counters[name] {
		total += c
	}
	return total
}

func calculateHealthMetrics() HealthMetrics {
	m := HealthMetrics{}

	if h, ok := reg.hist["bar_process_latency_ms"]; ok {
		m.BarLatencyP95Ms = p95(h)
	}
	if h, ok := reg.hist["broker_request_latency_ms"]; ok {
		m.BrokerReqLatencyP95 = p95(h)
	}

	bars := sumCounter("bars_processed_total")
	signals := sumCounter("signals_emitted_total")
	if bars > 0 {
		m.SignalEmitRate = float64(signals) / float64(bars)
	}

	reqs := sumCounter("broker_requests_total")
	ok := sumCounter("broker_requests_ok_total")
	if reqs > 0 {
		m.BrokerSuccessRate = float64(ok) / float64(reqs)
	}

	acks := sumCounter("executor_acks_total")
	blocked := sumCounter("risk_blocks_total")
	if acks > 0 {
		m.RiskBlockRate = float64(blocked) / float64(acks)
	}

	for _, v := range reg.gauges["symbol_stale"] {
		if v > 0 {
			m.SymbolsStale++
		}
	}
	for _, v := range reg.gauges["circuit_breaker_open"] {
		if v == 1 {
			m.CircuitBreakerOpen = true
		}
	}

	return m
}

func hasFailedComponents() bool {
	for _, v := range reg.gauges["circuit_breaker_open"] {
		if v == 1 {
			return true
		}
	}
	reqs := sumCounter("broker_requests_total")
	ok := sumCounter("broker_requests_ok_total")
	if reqs > 50 && float64(ok)/float64(reqs) < 0.5 {
		return true
	}
	return false
}

func hasDegradedComponents() bool {
	for _, v := range reg.gauges["symbol_stale"] {
		if v > 0 {
			return true
		}
	}
	if h, ok := reg.hist["broker_request_latency_ms"]; ok {
		if p95(h) > 5000 {
			return true
		}
	}
	return false
}

func gatherHealthDetails() map[string]interface{} {
	details := map[string]interface{}{}

	var staleSymbols []string
	for k, v := range reg.gauges["symbol_stale"] {
		if v > 0 {
			staleSymbols = append(staleSymbols, k)
		}
	}
	details["stale_symbols"] = staleSymbols
	details["consecutive_losses"] = reg.gauges["risk_consecutive_losses"]
	details["drawdown_pct"] = reg.gauges["risk_drawdown_pct"]

	return details
}

// Health is a bare liveness probe with no computed status.
func Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
