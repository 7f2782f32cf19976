package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthMonitorFreshSymbolHasNoIssues(t *testing.T) {
	h := newHealthMonitor(time.Minute)
	h.update("EURUSD")

	report := h.check()
	assert.True(t, report.Healthy)
	assert.Empty(t, report.Issues)
}

func TestHealthMonitorStaleSymbolIsFlagged(t *testing.T) {
	h := newHealthMonitor(time.Millisecond)
	h.update("EURUSD")
	time.Sleep(5 * time.Millisecond)

	report := h.check()
	assert.False(t, report.Healthy)
	assert.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "EURUSD")
}

func TestHealthMonitorResetDropsSymbol(t *testing.T) {
	h := newHealthMonitor(time.Millisecond)
	h.update("EURUSD")
	h.reset("EURUSD")
	time.Sleep(5 * time.Millisecond)

	report := h.check()
	assert.True(t, report.Healthy)
}

func TestHealthMonitorUptimeAdvances(t *testing.T) {
	h := newHealthMonitor(time.Minute)
	time.Sleep(5 * time.Millisecond)
	report := h.check()
	assert.Greater(t, report.UptimeS, 0.0)
}
