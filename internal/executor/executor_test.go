package executor

import (
	"context"
	"testing"

	"github.com/Rajchodisetti/oracle-core/internal/bridge"
	"github.com/Rajchodisetti/oracle-core/internal/errs"
	"github.com/Rajchodisetti/oracle-core/internal/predictor"
	"github.com/Rajchodisetti/oracle-core/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSymbolConfig() SymbolConfig {
	return SymbolConfig{
		Enabled:       true,
		LotMapping:    map[int]float64{1: 0.1, 2: 0.2, 3: 0.3},
		SLUSD:         50,
		TPUSD:         100,
		MaxSpreadPips: 3,
	}
}

func healthySymbolInfo() bridge.SymbolInfo {
	return bridge.SymbolInfo{
		Symbol: "EURUSD", Point: 0.0001, Digits: 5,
		PipValuePerLot: 10, SpreadPoints: 10,
	}
}

func healthyAccount() bridge.AccountInfo {
	return bridge.AccountInfo{Balance: 10000, Equity: 10000, FreeMargin: 9000}
}

func newTestExecutor(client bridge.Client) *Executor {
	guard := risk.New(risk.DefaultConfig(10000))
	return New(client, guard, 10000, map[string]SymbolConfig{"EURUSD": testSymbolConfig()}, false)
}

func TestProcessDisabledSymbolSkips(t *testing.T) {
	e := New(&fakeClient{}, risk.New(risk.DefaultConfig(10000)), 10000, map[string]SymbolConfig{}, false)
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD"})
	assert.Equal(t, "SKIP", ack.Status)
	assert.Equal(t, "DISABLED", ack.Reason)
}

func TestProcessPausedSkips(t *testing.T) {
	e := newTestExecutor(&fakeClient{})
	e.Pause()
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD"})
	assert.Equal(t, "SKIP", ack.Status)
	assert.Equal(t, "PAUSED", ack.Reason)
}

func TestProcessResumeClearsPause(t *testing.T) {
	e := newTestExecutor(&fakeClient{})
	e.Pause()
	e.Resume()
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 0})
	assert.NotEqual(t, "PAUSED", ack.Reason)
}

func TestProcessGetPositionErrorReturnsErrorAck(t *testing.T) {
	client := &fakeClient{getPosErr: errs.New(errs.ConnectionLost, "no connection")}
	e := newTestExecutor(client)
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD"})
	assert.Equal(t, "ERROR", ack.Status)
}

func TestProcessFlatNoSignalIsSynced(t *testing.T) {
	e := newTestExecutor(&fakeClient{})
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 0})
	assert.Equal(t, "OK", ack.Status)
	assert.Equal(t, "SYNCED", ack.Reason)
}

func TestProcessFirstSignalLatchesWaitingSync(t *testing.T) {
	e := newTestExecutor(&fakeClient{})
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 1})
	assert.Equal(t, "OK", ack.Status)
	assert.Equal(t, "WAITING_SYNC", ack.Reason)
}

func TestProcessDirectionEdgeWhileFlatOpens(t *testing.T) {
	client := &fakeClient{
		account:    healthyAccount(),
		symbolInfo: healthySymbolInfo(),
		openResult: bridge.OrderResult{Success: true, Ticket: "T1", ExecutedPrice: 1.1002},
	}
	e := newTestExecutor(client)

	e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 1, ClosePrice: 1.1000})
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: -1, Intensity: 1, ClosePrice: 1.1000})

	require.Equal(t, "OK", ack.Status)
	assert.Equal(t, "OPENED", ack.Reason)
	assert.Equal(t, "T1", ack.Ticket)
	require.Len(t, client.openCalls, 1)
	assert.Equal(t, -1, client.openCalls[0].Direction)
	assert.InDelta(t, 0.1, client.openCalls[0].Volume, 1e-9)
}

func TestProcessRealPositionMatchingSignalIsSynced(t *testing.T) {
	client := &fakeClient{position: &bridge.RealPosition{Ticket: "T1", Symbol: "EURUSD", Direction: 1}}
	e := newTestExecutor(client)
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 1})
	assert.Equal(t, "OK", ack.Status)
	assert.Equal(t, "SYNCED", ack.Reason)
}

func TestProcessRealPositionOpposingSignalCloses(t *testing.T) {
	client := &fakeClient{
		position:    &bridge.RealPosition{Ticket: "T1", Symbol: "EURUSD", Direction: 1, RealizedPnL: -20},
		closeResult: bridge.OrderResult{Success: true, Ticket: "T1", ExecutedPrice: 1.0950},
	}
	e := newTestExecutor(client)
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: -1, Intensity: 1})

	require.Equal(t, "OK", ack.Status)
	assert.Equal(t, "CLOSED", ack.Reason)
	assert.Equal(t, []string{"T1"}, client.closeCalls)
	assert.Equal(t, 1, e.guard.ConsecutiveLosses())
}

func TestProcessCloseFailureReturnsErrorAck(t *testing.T) {
	client := &fakeClient{
		position:    &bridge.RealPosition{Ticket: "T1", Symbol: "EURUSD", Direction: 1},
		closeResult: bridge.OrderResult{Success: false, ErrorCode: "REJECT"},
	}
	e := newTestExecutor(client)
	ack := e.Process(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: -1, Intensity: 1})
	assert.Equal(t, "ERROR", ack.Status)
	assert.Equal(t, "REJECT", ack.Reason)
}

func TestOpenPositionZeroLotSkips(t *testing.T) {
	e := newTestExecutor(&fakeClient{account: healthyAccount(), symbolInfo: healthySymbolInfo()})
	ack := e.openPosition(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 0}, testSymbolConfig())
	assert.Equal(t, "SKIP", ack.Status)
	assert.Equal(t, "ZERO_LOT", ack.Reason)
}

func TestOpenPositionMarginGateBlocks(t *testing.T) {
	client := &fakeClient{
		account:    bridge.AccountInfo{Balance: 10000, Equity: 10000, FreeMargin: 0},
		symbolInfo: healthySymbolInfo(),
	}
	e := newTestExecutor(client)
	ack := e.openPosition(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 1, ClosePrice: 1.1}, testSymbolConfig())
	assert.Equal(t, "SKIP", ack.Status)
	assert.Equal(t, "InsufficientMargin", ack.Reason)
}

func TestOpenPositionUnknownPipValueSkips(t *testing.T) {
	client := &fakeClient{
		account:    healthyAccount(),
		symbolInfo: bridge.SymbolInfo{Symbol: "ZZZXXX", Point: 0.0001, Digits: 5, PipValuePerLot: 0, SpreadPoints: 10},
	}
	e := newTestExecutor(client)
	ack := e.openPosition(context.Background(), predictor.Signal{Symbol: "ZZZXXX", Direction: 1, Intensity: 1, ClosePrice: 1.1}, testSymbolConfig())
	assert.Equal(t, "SKIP", ack.Status)
	assert.Equal(t, "UnknownPipValue", ack.Reason)
}

func TestOpenPositionDryRunDoesNotCallBroker(t *testing.T) {
	client := &fakeClient{account: healthyAccount(), symbolInfo: healthySymbolInfo()}
	guard := risk.New(risk.DefaultConfig(10000))
	e := New(client, guard, 10000, map[string]SymbolConfig{"EURUSD": testSymbolConfig()}, true)

	ack := e.openPosition(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 1, ClosePrice: 1.1}, testSymbolConfig())
	assert.Equal(t, "OK", ack.Status)
	assert.Equal(t, "DRY_RUN", ack.Reason)
	assert.Empty(t, client.openCalls)
}

func TestOpenPositionBrokerRejectionReturnsErrorAck(t *testing.T) {
	client := &fakeClient{
		account:    healthyAccount(),
		symbolInfo: healthySymbolInfo(),
		openResult: bridge.OrderResult{Success: false, ErrorCode: "NO_MONEY"},
	}
	e := newTestExecutor(client)
	ack := e.openPosition(context.Background(), predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 1, ClosePrice: 1.1}, testSymbolConfig())
	assert.Equal(t, "ERROR", ack.Status)
	assert.Equal(t, "NO_MONEY", ack.Reason)
}

func TestOpenPositionEmbedsAuditCommentOnOrder(t *testing.T) {
	client := &fakeClient{
		account:    healthyAccount(),
		symbolInfo: healthySymbolInfo(),
		openResult: bridge.OrderResult{Success: true, Ticket: "T9"},
	}
	e := newTestExecutor(client)
	sig := predictor.Signal{Symbol: "EURUSD", Direction: 1, Intensity: 2, ClosePrice: 1.1, HMMState: 3, Action: 2, VirtualPnL: 5.5}
	e.openPosition(context.Background(), sig, testSymbolConfig())

	require.Len(t, client.openCalls, 1)
	fields, err := ParseComment(client.openCalls[0].Comment)
	require.NoError(t, err)
	assert.Equal(t, 3, fields.HMMState)
	assert.Equal(t, 10000, fields.BalanceInt)
}
