package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTempFile(t, "min.yaml", "broker:\n  type: mock\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Broker.Type)
	assert.Equal(t, "demo", cfg.Broker.Environment)
	assert.Equal(t, "M15", cfg.Trading.Timeframe)
	assert.Equal(t, 10000.0, cfg.Trading.InitialBalance)
	assert.Equal(t, 5.0, cfg.Risk.DrawdownLimitPct)
	assert.Equal(t, 10.0, cfg.Risk.DrawdownEmergencyPct)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30, cfg.Health.HeartbeatIntervalS)
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("ORACLE_TEST_TOKEN", "secret-123")
	path := writeTempFile(t, "env.yaml", "broker:\n  credentials:\n    api_key: \"${ORACLE_TEST_TOKEN}\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-123", cfg.Broker.Credentials["api_key"])
}

func TestLoadUnsetEnvVarExpandsToEmptyString(t *testing.T) {
	os.Unsetenv("ORACLE_TEST_UNSET")
	path := writeTempFile(t, "unset.yaml", "broker:\n  credentials:\n    api_key: \"${ORACLE_TEST_UNSET}\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Broker.Credentials["api_key"])
}

func TestLoadRiskInitialBalanceFallsBackToTradingBalance(t *testing.T) {
	path := writeTempFile(t, "risk.yaml", "trading:\n  initial_balance: 25000\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, cfg.Risk.InitialBalance)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSymbolConfigSeparatesReservedRiskKey(t *testing.T) {
	path := writeTempFile(t, "symbols.json", `{
		"EURUSD": {"enabled": true, "lot_mapping": {"1": 0.1, "2": 0.2}, "sl_usd": 50, "tp_usd": 100},
		"_risk": {"dd_limit_pct": 4, "max_consecutive_losses": 3}
	}`)
	doc, err := LoadSymbolConfig(path)
	require.NoError(t, err)

	require.Contains(t, doc.Symbols, "EURUSD")
	assert.True(t, doc.Symbols["EURUSD"].Enabled)
	assert.Equal(t, 0.1, doc.Symbols["EURUSD"].LotMapping["1"])
	require.NotNil(t, doc.Risk)
	assert.Equal(t, 4.0, doc.Risk.DrawdownLimitPct)
	assert.NotContains(t, doc.Symbols, "_risk")
}

func TestLoadSymbolConfigWithoutRiskKey(t *testing.T) {
	path := writeTempFile(t, "nosrisk.json", `{"EURUSD": {"enabled": true}}`)
	doc, err := LoadSymbolConfig(path)
	require.NoError(t, err)
	assert.Nil(t, doc.Risk)
}

func TestHeartbeatIntervalAndSymbolTimeoutConvertSeconds(t *testing.T) {
	h := Health{HeartbeatIntervalS: 45, SymbolTimeoutS: 600}
	assert.Equal(t, 45*1e9, float64(h.HeartbeatInterval()))
	assert.Equal(t, 600*1e9, float64(h.SymbolTimeout()))
}
