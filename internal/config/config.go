// Package config loads the main process configuration document and the
// per-symbol execution config, expanding ${ENV_VAR} references from the
// process environment at load time.
package config

import (
	"encoding/json"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Broker struct {
	Type        string            `yaml:"type"` // real | mock
	Credentials map[string]string `yaml:"credentials"`
	Environment string            `yaml:"environment"` // demo | live
}

type Paths struct {
	ModelsDir      string `yaml:"models_dir"`
	ExecutorConfig string `yaml:"executor_config"`
	LogDir         string `yaml:"log_dir"`
	StateDir       string `yaml:"state_dir"`
}

type Trading struct {
	Timeframe         string  `yaml:"timeframe"`
	InitialBalance    float64 `yaml:"initial_balance"`
	CloseOnExit       bool    `yaml:"close_on_exit"`
	CloseOnDayChange  bool    `yaml:"close_on_day_change"`
}

type Risk struct {
	DrawdownLimitPct     float64 `yaml:"dd_limit_pct"`
	DrawdownEmergencyPct float64 `yaml:"dd_emergency_pct"`
	InitialBalance       float64 `yaml:"initial_balance"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
}

type Persistence struct {
	Enabled     bool              `yaml:"enabled"`
	Endpoint    string            `yaml:"endpoint"`
	Credentials map[string]string `yaml:"credentials"`
}

type Logging struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	Rotation string `yaml:"rotation"`
}

type Health struct {
	HeartbeatIntervalS int `yaml:"heartbeat_interval_s"`
	SymbolTimeoutS     int `yaml:"symbol_timeout_s"`
	MemoryLimitMB      int `yaml:"memory_limit_mb"`
}

// Root is the top-level main configuration document.
type Root struct {
	Broker      Broker      `yaml:"broker"`
	Paths       Paths       `yaml:"paths"`
	Trading     Trading     `yaml:"trading"`
	Risk        Risk        `yaml:"risk"`
	Persistence Persistence `yaml:"persistence"`
	Logging     Logging     `yaml:"logging"`
	Health      Health      `yaml:"health"`
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces every ${ENV_VAR} occurrence with its value from the
// process environment, leaving unset variables as an empty string.
func expandEnv(b []byte) []byte {
	return envRef.ReplaceAllFunc(b, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads, env-expands and parses the main configuration document,
// filling in defaults for anything the document omits.
func Load(path string) (Root, error) {
	var c Root
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	raw = expandEnv(raw)
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	return c, nil
}

func applyDefaults(c *Root) {
	if c.Broker.Type == "" {
		c.Broker.Type = "mock"
	}
	if c.Broker.Environment == "" {
		c.Broker.Environment = "demo"
	}
	if c.Paths.ModelsDir == "" {
		c.Paths.ModelsDir = "./models"
	}
	if c.Paths.ExecutorConfig == "" {
		c.Paths.ExecutorConfig = "./config/executor_symbols.json"
	}
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = "./logs"
	}
	if c.Paths.StateDir == "" {
		c.Paths.StateDir = "."
	}
	if c.Trading.Timeframe == "" {
		c.Trading.Timeframe = "M15"
	}
	if c.Trading.InitialBalance == 0 {
		c.Trading.InitialBalance = 10000
	}
	if c.Risk.InitialBalance == 0 {
		c.Risk.InitialBalance = c.Trading.InitialBalance
	}
	if c.Risk.DrawdownLimitPct == 0 {
		c.Risk.DrawdownLimitPct = 5
	}
	if c.Risk.DrawdownEmergencyPct == 0 {
		c.Risk.DrawdownEmergencyPct = 10
	}
	if c.Risk.MaxConsecutiveLosses == 0 {
		c.Risk.MaxConsecutiveLosses = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Health.HeartbeatIntervalS == 0 {
		c.Health.HeartbeatIntervalS = 30
	}
	if c.Health.SymbolTimeoutS == 0 {
		c.Health.SymbolTimeoutS = 300
	}
	if c.Health.MemoryLimitMB == 0 {
		c.Health.MemoryLimitMB = 1000
	}
}

// SymbolEntry is one symbol's execution policy as stored in the JSON
// symbol-configuration document.
type SymbolEntry struct {
	Enabled       bool            `json:"enabled"`
	LotMapping    map[string]float64 `json:"lot_mapping"` // "1","2","3" -> lots
	SLUSD         float64         `json:"sl_usd"`
	TPUSD         float64         `json:"tp_usd"`
	MaxSpreadPips float64         `json:"max_spread_pips"`
}

// RiskEntry is the reserved "_risk" top-level entry carrying risk
// parameters alongside the per-symbol entries.
type RiskEntry struct {
	DrawdownLimitPct     float64 `json:"dd_limit_pct"`
	DrawdownEmergencyPct float64 `json:"dd_emergency_pct"`
	InitialBalance       float64 `json:"initial_balance"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

// SymbolDocument is the parsed symbol-configuration file: every
// top-level key is a symbol entry except the reserved "_risk" key.
type SymbolDocument struct {
	Symbols map[string]SymbolEntry
	Risk    *RiskEntry
}

// LoadSymbolConfig reads the JSON symbol-configuration document, pulling
// the reserved "_risk" entry out of the per-symbol map.
func LoadSymbolConfig(path string) (SymbolDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SymbolDocument{}, err
	}
	raw = expandEnv(raw)

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return SymbolDocument{}, err
	}

	doc := SymbolDocument{Symbols: make(map[string]SymbolEntry)}
	for key, val := range generic {
		if key == "_risk" {
			var r RiskEntry
			if err := json.Unmarshal(val, &r); err != nil {
				return SymbolDocument{}, err
			}
			doc.Risk = &r
			continue
		}
		var entry SymbolEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return SymbolDocument{}, err
		}
		doc.Symbols[key] = entry
	}
	return doc, nil
}

// HeartbeatInterval is a convenience conversion for the orchestrator's
// heartbeat loop.
func (h Health) HeartbeatInterval() time.Duration {
	return time.Duration(h.HeartbeatIntervalS) * time.Second
}

// SymbolTimeout is a convenience conversion for the health monitor.
func (h Health) SymbolTimeout() time.Duration {
	return time.Duration(h.SymbolTimeoutS) * time.Second
}
