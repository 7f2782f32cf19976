package risk

import "time"

// Config tunes the Risk Guard's four ordered gates. Defaults match the
// published policy: fail-closed on unknown spread in production.
type Config struct {
	DrawdownLimitPct     float64
	DrawdownEmergencyPct float64
	InitialBalance       float64

	MaxSpreadPips float64

	SpreadFailOpen bool // deliberate dev-mode opt-in; false in production

	MaxConsecutiveLosses int
	CooldownDuration     time.Duration
}

func DefaultConfig(initialBalance float64) Config {
	return Config{
		DrawdownLimitPct:     5,
		DrawdownEmergencyPct: 10,
		InitialBalance:       initialBalance,
		SpreadFailOpen:       false,
		MaxConsecutiveLosses: 5,
		CooldownDuration:     60 * time.Minute,
	}
}
