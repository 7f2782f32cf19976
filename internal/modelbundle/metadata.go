package modelbundle

// SupportedVersions is the allow-list of archive format versions this
// loader accepts. Unknown versions fail loudly at load time rather than
// being coerced.
var SupportedVersions = map[string]bool{"2.0": true}

// ActionSpec describes one entry of the 0..6 action index table.
type ActionSpec struct {
	Name      string `json:"name"`
	Direction int    `json:"direction"`
	Intensity int    `json:"intensity"`
}

// HMMConfig carries the regime model's state count and its three
// rolling-window periods.
type HMMConfig struct {
	NumStates         int `json:"n_states"`
	MomentumPeriod    int `json:"momentum_period"`
	ConsistencyPeriod int `json:"consistency_period"`
	RangePeriod       int `json:"range_period"`
}

// RLConfig carries the policy's five rolling-window periods.
type RLConfig struct {
	ROCPeriod      int `json:"roc_period"`
	ATRPeriod      int `json:"atr_period"`
	EMAPeriod      int `json:"ema_period"`
	RangePeriod    int `json:"range_period"`
	VolumeMAPeriod int `json:"volume_ma_period"`
}

// StateAnalysis groups HMM state indices by the market regime they were
// found to represent during training.
type StateAnalysis struct {
	BullStates  []int `json:"bull_states"`
	BearStates  []int `json:"bear_states"`
	RangeStates []int `json:"range_states"`
}

// Provenance records the data this model was trained/validated/tested
// against.
type Provenance struct {
	DateRangeStart string         `json:"date_range_start"`
	DateRangeEnd   string         `json:"date_range_end"`
	BarCounts      map[string]int `json:"bar_counts"` // "train"/"val"/"test" -> count
}

// Metadata is the JSON record stored in the archive's comment field.
// Validate checks only the fields it lists; any other field may be absent
// and then decodes to its zero value.
type Metadata struct {
	FormatVersion string `json:"format_version"`
	Symbol        string `json:"symbol"`

	Point            float64         `json:"point"`
	PipValue         float64         `json:"pip_value"`
	SpreadPoints     float64         `json:"spread_points"`
	SlippagePoints   float64         `json:"slippage_points"`
	CommissionPerLot float64         `json:"commission_per_lot"`
	Digits           int             `json:"digits"`
	InitialBalance   float64         `json:"initial_balance"`
	LotSizes         map[int]float64 `json:"lot_sizes"`
	TotalTimesteps   int             `json:"total_timesteps"`

	HMM    HMMConfig    `json:"hmm_config"`
	RL     RLConfig     `json:"rl_config"`
	Action [7]ActionSpec `json:"action_table"`
	States StateAnalysis `json:"state_analysis"`
	Data   Provenance    `json:"data_provenance"`
}

var requiredNonZero = []string{
	"format_version", "symbol", "point", "pip_value", "commission_per_lot",
}

// Validate checks the format version allow-list and that symbol, point,
// pip_value, commission_per_lot, digits, lot_sizes and hmm_config.n_states
// are set, failing loudly on the first one missing. The other fields
// (spread_points, slippage_points, initial_balance, total_timesteps, the
// rest of hmm_config, rl_config, action_table, state_analysis and
// data_provenance) are not checked.
func (m *Metadata) Validate() error {
	if !SupportedVersions[m.FormatVersion] {
		return &unsupportedVersionError{version: m.FormatVersion}
	}
	if m.Symbol == "" {
		return &missingFieldError{field: "symbol"}
	}
	if m.Point == 0 {
		return &missingFieldError{field: "point"}
	}
	if m.PipValue == 0 {
		return &missingFieldError{field: "pip_value"}
	}
	if m.CommissionPerLot == 0 {
		return &missingFieldError{field: "commission_per_lot"}
	}
	if m.Digits == 0 {
		return &missingFieldError{field: "digits"}
	}
	if len(m.LotSizes) == 0 {
		return &missingFieldError{field: "lot_sizes"}
	}
	if m.HMM.NumStates == 0 {
		return &missingFieldError{field: "hmm_config.n_states"}
	}
	return nil
}

type unsupportedVersionError struct{ version string }

func (e *unsupportedVersionError) Error() string {
	return "unsupported model archive format version: " + e.version
}

type missingFieldError struct{ field string }

func (e *missingFieldError) Error() string {
	return "model archive metadata missing required field: " + e.field
}
