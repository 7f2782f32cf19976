// Package priceconv turns a USD-denominated stop/target distance into an
// absolute price level, using per-symbol pip value and digit precision.
package priceconv

import (
	"math"

	"github.com/Rajchodisetti/oracle-core/internal/errs"
)

// DefaultPipValues is a static fallback table of well-known majors' pip
// value per standard lot, consulted only when the broker's symbol info
// doesn't carry one. Production policy is to fail rather than guess for
// anything not in this table.
var DefaultPipValues = map[string]float64{
	"EURUSD": 10.0,
	"GBPUSD": 10.0,
	"AUDUSD": 10.0,
	"NZDUSD": 10.0,
	"USDCAD": 10.0,
	"USDCHF": 10.0,
	"USDJPY": 9.3,
}

// DefaultDigits is consulted when symbol info omits digits.
var DefaultDigits = map[string]int{
	"USDJPY": 3,
}

const defaultDigitsFallback = 5

// PipMultiplier maps quote-price digit precision to the number of price
// ticks in one pip: digits in {3,5} are one-pip-equals-10-ticks quotes,
// everything else is treated as pip == tick.
func PipMultiplier(digits int) int {
	if digits == 3 || digits == 5 {
		return 10
	}
	return 1
}

func pipSize(digits int) float64 {
	return float64(PipMultiplier(digits)) / math.Pow10(digits)
}

// Levels holds the computed absolute stop-loss and take-profit prices. A
// side whose USD distance is zero means "not set" and carries a zero price.
type Levels struct {
	SLPrice float64
	TPPrice float64
}

// Convert computes SL/TP absolute price levels for a position opened at
// entry with the given direction (+1 long, -1 short) and volume in lots.
// slUSD/tpUSD of 0 means that side is unset and is returned as 0.
func Convert(symbol string, direction int, entry, volume, slUSD, tpUSD float64, pipValuePerLot float64, pipValueKnown bool, digits int, digitsKnown bool) (Levels, error) {
	if !pipValueKnown {
		v, ok := DefaultPipValues[symbol]
		if !ok {
			return Levels{}, errs.New(errs.UnknownPipValue, "no pip value available for "+symbol)
		}
		pipValuePerLot = v
	}
	if !digitsKnown {
		d, ok := DefaultDigits[symbol]
		if ok {
			digits = d
		} else {
			digits = defaultDigitsFallback
		}
	}

	pip := pipSize(digits)
	var out Levels
	if slUSD != 0 {
		distPips := slUSD / (pipValuePerLot * volume)
		out.SLPrice = roundToDigits(entry-float64(direction)*distPips*pip, digits)
	}
	if tpUSD != 0 {
		distPips := tpUSD / (pipValuePerLot * volume)
		out.TPPrice = roundToDigits(entry+float64(direction)*distPips*pip, digits)
	}
	return out, nil
}

// USDFromPrice is the inverse of Convert for one side: recovers the USD
// stop distance implied by an absolute price level, used by the
// round-trip property test.
func USDFromPrice(direction int, entry, price, volume, pipValuePerLot float64, digits int) float64 {
	pip := pipSize(digits)
	distPips := math.Abs(entry-price) / pip
	_ = direction
	return distPips * pipValuePerLot * volume
}

func roundToDigits(v float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(v*scale) / scale
}
