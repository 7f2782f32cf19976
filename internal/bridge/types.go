// Package bridge adapts a callback-based vendor SDK (with its own event
// loop) into a plain async request/response interface, with rate
// limiting, auth refresh and reconnection handled centrally.
package bridge

import "time"

// AccountInfo mirrors the broker-reported account snapshot.
type AccountInfo struct {
	Balance     float64
	Equity      float64
	UsedMargin  float64
	FreeMargin  float64
	MarginLevel float64
	Currency    string
}

// RealPosition is the broker's view of an open position. The core holds
// only a short-lived cached copy; the broker is authoritative.
type RealPosition struct {
	Ticket      string
	Symbol      string
	Direction   int // -1, +1
	Volume      float64
	OpenPrice   float64
	CurrentPrice float64
	RealizedPnL float64
	FloatingPnL float64
	SL, TP      float64
	OpenTime    time.Time
	Comment     string
}

// SymbolInfo is broker-reported instrument metadata, cached with a TTL.
type SymbolInfo struct {
	Symbol        string
	Point         float64
	Digits        int
	PipValuePerLot float64
	SpreadPoints  float64
	MinVolume     float64
	StepVolume    float64
	MaxVolume     float64
	FetchedAt     time.Time
}

// OrderRequest describes a new market order.
type OrderRequest struct {
	Symbol    string
	Direction int
	Volume    float64
	SL, TP    float64
	Comment   string
}

// OrderResult is the broker's response to an order operation. Immutable
// after return.
type OrderResult struct {
	Success       bool
	Ticket        string
	ExecutedPrice float64
	ErrorCode     string
	ErrorMsg      string
}

// Tick is a single price update for a subscribed symbol.
type Tick struct {
	Symbol string
	Time   int64
	Price  float64
}

// ExternalEvent notifies of a broker-side change the core did not
// initiate (SL/TP fill, manual close).
type ExternalEvent struct {
	Type    string // "fill", "external_close"
	Ticket  string
	Symbol  string
	Price   float64
	Time    time.Time
}
