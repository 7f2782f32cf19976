// Package mockbroker implements bridge.VendorSDK against an in-process
// simulated venue — used for --dry-run, tests, and local development
// without a live broker connection.
package mockbroker

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/Rajchodisetti/oracle-core/internal/bridge"
)

// SDK is a deterministic-enough fake of a vendor connector: it owns its
// own tick-generation loop (standing in for the vendor's event loop) and
// answers RPCs synchronously via the callback the Bridge passed in.
type SDK struct {
	symbols map[string]float64 // symbol -> synthetic last price
	period  int64

	mu        sync.Mutex
	positions map[string]bridge.RealPosition
	nextTicket int

	onEvent func(any)
	stop    chan struct{}
}

func New(symbols map[string]float64, periodSeconds int64) *SDK {
	return &SDK{
		symbols:   symbols,
		period:    periodSeconds,
		positions: map[string]bridge.RealPosition{},
	}
}

func (s *SDK) Connect(onEvent func(any)) error {
	s.onEvent = onEvent
	s.stop = make(chan struct{})
	go s.tickLoop()
	return nil
}

func (s *SDK) Disconnect() error {
	close(s.stop)
	return nil
}

func (s *SDK) tickLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			for sym, price := range s.symbols {
				price = price * (1 + (rand.Float64()-0.5)*0.0005)
				s.symbols[sym] = price
				s.onEvent(bridge.Tick{Symbol: sym, Time: time.Now().Unix(), Price: price})
			}
			s.mu.Unlock()
		}
	}
}

func (s *SDK) SendRequest(req bridge.VendorRequest, cb func(bridge.VendorResponse)) {
	switch req.Op {
	case "get_history":
		cb(bridge.VendorResponse{Payload: s.history(req.Payload)})
	case "get_account":
		cb(bridge.VendorResponse{Payload: bridge.AccountInfo{
			Balance: 10000, Equity: 10000, UsedMargin: 0, FreeMargin: 10000,
			MarginLevel: 100000, Currency: "USD",
		}})
	case "get_symbol_info":
		sym, _ := req.Payload.(string)
		digits := 5
		if len(sym) >= 3 && sym[len(sym)-3:] == "JPY" {
			digits = 3
		}
		cb(bridge.VendorResponse{Payload: bridge.SymbolInfo{
			Symbol: sym, Point: pointFor(digits), Digits: digits,
			PipValuePerLot: 10.0, SpreadPoints: 15, MinVolume: 0.01, StepVolume: 0.01, MaxVolume: 50,
		}})
	case "get_positions":
		s.mu.Lock()
		out := make([]bridge.RealPosition, 0, len(s.positions))
		for _, p := range s.positions {
			out = append(out, p)
		}
		s.mu.Unlock()
		cb(bridge.VendorResponse{Payload: out})
	case "get_position":
		sym, _ := req.Payload.(string)
		s.mu.Lock()
		p, ok := s.positions[sym]
		s.mu.Unlock()
		if !ok {
			cb(bridge.VendorResponse{Payload: nil})
			return
		}
		cb(bridge.VendorResponse{Payload: p})
	case "open_order":
		order, _ := req.Payload.(bridge.OrderRequest)
		s.mu.Lock()
		s.nextTicket++
		ticket := ticketID(s.nextTicket)
		price := s.symbols[order.Symbol]
		s.positions[order.Symbol] = bridge.RealPosition{
			Ticket: ticket, Symbol: order.Symbol, Direction: order.Direction,
			Volume: order.Volume, OpenPrice: price, CurrentPrice: price,
			SL: order.SL, TP: order.TP, OpenTime: time.Now(), Comment: order.Comment,
		}
		s.mu.Unlock()
		cb(bridge.VendorResponse{Payload: bridge.OrderResult{Success: true, Ticket: ticket, ExecutedPrice: price}})
	case "close_order":
		ticket, _ := req.Payload.(string)
		s.mu.Lock()
		var price float64
		var found bool
		for sym, p := range s.positions {
			if p.Ticket == ticket {
				price = s.symbols[sym]
				delete(s.positions, sym)
				found = true
				break
			}
		}
		s.mu.Unlock()
		if !found {
			cb(bridge.VendorResponse{Payload: bridge.OrderResult{Success: false, ErrorCode: "NOT_FOUND"}})
			return
		}
		cb(bridge.VendorResponse{Payload: bridge.OrderResult{Success: true, Ticket: ticket, ExecutedPrice: price}})
	case "modify_order":
		cb(bridge.VendorResponse{Payload: bridge.OrderResult{Success: true}})
	default:
		cb(bridge.VendorResponse{Payload: nil})
	}
}

func (s *SDK) history(payload any) []bridge.Tick {
	args, _ := payload.(map[string]any)
	symbol, _ := args["symbol"].(string)
	count, _ := args["count"].(int)
	if count <= 0 {
		count = 1000
	}
	price := s.symbols[symbol]
	out := make([]bridge.Tick, count)
	now := time.Now().Unix()
	for i := 0; i < count; i++ {
		price = price * (1 + (rand.Float64()-0.5)*0.001)
		out[i] = bridge.Tick{Symbol: symbol, Time: now - int64(count-i), Price: price}
	}
	return out
}

func pointFor(digits int) float64 {
	p := 1.0
	for i := 0; i < digits; i++ {
		p /= 10
	}
	return p
}

func ticketID(n int) string {
	return "MOCK-" + time.Now().Format("150405") + "-" + strconv.Itoa(n)
}
