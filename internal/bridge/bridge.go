package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rajchodisetti/oracle-core/internal/bridge/ratelimit"
	"github.com/Rajchodisetti/oracle-core/internal/errs"
	"github.com/Rajchodisetti/oracle-core/internal/observ"
)

// ConnState is the Bridge's connection lifecycle state.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// AuthFunc obtains/refreshes an access token and its expiry.
type AuthFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)

// Config tunes the Bridge's timeouts, rate limits and cache TTLs.
type Config struct {
	RequestTimeout     time.Duration
	SymbolCacheTTL     time.Duration
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	TradingOpsPerSec   float64
	HistoryOpsPerSec   float64
	AuthRefreshWindow  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout:     30 * time.Second,
		SymbolCacheTTL:     10 * time.Minute,
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		TradingOpsPerSec:   50,
		HistoryOpsPerSec:   5,
		AuthRefreshWindow:  5 * time.Minute,
	}
}

type pendingCall struct {
	ch chan VendorResponse
}

// Bridge is the concrete Client wrapping a VendorSDK. It owns the
// correlation table, the symbol-metadata cache, and the reconnect state
// machine.
type Bridge struct {
	sdk    VendorSDK
	auth   AuthFunc
	cfg    Config
	limits *ratelimit.Buckets

	mu      sync.Mutex
	state   ConnState
	pending map[string]*pendingCall

	cacheMu sync.RWMutex
	cache   map[string]SymbolInfo

	subMu      sync.Mutex
	subscribed map[string]bool

	events chan any

	tokenExpiry time.Time
}

func New(sdk VendorSDK, auth AuthFunc, cfg Config) *Bridge {
	return &Bridge{
		sdk:        sdk,
		auth:       auth,
		cfg:        cfg,
		limits:     ratelimit.New(cfg.TradingOpsPerSec, cfg.HistoryOpsPerSec),
		pending:    map[string]*pendingCall{},
		cache:      map[string]SymbolInfo{},
		subscribed: map[string]bool{},
		events:     make(chan any, 1024),
	}
}

func (b *Bridge) Events() <-chan any { return b.events }

func (b *Bridge) setState(s ConnState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
	observ.Log("bridge_state_change", map[string]any{"state": s.String()})
}

func (b *Bridge) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Connect installs the vendor SDK's event loop before any other SDK
// method is touched, then performs an initial auth.
func (b *Bridge) Connect(ctx context.Context) error {
	b.setState(StateConnecting)
	if err := b.sdk.Connect(b.dispatch); err != nil {
		b.setState(StateDisconnected)
		return errs.Wrap(errs.ConnectionLost, "vendor sdk connect failed", err)
	}
	if err := b.ensureAuth(ctx); err != nil {
		return err
	}
	b.setState(StateConnected)
	return nil
}

func (b *Bridge) Disconnect(ctx context.Context) error {
	b.setState(StateDisconnected)
	b.failAllPending(errs.New(errs.ConnectionLost, "disconnect requested"))
	return b.sdk.Disconnect()
}

func (b *Bridge) ensureAuth(ctx context.Context) error {
	if b.auth == nil {
		return nil
	}
	if time.Until(b.tokenExpiry) > b.cfg.AuthRefreshWindow {
		return nil
	}
	_, expiry, err := b.auth(ctx)
	if err != nil {
		return errs.Wrap(errs.AuthenticationFailed, "token refresh failed", err)
	}
	b.tokenExpiry = expiry
	return nil
}

// dispatch is the VendorSDK's onEvent callback — it may fire from the
// SDK's own thread, never the caller's goroutine.
func (b *Bridge) dispatch(ev any) {
	switch e := ev.(type) {
	case Tick, ExternalEvent:
		select {
		case b.events <- e:
		default:
			observ.Log("bridge_event_dropped", map[string]any{"reason": "channel full"})
		}
	case connLost:
		go b.handleReconnect()
	}
}

type connLost struct{}

func (b *Bridge) handleReconnect() {
	b.setState(StateReconnecting)
	b.failAllPending(errs.New(errs.ConnectionLost, "transport lost"))
	b.invalidateAllSymbols()

	delay := b.cfg.ReconnectBaseDelay
	for {
		if err := b.sdk.Connect(b.dispatch); err == nil {
			b.setState(StateConnected)
			observ.Log("bridge_reconnected", nil)
			b.resubscribeAll()
			return
		}
		time.Sleep(delay)
		delay *= 2
		if delay > b.cfg.ReconnectMaxDelay {
			delay = b.cfg.ReconnectMaxDelay
		}
	}
}

// resubscribeAll re-establishes every previously-subscribed symbol's bar
// stream after a reconnect. The vendor SDK's subscription state does not
// survive a transport drop, so without this every symbol's detector goes
// silent until the process restarts.
func (b *Bridge) resubscribeAll() {
	b.subMu.Lock()
	symbols := make([]string, 0, len(b.subscribed))
	for symbol := range b.subscribed {
		symbols = append(symbols, symbol)
	}
	b.subMu.Unlock()

	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.RequestTimeout)
		if _, err := b.call(ctx, VendorRequest{Op: "subscribe_bars", Payload: symbol}); err != nil {
			observ.Log("resubscribe_failed", map[string]any{"symbol": symbol, "error": err.Error()})
		}
		cancel()
	}
}

func (b *Bridge) failAllPending(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, p := range b.pending {
		p.ch <- VendorResponse{Err: err}
		delete(b.pending, id)
	}
}

// call allocates a correlation id and a one-shot completion channel,
// sends the request through the SDK, and waits for either the callback,
// the per-request timeout, or context cancellation.
func (b *Bridge) call(ctx context.Context, req VendorRequest) (any, error) {
	id := uuid.NewString()
	ch := make(chan VendorResponse, 1)

	b.mu.Lock()
	b.pending[id] = &pendingCall{ch: ch}
	b.mu.Unlock()

	start := time.Now()
	b.sdk.SendRequest(req, func(resp VendorResponse) {
		ch <- resp
	})

	timeout := b.cfg.RequestTimeout
	select {
	case resp := <-ch:
		b.removePending(id)
		observ.RecordDuration("broker_request_latency", time.Since(start), map[string]string{"op": req.Op})
		observ.IncCounter("broker_requests_total", map[string]string{"op": req.Op})
		if resp.Err != nil {
			return nil, resp.Err
		}
		observ.IncCounter("broker_requests_ok_total", map[string]string{"op": req.Op})
		return resp.Payload, nil
	case <-time.After(timeout):
		b.removePending(id)
		return nil, errs.New(errs.RequestTimeout, fmt.Sprintf("broker request %s timed out", req.Op))
	case <-ctx.Done():
		b.removePending(id)
		return nil, errs.Wrap(errs.ConnectionLost, "request cancelled", ctx.Err())
	}
}

func (b *Bridge) removePending(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

func (b *Bridge) GetHistory(ctx context.Context, symbol string, periodSeconds int64, count int) ([]Tick, error) {
	if err := b.limits.AcquireHistory(ctx); err != nil {
		return nil, errs.Wrap(errs.RateLimited, "history rate limit", err)
	}
	resp, err := b.call(ctx, VendorRequest{Op: "get_history", Payload: map[string]any{"symbol": symbol, "period": periodSeconds, "count": count}})
	if err != nil {
		return nil, err
	}
	ticks, _ := resp.([]Tick)
	return ticks, nil
}

func (b *Bridge) SubscribeBars(ctx context.Context, symbol string) error {
	_, err := b.call(ctx, VendorRequest{Op: "subscribe_bars", Payload: symbol})
	if err != nil {
		return err
	}
	b.subMu.Lock()
	b.subscribed[symbol] = true
	b.subMu.Unlock()
	return nil
}

func (b *Bridge) GetPositions(ctx context.Context) ([]RealPosition, error) {
	resp, err := b.call(ctx, VendorRequest{Op: "get_positions"})
	if err != nil {
		return nil, err
	}
	pos, _ := resp.([]RealPosition)
	return pos, nil
}

func (b *Bridge) GetPosition(ctx context.Context, symbol string) (*RealPosition, error) {
	resp, err := b.call(ctx, VendorRequest{Op: "get_position", Payload: symbol})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	pos, _ := resp.(RealPosition)
	return &pos, nil
}

func (b *Bridge) OpenOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if err := b.limits.AcquireTrading(ctx); err != nil {
		return OrderResult{}, errs.Wrap(errs.RateLimited, "trading rate limit", err)
	}
	resp, err := b.call(ctx, VendorRequest{Op: "open_order", Payload: req})
	if err != nil {
		return OrderResult{}, err
	}
	res, _ := resp.(OrderResult)
	return res, nil
}

func (b *Bridge) CloseOrder(ctx context.Context, ticket string) (OrderResult, error) {
	if err := b.limits.AcquireTrading(ctx); err != nil {
		return OrderResult{}, errs.Wrap(errs.RateLimited, "trading rate limit", err)
	}
	resp, err := b.call(ctx, VendorRequest{Op: "close_order", Payload: ticket})
	if err != nil {
		return OrderResult{}, err
	}
	res, _ := resp.(OrderResult)
	return res, nil
}

func (b *Bridge) ModifyOrder(ctx context.Context, ticket string, sl, tp float64) (OrderResult, error) {
	if err := b.limits.AcquireTrading(ctx); err != nil {
		return OrderResult{}, errs.Wrap(errs.RateLimited, "trading rate limit", err)
	}
	resp, err := b.call(ctx, VendorRequest{Op: "modify_order", Payload: map[string]any{"ticket": ticket, "sl": sl, "tp": tp}})
	if err != nil {
		return OrderResult{}, err
	}
	res, _ := resp.(OrderResult)
	return res, nil
}

func (b *Bridge) GetAccount(ctx context.Context) (AccountInfo, error) {
	resp, err := b.call(ctx, VendorRequest{Op: "get_account"})
	if err != nil {
		return AccountInfo{}, err
	}
	acc, _ := resp.(AccountInfo)
	return acc, nil
}

// GetSymbolInfo serves from the TTL cache when fresh, otherwise fetches
// and refreshes. A cached entry's SpreadPoints is as old as the entry
// itself; the executor's spread gate reads it from here, while the
// orchestrator's spread map is refreshed on its own faster cadence.
func (b *Bridge) GetSymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error) {
	b.cacheMu.RLock()
	cached, ok := b.cache[symbol]
	b.cacheMu.RUnlock()
	if ok && time.Since(cached.FetchedAt) < b.cfg.SymbolCacheTTL {
		return cached, nil
	}

	resp, err := b.call(ctx, VendorRequest{Op: "get_symbol_info", Payload: symbol})
	if err != nil {
		return SymbolInfo{}, err
	}
	info, _ := resp.(SymbolInfo)
	info.FetchedAt = time.Now()

	b.cacheMu.Lock()
	b.cache[symbol] = info
	b.cacheMu.Unlock()

	return info, nil
}

// InvalidateCache clears one symbol's cached metadata.
func (b *Bridge) InvalidateCache(symbol string) {
	b.cacheMu.Lock()
	delete(b.cache, symbol)
	b.cacheMu.Unlock()
}

func (b *Bridge) invalidateAllSymbols() {
	b.cacheMu.Lock()
	b.cache = map[string]SymbolInfo{}
	b.cacheMu.Unlock()
}
