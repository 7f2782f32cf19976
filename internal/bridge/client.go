package bridge

import "context"

// Client is the capability contract every broker variant — real or mock
// — satisfies. Everything above this interface sees a plain async
// request/response API regardless of what the underlying SDK looks like.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	GetHistory(ctx context.Context, symbol string, periodSeconds int64, count int) ([]Tick, error)
	SubscribeBars(ctx context.Context, symbol string) error

	GetPositions(ctx context.Context) ([]RealPosition, error)
	GetPosition(ctx context.Context, symbol string) (*RealPosition, error)

	OpenOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	CloseOrder(ctx context.Context, ticket string) (OrderResult, error)
	ModifyOrder(ctx context.Context, ticket string, sl, tp float64) (OrderResult, error)

	GetAccount(ctx context.Context) (AccountInfo, error)
	GetSymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)

	// Events streams ticks and external position changes. The Bridge never
	// closes this channel, Disconnect included.
	Events() <-chan any
}

// VendorSDK is the raw, callback-based driver a concrete Client wraps.
// Its Connect call installs the SDK's own event loop; that loop then
// drives onEvent for ticks/fills and invokes request callbacks
// asynchronously from whatever thread it owns. The Bridge never touches
// a VendorSDK type before calling Connect — ordering the Orchestrator's
// bootstrap enforces.
type VendorSDK interface {
	Connect(onEvent func(any)) error
	Disconnect() error
	SendRequest(req VendorRequest, callback func(VendorResponse))
}

// VendorRequest is an opaque outbound call; Op distinguishes the RPC,
// Payload carries the op-specific arguments.
type VendorRequest struct {
	Op      string
	Payload any
}

// VendorResponse is the opaque reply to a VendorRequest, correlated back
// to the caller by the Bridge, not by the SDK.
type VendorResponse struct {
	Payload any
	Err     error
}
