package executor

import (
	"context"

	"github.com/Rajchodisetti/oracle-core/internal/bridge"
)

// fakeClient is a hand-rolled bridge.Client stub: no network, no rate
// limiting, just the canned responses each test configures.
type fakeClient struct {
	position    *bridge.RealPosition
	account     bridge.AccountInfo
	symbolInfo  bridge.SymbolInfo
	openResult  bridge.OrderResult
	openErr     error
	closeResult bridge.OrderResult
	closeErr    error
	getPosErr   error

	openCalls  []bridge.OrderRequest
	closeCalls []string
}

func (f *fakeClient) Connect(ctx context.Context) error    { return nil }
func (f *fakeClient) Disconnect(ctx context.Context) error { return nil }

func (f *fakeClient) GetHistory(ctx context.Context, symbol string, periodSeconds int64, count int) ([]bridge.Tick, error) {
	return nil, nil
}
func (f *fakeClient) SubscribeBars(ctx context.Context, symbol string) error { return nil }

func (f *fakeClient) GetPositions(ctx context.Context) ([]bridge.RealPosition, error) {
	if f.position == nil {
		return nil, nil
	}
	return []bridge.RealPosition{*f.position}, nil
}

func (f *fakeClient) GetPosition(ctx context.Context, symbol string) (*bridge.RealPosition, error) {
	if f.getPosErr != nil {
		return nil, f.getPosErr
	}
	return f.position, nil
}

func (f *fakeClient) OpenOrder(ctx context.Context, req bridge.OrderRequest) (bridge.OrderResult, error) {
	f.openCalls = append(f.openCalls, req)
	return f.openResult, f.openErr
}

func (f *fakeClient) CloseOrder(ctx context.Context, ticket string) (bridge.OrderResult, error) {
	f.closeCalls = append(f.closeCalls, ticket)
	return f.closeResult, f.closeErr
}

func (f *fakeClient) ModifyOrder(ctx context.Context, ticket string, sl, tp float64) (bridge.OrderResult, error) {
	return bridge.OrderResult{Success: true}, nil
}

func (f *fakeClient) GetAccount(ctx context.Context) (bridge.AccountInfo, error) {
	return f.account, nil
}

func (f *fakeClient) GetSymbolInfo(ctx context.Context, symbol string) (bridge.SymbolInfo, error) {
	return f.symbolInfo, nil
}

func (f *fakeClient) Events() <-chan any {
	ch := make(chan any)
	close(ch)
	return ch
}
