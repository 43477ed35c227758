package services

import (
	"context"
	"sync"

	"github.com/betbot/gokalshi/kalshi/client"
	"github.com/betbot/gokalshi/kalshi/types"
)

// mockExchange is a scripted Exchange. Set the response fields before use;
// err fields take precedence over data.
type mockExchange struct {
	mu sync.Mutex

	markets    []types.Market
	marketsErr error

	positions    []types.MarketPosition
	positionsErr error

	balance    int64
	balanceErr error

	resting    []client.RestingOrder
	restingErr error

	placed    []types.CreateOrderRequest
	placeResp types.Order
	placeErr  error

	canceled   []string
	cancelResp types.Order
	cancelErr  error
}

func (m *mockExchange) GetMarkets(ctx context.Context, eventTicker string) ([]types.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markets, m.marketsErr
}

func (m *mockExchange) GetPositions(ctx context.Context, eventTicker string) ([]types.MarketPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positions, m.positionsErr
}

func (m *mockExchange) GetBalance(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, m.balanceErr
}

func (m *mockExchange) GetRestingOrders(ctx context.Context) ([]client.RestingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resting, m.restingErr
}

func (m *mockExchange) GetOrder(ctx context.Context, orderID string) (types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ro := range m.resting {
		if ro.Order.OrderID == orderID {
			return ro.Order, nil
		}
	}
	return types.Order{OrderID: orderID}, nil
}

func (m *mockExchange) PlaceOrder(ctx context.Context, order types.CreateOrderRequest) (types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, order)
	return m.placeResp, m.placeErr
}

func (m *mockExchange) CancelOrder(ctx context.Context, orderID string) (types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled = append(m.canceled, orderID)
	return m.cancelResp, m.cancelErr
}

func (m *mockExchange) placedOrders() []types.CreateOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.CreateOrderRequest, len(m.placed))
	copy(out, m.placed)
	return out
}

func (m *mockExchange) set(fn func(*mockExchange)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}
