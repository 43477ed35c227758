package services

import (
	"context"

	"github.com/betbot/gokalshi/kalshi/client"
	"github.com/betbot/gokalshi/kalshi/types"
)

// Exchange is the trade API surface the services need. *client.Client
// satisfies it; tests substitute a scripted fake.
type Exchange interface {
	GetMarkets(ctx context.Context, eventTicker string) ([]types.Market, error)
	GetPositions(ctx context.Context, eventTicker string) ([]types.MarketPosition, error)
	GetBalance(ctx context.Context) (int64, error)
	GetRestingOrders(ctx context.Context) ([]client.RestingOrder, error)
	GetOrder(ctx context.Context, orderID string) (types.Order, error)
	PlaceOrder(ctx context.Context, order types.CreateOrderRequest) (types.Order, error)
	CancelOrder(ctx context.Context, orderID string) (types.Order, error)
}

// ActivityRecorder receives a durable record of notable events. Implementations
// must not block the caller on failure; a nil recorder is allowed everywhere.
type ActivityRecorder interface {
	Record(ctx context.Context, kind, text, ticker, orderID string)
}
