package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/internal/state"
	"github.com/betbot/gokalshi/kalshi/types"
	"github.com/betbot/gokalshi/pkg/logger"
	"github.com/betbot/gokalshi/pkg/marketmath"
)

// resultTimeFormat is UTC with millisecond precision.
const resultTimeFormat = "2006-01-02T15:04:05.000Z"

// OrderResult is what the gateway reports back after the exchange accepted
// an order. Dollar amounts are fixed two-decimal strings.
type OrderResult struct {
	OrderID     string `json:"order_id"`
	Ticker      string `json:"ticker"`
	Side        string `json:"side"`
	Action      string `json:"action"`
	Status      string `json:"status"`
	FillCount   int    `json:"fill_count"`
	FillCost    string `json:"fill_cost"`
	Fees        string `json:"fees"`
	PriceCents  int    `json:"price_cents"`
	SubmittedAt string `json:"submitted_at"`
}

// Gateway validates and submits orders. Prices come from the cached book,
// never a fresh market read: the caller trades against the state it can
// already see. Placements are sent exactly once.
type Gateway struct {
	exchange Exchange
	store    *state.Store
	messages *MessageLog
	activity ActivityRecorder
	now      func() time.Time
}

func NewGateway(exchange Exchange, store *state.Store, messages *MessageLog, activity ActivityRecorder) *Gateway {
	return &Gateway{
		exchange: exchange,
		store:    store,
		messages: messages,
		activity: activity,
		now:      time.Now,
	}
}

// Buy submits a buy priced at the cached ask of the requested side.
func (g *Gateway) Buy(ctx context.Context, ticker string, side domain.Side, quantity int) (OrderResult, error) {
	return g.place(ctx, ticker, side, domain.ActionBuy, quantity)
}

// Sell submits a sell priced at the cached bid of the requested side.
func (g *Gateway) Sell(ctx context.Context, ticker string, side domain.Side, quantity int) (OrderResult, error) {
	return g.place(ctx, ticker, side, domain.ActionSell, quantity)
}

func (g *Gateway) place(ctx context.Context, ticker string, side domain.Side, action domain.Action, quantity int) (OrderResult, error) {
	if quantity <= 0 {
		return OrderResult{}, domain.NewValidationError("quantity must be positive, got %d", quantity)
	}
	if !side.IsValid() {
		return OrderResult{}, domain.NewValidationError("unknown side %q", side)
	}

	snap := g.store.Snapshot()
	if !snap.Initialized {
		return OrderResult{}, domain.NewValidationError("market state not initialized yet")
	}
	market, ok := snap.Market(ticker)
	if !ok {
		return OrderResult{}, domain.NewValidationError("unknown ticker %q", ticker)
	}
	if !market.IsActive() {
		return OrderResult{}, domain.NewValidationError("market %s is not active (status %s)", ticker, market.Status)
	}

	var price int
	if action == domain.ActionBuy {
		price = market.AskCents(side)
		if price <= 0 {
			return OrderResult{}, domain.NewValidationError("no %s ask available on %s", side, ticker)
		}
	} else {
		price = market.BidCents(side)
		if price <= 0 {
			return OrderResult{}, domain.NewValidationError("no %s bid available on %s", side, ticker)
		}
	}

	req := types.CreateOrderRequest{
		Ticker:        ticker,
		Action:        string(action),
		Side:          string(side),
		Type:          "limit",
		Count:         quantity,
		ClientOrderID: uuid.NewString(),
	}
	if side == domain.SideYes {
		req.YesPrice = price
	} else {
		req.NoPrice = price
	}

	order, err := g.exchange.PlaceOrder(ctx, req)
	if err != nil {
		logger.Warnf("order %s %d %s %s rejected: %v", action, quantity, side, ticker, err)
		return OrderResult{}, err
	}

	g.store.ApplyOrder(restingOrderFromOrder(order))
	if order.TakerFillCount > 0 {
		g.applyFill(snap, ticker, side, action, order)
	}

	result := OrderResult{
		OrderID:     order.OrderID,
		Ticker:      ticker,
		Side:        string(side),
		Action:      string(action),
		Status:      order.Status,
		FillCount:   order.TakerFillCount,
		FillCost:    marketmath.DollarsFromCents(int64(order.TakerFillCost)),
		Fees:        marketmath.DollarsFromCents(int64(order.TakerFees)),
		PriceCents:  price,
		SubmittedAt: g.now().UTC().Format(resultTimeFormat),
	}

	text := fmt.Sprintf("%s %d %s %s @ %d¢, status %s, cost $%s, fees $%s",
		action, quantity, side, ticker, price, order.Status, result.FillCost, result.Fees)
	g.messages.AddEvent("order", text)
	if g.activity != nil {
		g.activity.Record(ctx, "order", text, ticker, order.OrderID)
	}
	logger.Infof("order accepted: %s %d %s %s @ %d¢ (%s)", action, quantity, side, ticker, price, order.OrderID)
	return result, nil
}

// applyFill folds an immediate taker fill into the cached position so the
// caller's next snapshot reflects it. The next positions poll replaces the
// estimate with the exchange's authoritative record.
func (g *Gateway) applyFill(snap domain.Snapshot, ticker string, side domain.Side, action domain.Action, order types.Order) {
	key := domain.PositionKey{Ticker: ticker, Side: side}
	pos, ok := snap.Positions[key]
	if !ok {
		pos = domain.Position{Ticker: ticker, Side: side}
	}

	fill := order.TakerFillCount
	fillCost := int64(order.TakerFillCost)
	pos.FeesPaidCents += int64(order.TakerFees)

	if action == domain.ActionBuy {
		newQty := pos.Quantity + fill
		pos.AvgEntryCents = int((int64(pos.Quantity)*int64(pos.AvgEntryCents) + fillCost) / int64(newQty))
		pos.Quantity = newQty
	} else {
		closed := fill
		if closed > pos.Quantity {
			closed = pos.Quantity
		}
		if closed > 0 {
			// Apportion proceeds to the contracts actually closed.
			proceeds := fillCost * int64(closed) / int64(fill)
			pos.RealizedPnLCents += proceeds - int64(closed)*int64(pos.AvgEntryCents)
		}
		pos.Quantity -= closed
	}
	g.store.ApplyFill(pos)
}

// Cancel cancels a resting order by exchange id and removes it from state as
// soon as the exchange confirms.
func (g *Gateway) Cancel(ctx context.Context, orderID string) (OrderResult, error) {
	if orderID == "" {
		return OrderResult{}, domain.NewValidationError("order id is required")
	}
	order, err := g.exchange.CancelOrder(ctx, orderID)
	if err != nil {
		logger.Warnf("cancel %s failed: %v", orderID, err)
		return OrderResult{}, err
	}
	g.store.RemoveOrder(orderID)

	result := OrderResult{
		OrderID:     order.OrderID,
		Ticker:      order.Ticker,
		Side:        order.Side,
		Action:      order.Action,
		Status:      order.Status,
		SubmittedAt: g.now().UTC().Format(resultTimeFormat),
	}
	text := fmt.Sprintf("canceled order %s on %s", orderID, order.Ticker)
	g.messages.AddEvent("cancel", text)
	if g.activity != nil {
		g.activity.Record(ctx, "cancel", text, order.Ticker, orderID)
	}
	return result, nil
}
