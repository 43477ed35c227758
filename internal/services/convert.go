package services

import (
	"time"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/kalshi/client"
	"github.com/betbot/gokalshi/kalshi/types"
)

func marketFromWire(m types.Market, at time.Time) domain.Market {
	return domain.Market{
		Ticker:         m.Ticker,
		EventTicker:    m.EventTicker,
		Title:          m.Title,
		Status:         m.Status,
		YesBidCents:    m.YesBid,
		YesAskCents:    m.YesAsk,
		NoBidCents:     m.NoBid,
		NoAskCents:     m.NoAsk,
		LastPriceCents: m.LastPrice,
		UpdatedAt:      at,
	}
}

// positionFromWire maps the exchange's net signed yes count onto a sided
// position. Average entry is the open cost basis (market exposure) over
// contracts, so closed volume never skews it; zero for a flat position.
func positionFromWire(p types.MarketPosition) domain.Position {
	abs := p.Position
	if abs < 0 {
		abs = -abs
	}
	avgEntry := 0
	if abs > 0 {
		avgEntry = p.MarketExposure / abs
	}
	return domain.PositionFromNet(
		p.Ticker,
		p.Position,
		avgEntry,
		int64(p.RealizedPnl),
		int64(p.FeesPaid),
		int64(p.MarketExposure),
	)
}

// restingOrderFromWire carries the side-appropriate price; an order always
// quotes in its own side's cents.
func restingOrderFromWire(ro client.RestingOrder) domain.RestingOrder {
	o := ro.Order
	side := domain.Side(o.Side)
	price := o.YesPrice
	if side == domain.SideNo {
		price = o.NoPrice
	}
	return domain.RestingOrder{
		OrderID:        o.OrderID,
		Ticker:         o.Ticker,
		Side:           side,
		Action:         domain.Action(o.Action),
		RemainingCount: o.RemainingCount,
		PriceCents:     price,
		Status:         domain.OrderStatus(o.Status),
		QueuePosition:  ro.QueuePosition,
		CreatedAt:      o.CreatedTime,
		UpdatedAt:      o.LastUpdateTime,
	}
}

func restingOrderFromOrder(o types.Order) domain.RestingOrder {
	return restingOrderFromWire(client.RestingOrder{Order: o})
}
