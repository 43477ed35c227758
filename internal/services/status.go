package services

import (
	"sort"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/internal/state"
	"github.com/betbot/gokalshi/pkg/marketmath"
)

// MarketStatus is one market in the status report. Prices are cents;
// effective prices are fee-adjusted dollar strings, empty when the book has
// no quotes.
type MarketStatus struct {
	Ticker          string `json:"ticker"`
	Title           string `json:"title,omitempty"`
	Status          string `json:"status"`
	YesBid          int    `json:"yes_bid"`
	YesAsk          int    `json:"yes_ask"`
	NoBid           int    `json:"no_bid"`
	NoAsk           int    `json:"no_ask"`
	LastPrice       int    `json:"last_price"`
	EffectiveYesBid string `json:"effective_yes_bid,omitempty"`
	EffectiveYesAsk string `json:"effective_yes_ask,omitempty"`
	EffectiveNoBid  string `json:"effective_no_bid,omitempty"`
	EffectiveNoAsk  string `json:"effective_no_ask,omitempty"`

	NetQuantity int     `json:"net_quantity"`
	NetExposure *string `json:"net_exposure,omitempty"`
}

// PositionStatus is one held position. Liquidation and exit fee are pointers:
// absent means the held side has no bid to value against.
type PositionStatus struct {
	Ticker           string  `json:"ticker"`
	Side             string  `json:"side"`
	Quantity         int     `json:"quantity"`
	AvgEntryCents    int     `json:"avg_entry_cents"`
	RealizedPnl      string  `json:"realized_pnl"`
	FeesPaid         string  `json:"fees_paid"`
	LiquidationValue *string `json:"liquidation_value,omitempty"`
	ExitFee          *string `json:"exit_fee,omitempty"`
}

type RestingOrderStatus struct {
	OrderID        string `json:"order_id"`
	Ticker         string `json:"ticker"`
	Side           string `json:"side"`
	Action         string `json:"action"`
	Status         string `json:"status"`
	PriceCents     int    `json:"price_cents"`
	RemainingCount int    `json:"remaining_count"`
	QueuePosition  int    `json:"queue_position"`
}

// StatusReport is the full externally visible state. Consumers must check
// Initialized before treating empty collections as meaningful.
type StatusReport struct {
	Initialized   bool                 `json:"initialized"`
	LastPull      string               `json:"last_pull,omitempty"`
	Balance       string               `json:"balance"`
	Liquidation   string               `json:"liquidation_value"`
	Markets       []MarketStatus       `json:"markets"`
	Positions     []PositionStatus     `json:"positions"`
	RestingOrders []RestingOrderStatus `json:"resting_orders"`
	Messages      []Message            `json:"messages"`
}

// Status builds reports from the store and the message feed.
type Status struct {
	store    *state.Store
	messages *MessageLog
}

func NewStatus(store *state.Store, messages *MessageLog) *Status {
	return &Status{store: store, messages: messages}
}

// Current assembles a report from one snapshot, so every number in it refers
// to the same instant.
func (s *Status) Current() StatusReport {
	snap := s.store.Snapshot()
	metrics := ComputeMetrics(snap)

	report := StatusReport{
		Initialized:   snap.Initialized,
		Balance:       marketmath.DollarsFromCents(snap.BalanceCents),
		Liquidation:   marketmath.DollarsFromCents(TotalLiquidationCents(metrics)),
		Markets:       make([]MarketStatus, 0, len(metrics)),
		Positions:     make([]PositionStatus, 0, len(snap.Positions)),
		RestingOrders: make([]RestingOrderStatus, 0, len(snap.RestingOrders)),
		Messages:      s.messages.Recent(0),
	}
	if !snap.LastPull.IsZero() {
		report.LastPull = snap.LastPull.UTC().Format(resultTimeFormat)
	}

	for _, mm := range metrics {
		ms := MarketStatus{
			Ticker:      mm.Market.Ticker,
			Title:       mm.Market.Title,
			Status:      mm.Market.Status,
			YesBid:      mm.Market.YesBidCents,
			YesAsk:      mm.Market.YesAskCents,
			NoBid:       mm.Market.NoBidCents,
			NoAsk:       mm.Market.NoAskCents,
			LastPrice:   mm.Market.LastPriceCents,
			NetQuantity: mm.NetQuantity,
		}
		if mm.NetExposureCents != nil {
			exposure := marketmath.DollarsFromCents(*mm.NetExposureCents)
			ms.NetExposure = &exposure
		}
		if mm.Effective != nil {
			ms.EffectiveYesBid = mm.Effective.EffectiveYesBid.StringFixed(4)
			ms.EffectiveYesAsk = mm.Effective.EffectiveYesAsk.StringFixed(4)
			ms.EffectiveNoBid = mm.Effective.EffectiveNoBid.StringFixed(4)
			ms.EffectiveNoAsk = mm.Effective.EffectiveNoAsk.StringFixed(4)
		}
		report.Markets = append(report.Markets, ms)

		for _, pm := range mm.Positions {
			ps := PositionStatus{
				Ticker:        pm.Position.Ticker,
				Side:          string(pm.Position.Side),
				Quantity:      pm.Position.Quantity,
				AvgEntryCents: pm.Position.AvgEntryCents,
				RealizedPnl:   marketmath.DollarsFromCents(pm.Position.RealizedPnLCents),
				FeesPaid:      marketmath.DollarsFromCents(pm.Position.FeesPaidCents),
			}
			if pm.LiquidationCents != nil {
				liq := marketmath.DollarsFromCents(*pm.LiquidationCents)
				fee := marketmath.DollarsFromCents(*pm.ExitFeeCents)
				ps.LiquidationValue = &liq
				ps.ExitFee = &fee
			}
			report.Positions = append(report.Positions, ps)
		}
	}

	for _, o := range sortedOrders(snap.RestingOrders) {
		report.RestingOrders = append(report.RestingOrders, RestingOrderStatus{
			OrderID:        o.OrderID,
			Ticker:         o.Ticker,
			Side:           string(o.Side),
			Action:         string(o.Action),
			Status:         string(o.Status),
			PriceCents:     o.PriceCents,
			RemainingCount: o.RemainingCount,
			QueuePosition:  o.QueuePosition,
		})
	}
	return report
}

func sortedOrders(orders map[string]domain.RestingOrder) []domain.RestingOrder {
	out := make([]domain.RestingOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}
