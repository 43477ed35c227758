package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/internal/state"
)

func TestStatusBeforeFirstPull(t *testing.T) {
	s := NewStatus(state.NewStore(), NewMessageLog())
	report := s.Current()
	assert.False(t, report.Initialized)
	assert.Empty(t, report.LastPull)
	assert.Empty(t, report.Markets)
	assert.Equal(t, "0.00", report.Balance)
}

func TestStatusReportAssembly(t *testing.T) {
	store := state.NewStore()
	pulled := time.Date(2025, 6, 1, 12, 0, 0, 500e6, time.UTC)
	store.MergeMarkets([]domain.Market{{
		Ticker: "EVT-25-A", Status: "active",
		YesBidCents: 28, YesAskCents: 33, NoBidCents: 67, NoAskCents: 72, LastPriceCents: 30,
	}}, pulled)
	store.MergePositions([]domain.Position{{
		Ticker: "EVT-25-A", Side: domain.SideYes, Quantity: 5,
		AvgEntryCents: 30, RealizedPnLCents: 125, FeesPaidCents: 9,
	}})
	store.ApplyOrder(domain.RestingOrder{
		OrderID: "ord-1", Ticker: "EVT-25-A", Side: domain.SideYes,
		Action: domain.ActionBuy, Status: domain.OrderStatusResting,
		PriceCents: 30, RemainingCount: 2, QueuePosition: 4,
	})
	store.SetBalance(250075)

	messages := NewMessageLog()
	messages.Add("hello")
	report := NewStatus(store, messages).Current()

	assert.True(t, report.Initialized)
	assert.Equal(t, "2025-06-01T12:00:00.500Z", report.LastPull)
	assert.Equal(t, "2500.75", report.Balance)
	assert.Equal(t, "1.40", report.Liquidation)

	require.Len(t, report.Markets, 1)
	assert.Equal(t, 33, report.Markets[0].YesAsk)
	assert.Equal(t, "0.2659", report.Markets[0].EffectiveYesBid)

	require.Len(t, report.Positions, 1)
	pos := report.Positions[0]
	assert.Equal(t, "1.25", pos.RealizedPnl)
	require.NotNil(t, pos.LiquidationValue)
	assert.Equal(t, "1.40", *pos.LiquidationValue)

	require.Len(t, report.RestingOrders, 1)
	assert.Equal(t, "ord-1", report.RestingOrders[0].OrderID)
	assert.Equal(t, 4, report.RestingOrders[0].QueuePosition)

	require.Len(t, report.Messages, 1)
	assert.Equal(t, "hello", report.Messages[0].Text)
}

func TestStatusUnpricedPositionOmitsLiquidation(t *testing.T) {
	store := state.NewStore()
	store.MergeMarkets([]domain.Market{{Ticker: "EVT-25-A", Status: "active"}}, time.Now())
	store.MergePositions([]domain.Position{{Ticker: "EVT-25-A", Side: domain.SideYes, Quantity: 5}})

	report := NewStatus(store, NewMessageLog()).Current()
	require.Len(t, report.Positions, 1)
	assert.Nil(t, report.Positions[0].LiquidationValue)
	assert.Equal(t, "0.00", report.Liquidation)
}
