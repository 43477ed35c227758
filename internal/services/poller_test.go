package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/internal/state"
	"github.com/betbot/gokalshi/kalshi/client"
	"github.com/betbot/gokalshi/kalshi/types"
)

func wireMarket(ticker string, yesBid, yesAsk int) types.Market {
	return types.Market{
		Ticker: ticker, EventTicker: "EVT-25", Status: "active",
		YesBid: yesBid, YesAsk: yesAsk, NoBid: 100 - yesAsk, NoAsk: 100 - yesBid,
	}
}

func TestMarketCycleMergesEverything(t *testing.T) {
	ex := &mockExchange{
		markets: []types.Market{wireMarket("EVT-25-A", 28, 33)},
		positions: []types.MarketPosition{
			{Ticker: "EVT-25-A", Position: -3, MarketExposure: 210, RealizedPnl: 50, FeesPaid: 12, TotalTraded: 198},
		},
		balance: 250075,
	}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", time.Second, time.Second)

	require.NoError(t, p.pollMarketCycle(context.Background()))

	snap := store.Snapshot()
	assert.True(t, snap.Initialized)
	assert.Equal(t, 33, snap.Markets["EVT-25-A"].YesAskCents)
	assert.Equal(t, int64(250075), snap.BalanceCents)

	pos, ok := snap.Positions[domain.PositionKey{Ticker: "EVT-25-A", Side: domain.SideNo}]
	require.True(t, ok, "negative net position lands on the no side")
	assert.Equal(t, 3, pos.Quantity)
	assert.Equal(t, 70, pos.AvgEntryCents, "entry price comes from open exposure, not lifetime volume")
	assert.Equal(t, int64(50), pos.RealizedPnLCents)
}

func TestPartiallyClosedPositionKeepsOpenCostBasis(t *testing.T) {
	// Bought 2 @30c, sold 1 @40c: one contract left with 30c of exposure.
	ex := &mockExchange{
		markets: []types.Market{wireMarket("EVT-25-A", 28, 33)},
		positions: []types.MarketPosition{
			{Ticker: "EVT-25-A", Position: 1, MarketExposure: 30, TotalTraded: 100, RealizedPnl: 10},
		},
	}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", time.Second, time.Second)

	require.NoError(t, p.pollMarketCycle(context.Background()))

	pos, ok := store.Snapshot().Positions[domain.PositionKey{Ticker: "EVT-25-A", Side: domain.SideYes}]
	require.True(t, ok)
	assert.Equal(t, 1, pos.Quantity)
	assert.Equal(t, 30, pos.AvgEntryCents)
}

func TestMarketCyclePartialFailureKeepsGoing(t *testing.T) {
	ex := &mockExchange{
		marketsErr: &domain.TransientError{Op: "get markets", Err: errors.New("timeout")},
		balance:    9900,
	}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", time.Second, time.Second)

	err := p.pollMarketCycle(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))

	snap := store.Snapshot()
	assert.False(t, snap.Initialized, "failed market pull must not mark state ready")
	assert.Equal(t, int64(9900), snap.BalanceCents, "balance pull runs even after a market failure")
}

func TestUpdatesPulseAfterMarketMerge(t *testing.T) {
	ex := &mockExchange{markets: []types.Market{wireMarket("EVT-25-A", 28, 33)}}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", time.Second, time.Second)

	require.NoError(t, p.pollMarketCycle(context.Background()))
	select {
	case <-p.Updates().C():
	default:
		t.Fatal("expected an update pulse after a successful merge")
	}
}

func TestOrderCycleFailureDoesNotCountAbsence(t *testing.T) {
	ex := &mockExchange{
		resting: []client.RestingOrder{{
			Order:         types.Order{OrderID: "ord-1", Ticker: "EVT-25-A", Side: "yes", Action: "buy", Status: "resting", YesPrice: 30, RemainingCount: 2},
			QueuePosition: 4,
		}},
	}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", time.Second, time.Second)

	require.NoError(t, p.pollOrderCycle(context.Background()))
	_, ok := store.Snapshot().RestingOrders["ord-1"]
	require.True(t, ok)

	ex.set(func(m *mockExchange) {
		m.resting = nil
		m.restingErr = &domain.TransientError{Op: "get queue positions", Err: errors.New("timeout")}
	})
	require.Error(t, p.pollOrderCycle(context.Background()))
	require.Error(t, p.pollOrderCycle(context.Background()))
	_, ok = store.Snapshot().RestingOrders["ord-1"]
	assert.True(t, ok, "failed polls are not absences")

	ex.set(func(m *mockExchange) { m.restingErr = nil })
	require.NoError(t, p.pollOrderCycle(context.Background()))
	require.NoError(t, p.pollOrderCycle(context.Background()))
	_, ok = store.Snapshot().RestingOrders["ord-1"]
	assert.False(t, ok, "two clean empty polls drop the order")
}

func TestOrderCycleFiltersForeignEvents(t *testing.T) {
	ex := &mockExchange{
		resting: []client.RestingOrder{
			{Order: types.Order{OrderID: "ord-ours", Ticker: "EVT-25-A", Side: "yes", Status: "resting"}},
			{Order: types.Order{OrderID: "ord-other", Ticker: "OTHER-9-B", Side: "no", Status: "resting"}},
		},
	}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", time.Second, time.Second)

	require.NoError(t, p.pollOrderCycle(context.Background()))
	snap := store.Snapshot()
	_, ours := snap.RestingOrders["ord-ours"]
	_, other := snap.RestingOrders["ord-other"]
	assert.True(t, ours)
	assert.False(t, other)
}

func TestFilterTickers(t *testing.T) {
	ex := &mockExchange{
		markets: []types.Market{wireMarket("EVT-25-A", 28, 33), wireMarket("EVT-25-B", 40, 45)},
		positions: []types.MarketPosition{
			{Ticker: "EVT-25-A", Position: 1},
			{Ticker: "EVT-25-B", Position: 2},
		},
	}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", time.Second, time.Second)
	p.FilterTickers([]string{"EVT-25-A"})

	require.NoError(t, p.pollMarketCycle(context.Background()))
	snap := store.Snapshot()
	assert.Contains(t, snap.Markets, "EVT-25-A")
	assert.NotContains(t, snap.Markets, "EVT-25-B")
	assert.Len(t, snap.Positions, 1)
}

func TestStartStopsOnCancel(t *testing.T) {
	ex := &mockExchange{markets: []types.Market{wireMarket("EVT-25-A", 28, 33)}}
	store := state.NewStore()
	p := NewPoller(ex, store, "EVT-25", 10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	time.Sleep(35 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	assert.True(t, store.Snapshot().Initialized)
}

func TestBelongsToEvent(t *testing.T) {
	assert.True(t, belongsToEvent("EVT-25-A", "EVT-25"))
	assert.True(t, belongsToEvent("EVT-25", "EVT-25"))
	assert.False(t, belongsToEvent("EVT-256-A", "EVT-25"))
	assert.False(t, belongsToEvent("EVT-2", "EVT-25"))
}
