package services

import (
	"context"
	"time"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/internal/state"
	"github.com/betbot/gokalshi/pkg/logger"
	"github.com/betbot/gokalshi/pkg/sigchan"
)

// Poller runs the two polling loops: the fast market loop (markets,
// positions, balance) and the slower resting-order loop. Each loop is a
// single goroutine, so cycles of the same loop never overlap; a slow cycle
// simply delays the next tick.
type Poller struct {
	exchange       Exchange
	store          *state.Store
	eventTicker    string
	marketInterval time.Duration
	orderInterval  time.Duration
	updates        *sigchan.Chan
	tickers        map[string]bool
}

func NewPoller(exchange Exchange, store *state.Store, eventTicker string, marketInterval, orderInterval time.Duration) *Poller {
	return &Poller{
		exchange:       exchange,
		store:          store,
		eventTicker:    eventTicker,
		marketInterval: marketInterval,
		orderInterval:  orderInterval,
		updates:        sigchan.New(1),
	}
}

// FilterTickers restricts tracking to the given markets of the event. Call
// before Start; an empty list tracks everything.
func (p *Poller) FilterTickers(tickers []string) {
	if len(tickers) == 0 {
		p.tickers = nil
		return
	}
	p.tickers = make(map[string]bool, len(tickers))
	for _, t := range tickers {
		p.tickers[t] = true
	}
}

func (p *Poller) tracked(ticker string) bool {
	return p.tickers == nil || p.tickers[ticker]
}

// Updates pulses after every successful market cycle. Consumers that fall
// behind coalesce pulses instead of queueing them.
func (p *Poller) Updates() *sigchan.Chan {
	return p.updates
}

// Start launches both loops. They stop when ctx is canceled.
func (p *Poller) Start(ctx context.Context) {
	go p.runLoop(ctx, "market", p.marketInterval, p.pollMarketCycle)
	go p.runLoop(ctx, "orders", p.orderInterval, p.pollOrderCycle)
}

func (p *Poller) runLoop(ctx context.Context, name string, interval time.Duration, cycle func(context.Context) error) {
	logger.Infof("%s loop started, interval %s", name, interval)
	if err := cycle(ctx); err != nil {
		logger.Warnf("%s cycle failed: %v", name, err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("%s loop stopped", name)
			return
		case <-ticker.C:
			if err := cycle(ctx); err != nil {
				logger.Warnf("%s cycle failed: %v", name, err)
			}
		}
	}
}

// pollMarketCycle pulls markets, positions and balance. The three pulls fail
// independently; whatever succeeded is merged. State already in the store is
// never discarded on a failed pull.
func (p *Poller) pollMarketCycle(ctx context.Context) error {
	var firstErr error

	wireMarkets, err := p.exchange.GetMarkets(ctx, p.eventTicker)
	if err != nil {
		firstErr = err
	} else {
		now := time.Now()
		markets := make([]domain.Market, 0, len(wireMarkets))
		for _, m := range wireMarkets {
			if !p.tracked(m.Ticker) {
				continue
			}
			markets = append(markets, marketFromWire(m, now))
		}
		p.store.MergeMarkets(markets, now)
		p.updates.Emit()
	}

	wirePositions, err := p.exchange.GetPositions(ctx, p.eventTicker)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		positions := make([]domain.Position, 0, len(wirePositions))
		for _, wp := range wirePositions {
			if !p.tracked(wp.Ticker) {
				continue
			}
			positions = append(positions, positionFromWire(wp))
		}
		p.store.MergePositions(positions)
	}

	balance, err := p.exchange.GetBalance(ctx)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		p.store.SetBalance(balance)
	}

	return firstErr
}

// pollOrderCycle reconciles resting orders. A failed pull is not an empty
// pull: the merge is skipped entirely so absences are only counted against
// data the exchange actually returned.
func (p *Poller) pollOrderCycle(ctx context.Context) error {
	polled, err := p.exchange.GetRestingOrders(ctx)
	if err != nil {
		return err
	}
	orders := make([]domain.RestingOrder, 0, len(polled))
	for _, ro := range polled {
		if ro.Order.Ticker != "" && p.eventTicker != "" && !belongsToEvent(ro.Order.Ticker, p.eventTicker) {
			continue
		}
		orders = append(orders, restingOrderFromWire(ro))
	}
	p.store.MergeRestingOrders(orders)
	return nil
}

// belongsToEvent matches a market ticker against the tracked event. Market
// tickers extend their event ticker, e.g. event EVT-25 owns EVT-25-T1.
func belongsToEvent(marketTicker, eventTicker string) bool {
	if marketTicker == eventTicker {
		return true
	}
	if len(marketTicker) <= len(eventTicker) {
		return false
	}
	return marketTicker[:len(eventTicker)] == eventTicker && marketTicker[len(eventTicker)] == '-'
}
