package state

import (
	"sync"
	"time"

	"github.com/betbot/gokalshi/internal/domain"
)

// restingAbsenceLimit is how many consecutive polls an order may be missing
// from the exchange's open-order list before it is dropped from state. One
// absence can be a pagination or timing artifact; two in a row means gone.
const restingAbsenceLimit = 2

type restingEntry struct {
	order        domain.RestingOrder
	missedPolls  int
	terminalSeen bool
}

// Store holds the merged view of markets, positions, resting orders and
// balance. Writers are the polling loops and the order gateway; readers take
// immutable snapshots. All methods are safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	initialized bool
	lastPull    time.Time
	balance     int64
	markets     map[string]domain.Market
	positions   map[domain.PositionKey]domain.Position
	resting     map[string]restingEntry
}

func NewStore() *Store {
	return &Store{
		markets:   make(map[string]domain.Market),
		positions: make(map[domain.PositionKey]domain.Position),
		resting:   make(map[string]restingEntry),
	}
}

// MergeMarkets replaces the stored record for every market in the batch.
// Markets not in the batch keep their previous state. The first successful
// merge marks the store initialized.
func (s *Store) MergeMarkets(markets []domain.Market, pulledAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range markets {
		s.markets[m.Ticker] = m
	}
	s.lastPull = pulledAt
	s.initialized = true
}

// MergePositions replaces the stored position for every key in the batch.
// A flat position clears its key; keys absent from the batch are untouched.
func (s *Store) MergePositions(positions []domain.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range positions {
		if p.IsFlat() {
			delete(s.positions, p.Key())
			continue
		}
		s.positions[p.Key()] = p
	}
}

// MergeRestingOrders reconciles the stored open orders against one poll of
// the exchange. Orders present in the poll are refreshed. Orders missing from
// it accrue an absence; after restingAbsenceLimit consecutive absences they
// are dropped. An order seen in a terminal status is kept for one more poll
// so readers observe the final state, then dropped.
func (s *Store) MergeRestingOrders(polled []domain.RestingOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(polled))
	for _, o := range polled {
		seen[o.OrderID] = true
		prev := s.resting[o.OrderID]
		if o.Status.IsTerminal() {
			if prev.terminalSeen {
				delete(s.resting, o.OrderID)
				continue
			}
			s.resting[o.OrderID] = restingEntry{order: o, terminalSeen: true}
			continue
		}
		s.resting[o.OrderID] = restingEntry{order: o}
	}

	for id, entry := range s.resting {
		if seen[id] {
			continue
		}
		entry.missedPolls++
		if entry.missedPolls >= restingAbsenceLimit || entry.terminalSeen {
			delete(s.resting, id)
			continue
		}
		s.resting[id] = entry
	}
}

// ApplyOrder records an order the gateway just placed or observed, so the
// caller's next snapshot reflects it without waiting for the next poll.
func (s *Store) ApplyOrder(o domain.RestingOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Status.IsTerminal() {
		delete(s.resting, o.OrderID)
		return
	}
	s.resting[o.OrderID] = restingEntry{order: o}
}

// ApplyFill folds a fill straight into the stored position for read-your-
// writes consistency. A flattened position stays visible while it still
// carries realized PnL or fees. The next positions poll overwrites it with
// the exchange's authoritative numbers.
func (s *Store) ApplyFill(p domain.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.IsFlat() && p.RealizedPnLCents == 0 && p.FeesPaidCents == 0 {
		delete(s.positions, p.Key())
		return
	}
	s.positions[p.Key()] = p
}

func (s *Store) RemoveOrder(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resting, orderID)
}

func (s *Store) SetBalance(cents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = cents
}

// Snapshot returns a point-in-time copy of the whole store. The maps are
// copied, so the snapshot never changes under the caller even while the
// polling loops keep writing.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		Initialized:   s.initialized,
		LastPull:      s.lastPull,
		BalanceCents:  s.balance,
		Markets:       make(map[string]domain.Market, len(s.markets)),
		Positions:     make(map[domain.PositionKey]domain.Position, len(s.positions)),
		RestingOrders: make(map[string]domain.RestingOrder, len(s.resting)),
	}
	for k, v := range s.markets {
		snap.Markets[k] = v
	}
	for k, v := range s.positions {
		snap.Positions[k] = v
	}
	for k, v := range s.resting {
		snap.RestingOrders[k] = v.order
	}
	return snap
}
