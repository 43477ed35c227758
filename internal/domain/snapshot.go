package domain

import "time"

// Snapshot is an immutable point-in-time copy of the tracked state. It is the
// only representation the store ever hands out; holders may read it freely
// without further synchronization.
type Snapshot struct {
	// Initialized flips to true after the first successful market poll.
	// Until then readers must not interpret the empty maps as "no positions".
	Initialized   bool
	LastPull      time.Time
	BalanceCents  int64
	Markets       map[string]Market
	Positions     map[PositionKey]Position
	RestingOrders map[string]RestingOrder
}

// Market looks up a market by ticker.
func (s *Snapshot) Market(ticker string) (Market, bool) {
	m, ok := s.Markets[ticker]
	return m, ok
}

// PositionsForTicker returns the positions held on a ticker, either side.
func (s *Snapshot) PositionsForTicker(ticker string) []Position {
	var out []Position
	for _, p := range s.Positions {
		if p.Ticker == ticker {
			out = append(out, p)
		}
	}
	return out
}
