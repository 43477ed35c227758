package domain

import "time"

// Side of a binary market contract.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// IsValid reports whether the side is one of the two known values.
func (s Side) IsValid() bool {
	return s == SideYes || s == SideNo
}

// Opposite returns the other side of the market.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Action is the order direction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Market is the per-ticker view the market poll maintains. All prices are
// integer cents (0..100). A zero price means the side has no quote.
type Market struct {
	Ticker         string
	EventTicker    string
	Title          string
	Status         string
	YesBidCents    int
	YesAskCents    int
	NoBidCents     int
	NoAskCents     int
	LastPriceCents int
	UpdatedAt      time.Time
}

// IsActive reports whether the market is open for trading.
func (m Market) IsActive() bool {
	return m.Status == "active"
}

// BidCents returns the best bid for a side, 0 when missing.
func (m Market) BidCents(side Side) int {
	if side == SideYes {
		return m.YesBidCents
	}
	return m.NoBidCents
}

// AskCents returns the best ask for a side, 0 when missing.
func (m Market) AskCents(side Side) int {
	if side == SideYes {
		return m.YesAskCents
	}
	return m.NoAskCents
}
