package domain

// PositionKey identifies a position: one ticker can hold both sides.
type PositionKey struct {
	Ticker string
	Side   Side
}

// Position is the holdings record for one ticker/side. Quantity is the sum of
// observed signed fills; AvgEntryCents is volume-weighted over open fills only.
type Position struct {
	Ticker           string
	Side             Side
	Quantity         int
	AvgEntryCents    int
	RealizedPnLCents int64
	FeesPaidCents    int64
	ExposureCents    int64
}

// Key returns the store identity for this position.
func (p Position) Key() PositionKey {
	return PositionKey{Ticker: p.Ticker, Side: p.Side}
}

// IsFlat reports whether nothing is held.
func (p Position) IsFlat() bool {
	return p.Quantity == 0
}

// PositionFromNet maps a net signed YES-equivalent quantity onto a sided
// position: positive is long YES, negative is long NO.
func PositionFromNet(ticker string, net int, avgEntryCents int, realizedPnLCents, feesPaidCents, exposureCents int64) Position {
	side := SideYes
	qty := net
	if net < 0 {
		side = SideNo
		qty = -net
	}
	return Position{
		Ticker:           ticker,
		Side:             side,
		Quantity:         qty,
		AvgEntryCents:    avgEntryCents,
		RealizedPnLCents: realizedPnLCents,
		FeesPaidCents:    feesPaidCents,
		ExposureCents:    exposureCents,
	}
}

// NetQuantity returns the signed YES-equivalent quantity.
func (p Position) NetQuantity() int {
	if p.Side == SideNo {
		return -p.Quantity
	}
	return p.Quantity
}
