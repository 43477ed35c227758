package services

import (
	"sort"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/pkg/marketmath"
)

// PositionMetrics is the derived view of one held position against the
// current book.
type PositionMetrics struct {
	Position domain.Position

	// LiquidationCents is quantity times the best bid on the held side.
	// Nil when that side has no bid: an unpriced position has no
	// liquidation value, which is not the same as a value of zero.
	LiquidationCents *int64

	// ExitFeeCents is the taker fee a market exit at the bid would incur.
	// Nil whenever LiquidationCents is.
	ExitFeeCents *int64
}

// MarketMetrics bundles a market's fee-adjusted prices with the metrics of
// every position held on it.
type MarketMetrics struct {
	Market    domain.Market
	Effective *marketmath.EffectivePrices
	Positions []PositionMetrics

	// NetQuantity is the signed yes-equivalent contract count across both
	// sides. NetExposureCents values it at the last trade price; nil when
	// the market has no last price.
	NetQuantity      int
	NetExposureCents *int64
}

// PositionValue derives the liquidation metrics of a position from its
// market's book. ok is false when the market has no bid on the held side.
func PositionValue(m domain.Market, p domain.Position) (liquidationCents, exitFeeCents int64, ok bool) {
	bid := m.BidCents(p.Side)
	if bid <= 0 {
		return 0, 0, false
	}
	liquidationCents = int64(bid) * int64(p.Quantity)
	exitFeeCents = marketmath.TakerFeeCents(bid, p.Quantity)
	return liquidationCents, exitFeeCents, true
}

// ComputeMetrics derives per-market metrics for every market in the
// snapshot, sorted by ticker. It is pure: the snapshot is not modified and
// two calls on the same snapshot return the same result.
func ComputeMetrics(snap domain.Snapshot) []MarketMetrics {
	out := make([]MarketMetrics, 0, len(snap.Markets))
	for _, m := range snap.Markets {
		mm := MarketMetrics{Market: m}
		if eff, err := marketmath.Effective(marketmath.TopOfBook{
			YesBidCents: m.YesBidCents,
			YesAskCents: m.YesAskCents,
			NoBidCents:  m.NoBidCents,
			NoAskCents:  m.NoAskCents,
		}); err == nil {
			mm.Effective = &eff
		}
		for _, p := range snap.PositionsForTicker(m.Ticker) {
			pm := PositionMetrics{Position: p}
			if liq, fee, ok := PositionValue(m, p); ok {
				pm.LiquidationCents = &liq
				pm.ExitFeeCents = &fee
			}
			mm.Positions = append(mm.Positions, pm)
			mm.NetQuantity += p.NetQuantity()
		}
		if m.LastPriceCents > 0 {
			exposure := int64(mm.NetQuantity) * int64(m.LastPriceCents)
			mm.NetExposureCents = &exposure
		}
		sort.Slice(mm.Positions, func(i, j int) bool {
			return mm.Positions[i].Position.Side < mm.Positions[j].Position.Side
		})
		out = append(out, mm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market.Ticker < out[j].Market.Ticker })
	return out
}

// TotalLiquidationCents sums liquidation value across all priced positions.
// Unpriced positions are excluded, not counted as zero.
func TotalLiquidationCents(metrics []MarketMetrics) int64 {
	var total int64
	for _, mm := range metrics {
		for _, pm := range mm.Positions {
			if pm.LiquidationCents != nil {
				total += *pm.LiquidationCents
			}
		}
	}
	return total
}
