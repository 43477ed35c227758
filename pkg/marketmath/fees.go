package marketmath

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// feeRate is the exchange taker fee coefficient: fee = 0.07 * P * (1-P) per
// contract, P in dollars. No intermediate rounding; only the final total is
// ceiled to the cent.
var feeRate = decimal.New(7, -2)

var one = decimal.New(1, 0)

// priceDollars converts integer cents to an exact dollar decimal.
func priceDollars(priceCents int) decimal.Decimal {
	return decimal.New(int64(priceCents), -2)
}

// TakerFee returns the unrounded taker fee in dollars for quantity contracts
// at priceCents. Zero only at P=0 or P=1.
func TakerFee(priceCents, quantity int) decimal.Decimal {
	p := priceDollars(priceCents)
	return feeRate.Mul(p).Mul(one.Sub(p)).Mul(decimal.New(int64(quantity), 0))
}

// TakerFeeCents returns the taker fee rounded up to the next cent.
func TakerFeeCents(priceCents, quantity int) int64 {
	return TakerFee(priceCents, quantity).Mul(decimal.New(100, 0)).Ceil().IntPart()
}

// TopOfBook is the one-level book for both sides of a binary market, in cents.
// A zero value means the side has no quote.
type TopOfBook struct {
	YesBidCents int
	YesAskCents int
	NoBidCents  int
	NoAskCents  int
}

func (t TopOfBook) Validate() error {
	if t.YesBidCents <= 0 && t.YesAskCents <= 0 && t.NoBidCents <= 0 && t.NoAskCents <= 0 {
		return fmt.Errorf("top-of-book is empty")
	}
	check := func(name string, v int) error {
		if v == 0 {
			return nil
		}
		if v < 0 || v > 100 {
			return fmt.Errorf("%s out of range: %d", name, v)
		}
		return nil
	}
	if err := check("yesBidCents", t.YesBidCents); err != nil {
		return err
	}
	if err := check("yesAskCents", t.YesAskCents); err != nil {
		return err
	}
	if err := check("noBidCents", t.NoBidCents); err != nil {
		return err
	}
	return check("noAskCents", t.NoAskCents)
}

// EffectivePrices are per-contract dollar prices adjusted for the taker fee:
// selling earns bid minus fee, buying costs ask plus fee.
type EffectivePrices struct {
	YesBid decimal.Decimal
	YesAsk decimal.Decimal
	NoBid  decimal.Decimal
	NoAsk  decimal.Decimal

	FeeYesBid decimal.Decimal
	FeeYesAsk decimal.Decimal
	FeeNoBid  decimal.Decimal
	FeeNoAsk  decimal.Decimal

	EffectiveYesBid decimal.Decimal
	EffectiveYesAsk decimal.Decimal
	EffectiveNoBid  decimal.Decimal
	EffectiveNoAsk  decimal.Decimal
}

// Effective computes fee-adjusted prices for all four book sides.
func Effective(t TopOfBook) (EffectivePrices, error) {
	if err := t.Validate(); err != nil {
		return EffectivePrices{}, err
	}

	e := EffectivePrices{
		YesBid: priceDollars(t.YesBidCents),
		YesAsk: priceDollars(t.YesAskCents),
		NoBid:  priceDollars(t.NoBidCents),
		NoAsk:  priceDollars(t.NoAskCents),

		FeeYesBid: TakerFee(t.YesBidCents, 1),
		FeeYesAsk: TakerFee(t.YesAskCents, 1),
		FeeNoBid:  TakerFee(t.NoBidCents, 1),
		FeeNoAsk:  TakerFee(t.NoAskCents, 1),
	}
	e.EffectiveYesBid = e.YesBid.Sub(e.FeeYesBid)
	e.EffectiveYesAsk = e.YesAsk.Add(e.FeeYesAsk)
	e.EffectiveNoBid = e.NoBid.Sub(e.FeeNoBid)
	e.EffectiveNoAsk = e.NoAsk.Add(e.FeeNoAsk)
	return e, nil
}

// DollarsFromCents formats integer cents as a fixed two-decimal dollar string.
func DollarsFromCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
