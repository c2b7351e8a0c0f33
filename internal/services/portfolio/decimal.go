package portfolio

import "github.com/shopspring/decimal"

// Persisted precision: money 2dp, prices 4dp, quantities 8dp.
const (
	moneyPlaces    = 2
	pricePlaces    = 4
	quantityPlaces = 8
)

var hundred = decimal.NewFromInt(100)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func moneyValue(d decimal.Decimal) float64 {
	return d.Round(moneyPlaces).InexactFloat64()
}

func priceValue(d decimal.Decimal) float64 {
	return d.Round(pricePlaces).InexactFloat64()
}

func quantityValue(d decimal.Decimal) float64 {
	return d.Round(quantityPlaces).InexactFloat64()
}

// percentChange returns ((current - reference) / reference) * 100 rounded
// half away from zero to 2 places, or 0 when reference is zero.
func percentChange(current, reference float64) float64 {
	ref := dec(reference)
	if ref.IsZero() {
		return 0
	}
	return dec(current).Sub(ref).Mul(hundred).Div(ref).Round(2).InexactFloat64()
}
