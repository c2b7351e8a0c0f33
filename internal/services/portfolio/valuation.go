package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/tradedesk/internal/models"
)

// valuation is a set of positions priced at their effective prices.
type valuation struct {
	TotalValue float64
	Assets     []models.AssetValuation
}

// valuePositions prices each position at its quote when one is present, else
// at its stored last price. Catalogue-derived quotes are labelled as such. With no positions the total is the invested amount.
func valuePositions(positions []*models.Position, quotes map[string]models.Quote, investedAmount float64) valuation {
	if len(positions) == 0 {
		return valuation{TotalValue: investedAmount, Assets: []models.AssetValuation{}}
	}

	total := decimal.Zero
	assets := make([]models.AssetValuation, 0, len(positions))
	for _, p := range positions {
		price := p.Price
		source := models.PriceFromStored
		stale := false
		if q, ok := quotes[p.Symbol]; ok && q.Price > 0 {
			price = q.Price
			source = models.PriceFromQuote
			if q.Source == models.QuoteSourceCatalogue {
				source = models.PriceFromCatalogue
			}
			stale = q.Stale
		}

		value := dec(p.Quantity).Mul(dec(price))
		total = total.Add(value)

		assets = append(assets, models.AssetValuation{
			Symbol:      p.Symbol,
			Quantity:    p.Quantity,
			Price:       price,
			Value:       moneyValue(value),
			CostBasis:   p.CostBasis,
			GainLoss:    moneyValue(value.Sub(dec(p.CostBasis))),
			GainLossPct: percentChange(moneyValue(value), p.CostBasis),
			Color:       p.Color,
			PriceSource: source,
			Stale:       stale,
		})
	}

	return valuation{TotalValue: moneyValue(total), Assets: assets}
}

func (v valuation) snapshotAssets() []models.AssetValue {
	out := make([]models.AssetValue, 0, len(v.Assets))
	for _, a := range v.Assets {
		out = append(out, models.AssetValue{
			Symbol:   a.Symbol,
			Quantity: a.Quantity,
			Price:    a.Price,
			Value:    a.Value,
			Color:    a.Color,
		})
	}
	return out
}
