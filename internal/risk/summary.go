package risk

import (
	"fmt"
	"math"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/quotes"
)

// Summarize values an account at current quote prices. Position values
// are rounded to whole cents per position; short positions contribute
// negative value. Buying power is cash plus position value when
// shorting is allowed, otherwise just non-negative cash.
func Summarize(store models.PaperTradingStore, provider quotes.Provider) (models.AccountSummary, error) {
	var positionsValue int64
	for _, pos := range store.Positions {
		quote, err := provider.GetQuote(pos.Symbol)
		if err != nil {
			return models.AccountSummary{}, fmt.Errorf("could not quote position %s: %w", pos.Symbol, err)
		}
		positionsValue += int64(math.Round(pos.Quantity * float64(quote.PriceCents)))
	}

	equity := store.CashCents + positionsValue

	cash := store.CashCents
	if cash < 0 {
		cash = 0
	}
	buyingPower := cash
	if store.Policy.AllowShort {
		buyingPower = store.CashCents + positionsValue
		if buyingPower < 0 {
			buyingPower = 0
		}
	}

	return models.AccountSummary{
		CashCents:           store.CashCents,
		PositionsValueCents: positionsValue,
		EquityCents:         equity,
		RealizedPnlCents:    store.RealizedPnlCents,
		BuyingPowerCents:    buyingPower,
	}, nil
}
