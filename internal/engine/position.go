package engine

import (
	"math"

	"paper-trading-go/internal/models"
)

// RiskIncreasing reports whether an order grows or initiates exposure in
// its direction rather than reducing it. A buy is risk-increasing when
// the current quantity is non-negative or the order is large enough to
// flip a short into a long; a sell mirrors that toward short exposure.
func RiskIncreasing(currentQty float64, side string, quantity float64) bool {
	if side == models.SideBuy {
		return currentQty >= 0 || quantity > -currentQty
	}
	return currentQty <= 0 || quantity > currentQty
}

// ApplyTrade folds a signed quantity delta at a fill price into a
// position and returns the updated position plus realized PnL in cents.
//
// Cost-basis rules: increasing exposure in the same direction reweights
// the volume-weighted average price; reducing exposure leaves it
// unchanged and realizes PnL on the closed quantity; flipping sign
// through zero realizes the whole prior position and restarts the basis
// at the fill price.
func ApplyTrade(position models.PaperPosition, symbol string, delta float64, fillPriceCents int64) (models.PaperPosition, int64) {
	prevQty := position.Quantity
	prevAvg := position.AvgPriceCents
	newQty := prevQty + delta

	out := models.PaperPosition{Symbol: symbol, Quantity: newQty, AvgPriceCents: prevAvg}

	reducing := prevQty != 0 && (prevQty > 0) != (delta > 0)
	if !reducing {
		// Opening or adding in the same direction: reweight the basis.
		prevAbs := math.Abs(prevQty)
		addAbs := math.Abs(delta)
		weighted := prevAbs*float64(prevAvg) + addAbs*float64(fillPriceCents)
		out.AvgPriceCents = roundCents(weighted / (prevAbs + addAbs))
		return out, 0
	}

	closed := math.Min(math.Abs(delta), math.Abs(prevQty))
	pnl := (float64(fillPriceCents) - float64(prevAvg)) * closed
	if prevQty < 0 {
		pnl = -pnl
	}

	if math.Abs(delta) > math.Abs(prevQty) {
		// Flipped through zero: the basis restarts at the fill price.
		out.AvgPriceCents = fillPriceCents
	}
	if math.Abs(newQty) <= models.QuantityEpsilon {
		out.Quantity = 0
	}

	return out, roundCents(pnl)
}

// upsertPosition replaces (or inserts) the entry for updated.Symbol.
// A position closed to within the epsilon is removed entirely.
func upsertPosition(positions []models.PaperPosition, updated models.PaperPosition) []models.PaperPosition {
	out := positions[:0]
	replaced := false
	for _, p := range positions {
		if p.Symbol == updated.Symbol {
			replaced = true
			if math.Abs(updated.Quantity) > models.QuantityEpsilon {
				out = append(out, updated)
			}
			continue
		}
		out = append(out, p)
	}
	if !replaced && math.Abs(updated.Quantity) > models.QuantityEpsilon {
		out = append(out, updated)
	}
	return out
}
