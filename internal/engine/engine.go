package engine

import (
	"fmt"
	"math"
	"time"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/quotes"
	"paper-trading-go/internal/risk"

	"github.com/google/uuid"
)

// Rejection reasons, stable across releases. Callers and dashboards
// match on these strings.
const (
	ReasonTradingHalted    = "trading is halted by risk controls"
	ReasonBlockedSymbol    = "symbol is blocked by policy"
	ReasonMaxNotional      = "order exceeds maximum notional"
	ReasonMaxPositionSize  = "order exceeds maximum position size"
	ReasonShortNotAllowed  = "short selling is not permitted"
	ReasonLimitUnreachable = "limit price not reachable at current market"
	ReasonNewRiskBlocked   = "opening additional risk is forbidden under current risk posture"
)

// Engine decides paper orders. It holds no account state: Execute is a
// pure transform over its inputs, safe for any number of concurrent
// callers. The quote provider is the only collaborator.
type Engine struct {
	quotes quotes.Provider
	now    func() time.Time
	newID  func() string
}

// Option customizes an Engine, mainly for tests.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the order ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine backed by the given quote provider.
func New(provider quotes.Provider, opts ...Option) *Engine {
	e := &Engine{
		quotes: provider,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates an order against policy and the risk snapshot, then
// either fills it or rejects it with a specific reason. The input store
// is never mutated; the returned store is a fresh copy reflecting the
// decision. When snapshot is nil the engine derives one from the store
// so the risk check is always current. An error is returned only when
// the quote provider fails; every business outcome is expressed on the
// returned order.
func (e *Engine) Execute(store models.PaperTradingStore, input models.PaperOrderInput, snapshot *models.PaperTradingRiskSnapshot) (models.PaperOrder, models.PaperTradingStore, error) {
	now := e.now()
	symbol := quotes.Normalize(input.Symbol)

	if snapshot == nil {
		summary, err := risk.Summarize(store, e.quotes)
		if err != nil {
			return models.PaperOrder{}, store, err
		}
		snap := risk.BuildSnapshot(store, summary, now)
		snapshot = &snap
	}

	quote, err := e.quotes.GetQuote(symbol)
	if err != nil {
		return models.PaperOrder{}, store, fmt.Errorf("could not quote %s: %w", symbol, err)
	}

	// Reference price: quote for market orders, the requested limit
	// price for limit orders. Also the fill price on success.
	refPrice := quote.PriceCents
	if input.Type == models.TypeLimit {
		refPrice = input.LimitPriceCents
	}
	notional := roundCents(input.Quantity * float64(refPrice))

	order := models.PaperOrder{
		ID:              e.newID(),
		Symbol:          symbol,
		Side:            input.Side,
		Quantity:        input.Quantity,
		Type:            input.Type,
		LimitPriceCents: input.LimitPriceCents,
		RequestedAt:     now,
		NotionalCents:   notional,
	}

	position, _ := store.Position(symbol)
	currentQty := position.Quantity

	// Guardrails, first failing check wins.
	if reason := e.checkGuardrails(store, snapshot, input, symbol, currentQty, refPrice, notional, quote.PriceCents); reason != "" {
		order.Status = models.StatusRejected
		order.Reason = reason
		return order, appendOrder(store, order, now), nil
	}

	newStore, err := e.applyFill(store, &order, position, refPrice, now)
	if err != nil {
		return models.PaperOrder{}, store, err
	}
	return order, newStore, nil
}

// checkGuardrails runs the fixed-order policy and risk checks, returning
// the rejection reason for the first failure or "" when the order may fill.
func (e *Engine) checkGuardrails(store models.PaperTradingStore, snapshot *models.PaperTradingRiskSnapshot, input models.PaperOrderInput, symbol string, currentQty float64, refPrice, notional, quotePrice int64) string {
	policy := store.Policy

	// 1. Kill switch / halted risk posture.
	if snapshot.KillSwitch || !snapshot.CanTrade {
		return ReasonTradingHalted
	}

	// 2. Blocked symbol.
	if policy.IsBlocked(symbol) {
		return ReasonBlockedSymbol
	}

	// 3. Per-order notional cap.
	if notional > policy.MaxOrderNotionalCents {
		return ReasonMaxNotional
	}

	// 4. Position-size cap against pre-trade equity at quote prices.
	delta := input.Quantity
	if input.Side == models.SideSell {
		delta = -input.Quantity
	}
	resultingValue := math.Abs(currentQty+delta) * float64(refPrice)
	equity := float64(snapshot.CurrentEquityCents)
	if resultingValue > equity*float64(policy.MaxPositionPct)/100 {
		return ReasonMaxPositionSize
	}

	// 5. Short-sell policy: selling more than the current non-negative
	// holding would open a short.
	if input.Side == models.SideSell && !policy.AllowShort {
		held := math.Max(0, currentQty)
		if input.Quantity > held+models.QuantityEpsilon {
			return ReasonShortNotAllowed
		}
	}

	// 6. Limit price feasibility at the current market.
	if input.Type == models.TypeLimit {
		if input.Side == models.SideBuy && input.LimitPriceCents < quotePrice {
			return ReasonLimitUnreachable
		}
		if input.Side == models.SideSell && input.LimitPriceCents > quotePrice {
			return ReasonLimitUnreachable
		}
	}

	// 7. New-risk gate.
	if RiskIncreasing(currentQty, input.Side, input.Quantity) {
		noPosition := math.Abs(currentQty) <= models.QuantityEpsilon
		if !snapshot.CanOpenNewRisk || (noPosition && store.ActivePositions() >= policy.MaxOpenPositions) {
			return ReasonNewRiskBlocked
		}
	}

	return ""
}

// applyFill commits the fill as a single copy-on-write transform: cash,
// position, realized PnL, order record, equity point, updatedAt.
func (e *Engine) applyFill(store models.PaperTradingStore, order *models.PaperOrder, position models.PaperPosition, fillPrice int64, now time.Time) (models.PaperTradingStore, error) {
	out := store.Clone()

	order.Status = models.StatusFilled
	executedAt := now
	order.ExecutedAt = &executedAt
	price := fillPrice
	order.FillPriceCents = &price

	if order.Side == models.SideBuy {
		out.CashCents -= order.NotionalCents
	} else {
		out.CashCents += order.NotionalCents
	}

	delta := order.Quantity
	if order.Side == models.SideSell {
		delta = -order.Quantity
	}
	updated, realized := ApplyTrade(position, order.Symbol, delta, fillPrice)
	out.RealizedPnlCents += realized
	out.Positions = upsertPosition(out.Positions, updated)

	out.Orders = append(out.Orders, *order)

	equity, err := e.markToMarket(out)
	if err != nil {
		return store, err
	}
	out.EquityHistory = append(out.EquityHistory, models.PaperEquityPoint{At: now, EquityCents: equity})
	out.UpdatedAt = now

	return out, nil
}

// markToMarket values the store at current quote prices.
func (e *Engine) markToMarket(store models.PaperTradingStore) (int64, error) {
	equity := store.CashCents
	for _, pos := range store.Positions {
		quote, err := e.quotes.GetQuote(pos.Symbol)
		if err != nil {
			return 0, fmt.Errorf("could not quote position %s: %w", pos.Symbol, err)
		}
		equity += roundCents(pos.Quantity * float64(quote.PriceCents))
	}
	return equity, nil
}

// appendOrder records a rejected order without touching cash, positions
// or equity history. Rejection history feeds the risk snapshot's
// rejected-order signals.
func appendOrder(store models.PaperTradingStore, order models.PaperOrder, now time.Time) models.PaperTradingStore {
	out := store.Clone()
	out.Orders = append(out.Orders, order)
	out.UpdatedAt = now
	return out
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
