package models

import (
	"math"
	"strings"
	"time"
)

// QuantityEpsilon is the closure threshold for share counts: a position
// whose quantity is within this distance of zero is treated as closed.
const QuantityEpsilon = 1e-8

// StoreVersion tags the schema of a serialized PaperTradingStore.
const StoreVersion = 1

// PaperPosition is a single holding keyed by symbol. Quantity is signed;
// negative means short. AvgPriceCents is the volume-weighted cost basis.
type PaperPosition struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgPriceCents int64   `json:"avgPriceCents"`
}

// PaperEquityPoint is an equity snapshot taken after every fill.
type PaperEquityPoint struct {
	At          time.Time `json:"at"`
	EquityCents int64     `json:"equityCents"`
}

// PaperTradingStore is the aggregate root for one paper-trading account.
// The engine treats it as an immutable value: every mutation returns a
// new copy, never touching the caller's instance.
type PaperTradingStore struct {
	Version          int                `json:"version"`
	CashCents        int64              `json:"cashCents"`
	RealizedPnlCents int64              `json:"realizedPnlCents"`
	Policy           PaperTradingPolicy `json:"policy"`
	Positions        []PaperPosition    `json:"positions"`
	Orders           []PaperOrder       `json:"orders"`
	EquityHistory    []PaperEquityPoint `json:"equityHistory"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// Position returns the holding for a symbol, matching case-insensitively.
func (s *PaperTradingStore) Position(symbol string) (PaperPosition, bool) {
	for _, p := range s.Positions {
		if strings.EqualFold(p.Symbol, symbol) {
			return p, true
		}
	}
	return PaperPosition{}, false
}

// ActivePositions counts holdings whose quantity is meaningfully nonzero.
func (s *PaperTradingStore) ActivePositions() int {
	n := 0
	for _, p := range s.Positions {
		if math.Abs(p.Quantity) > QuantityEpsilon {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the store. Slices are copied so the
// original and the clone never share backing arrays.
func (s PaperTradingStore) Clone() PaperTradingStore {
	out := s
	out.Policy.BlockedSymbols = append([]string(nil), s.Policy.BlockedSymbols...)
	out.Positions = append([]PaperPosition(nil), s.Positions...)
	out.Orders = append([]PaperOrder(nil), s.Orders...)
	out.EquityHistory = append([]PaperEquityPoint(nil), s.EquityHistory...)
	return out
}
