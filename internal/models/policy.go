package models

import (
	"fmt"
	"strings"
)

// Limits on policy fields, enforced by ValidatePolicy.
const (
	MaxBlockedSymbols  = 200
	MaxOpenPositionCap = 200
)

// PaperTradingPolicy is the mutable risk configuration for an account.
// It is edited through the admin surface and read-only to the engine.
type PaperTradingPolicy struct {
	MaxPositionPct        int      `json:"maxPositionPct"`
	MaxOrderNotionalCents int64    `json:"maxOrderNotionalCents"`
	AllowShort            bool     `json:"allowShort"`
	BlockedSymbols        []string `json:"blockedSymbols"`
	MaxOpenPositions      int      `json:"maxOpenPositions"`
	MaxDailyLossCents     int64    `json:"maxDailyLossCents"`
	MaxDrawdownPct        float64  `json:"maxDrawdownPct"`
	KillSwitchEnabled     bool     `json:"killSwitchEnabled"`
}

// ValidatePolicy checks a policy against its allowed ranges.
func ValidatePolicy(p PaperTradingPolicy) error {
	if p.MaxPositionPct < 1 || p.MaxPositionPct > 100 {
		return fmt.Errorf("maxPositionPct must be between 1 and 100, got %d", p.MaxPositionPct)
	}
	if p.MaxOrderNotionalCents <= 0 {
		return fmt.Errorf("maxOrderNotionalCents must be positive, got %d", p.MaxOrderNotionalCents)
	}
	if len(p.BlockedSymbols) > MaxBlockedSymbols {
		return fmt.Errorf("blockedSymbols must not exceed %d entries, got %d", MaxBlockedSymbols, len(p.BlockedSymbols))
	}
	if p.MaxOpenPositions < 1 || p.MaxOpenPositions > MaxOpenPositionCap {
		return fmt.Errorf("maxOpenPositions must be between 1 and %d, got %d", MaxOpenPositionCap, p.MaxOpenPositions)
	}
	if p.MaxDailyLossCents < 0 {
		return fmt.Errorf("maxDailyLossCents must not be negative, got %d", p.MaxDailyLossCents)
	}
	if p.MaxDrawdownPct < 5 || p.MaxDrawdownPct > 90 {
		return fmt.Errorf("maxDrawdownPct must be between 5 and 90, got %g", p.MaxDrawdownPct)
	}
	return nil
}

// IsBlocked reports whether a symbol is on the policy's block list.
// Comparison is case-insensitive.
func (p PaperTradingPolicy) IsBlocked(symbol string) bool {
	for _, blocked := range p.BlockedSymbols {
		if strings.EqualFold(blocked, symbol) {
			return true
		}
	}
	return false
}
