package risk

import (
	"fmt"
	"math"
	"time"

	"paper-trading-go/internal/models"
)

// Thresholds for the rejected-order signals over the trailing 24 hours.
const (
	rejectedSpikeThreshold = 8
	rejectedWatchThreshold = 4
)

// lowCashBufferPct is the cash ratio below which the account is flagged.
const lowCashBufferPct = 5.0

// signalList collects signals in evaluation order, keeping the first
// occurrence of each code and capping the list length.
type signalList struct {
	signals []models.PaperTradingRiskSignal
	seen    map[string]struct{}
}

func newSignalList() *signalList {
	return &signalList{seen: make(map[string]struct{})}
}

func (l *signalList) add(code, severity, message string) {
	if _, ok := l.seen[code]; ok {
		return
	}
	if len(l.signals) >= models.MaxRiskSignals {
		return
	}
	l.seen[code] = struct{}{}
	l.signals = append(l.signals, models.PaperTradingRiskSignal{
		Code:     code,
		Severity: severity,
		Message:  message,
	})
}

// BuildSnapshot classifies the current trading risk of an account from
// its store and a caller-derived valuation. It is a pure function:
// identical inputs always produce an identical snapshot, including
// signal order.
func BuildSnapshot(store models.PaperTradingStore, summary models.AccountSummary, now time.Time) models.PaperTradingRiskSnapshot {
	policy := store.Policy

	rejected24h := rejectedOrdersSince(store, now.Add(-24*time.Hour))
	activePositions := store.ActivePositions()

	// Peak equity is floored at 1 to avoid dividing by zero.
	peak := int64(1)
	for _, point := range store.EquityHistory {
		if point.EquityCents > peak {
			peak = point.EquityCents
		}
	}
	current := summary.EquityCents
	if current > peak {
		peak = current
	}

	drawdownPct := float64(peak-current) / float64(peak) * 100
	if drawdownPct < 0 {
		drawdownPct = 0
	}

	cashRatioPct := 0.0
	if summary.EquityCents > 0 {
		cash := summary.CashCents
		if cash < 0 {
			cash = 0
		}
		cashRatioPct = float64(cash) / float64(summary.EquityCents) * 100
	}

	signals := newSignalList()

	if policy.KillSwitchEnabled {
		signals.add(models.SignalKillSwitch, models.SeverityCritical,
			"kill switch is engaged; all trading is halted")
	}

	if policy.MaxDailyLossCents > 0 && summary.RealizedPnlCents <= -policy.MaxDailyLossCents {
		signals.add(models.SignalDailyLossLimit, models.SeverityCritical,
			fmt.Sprintf("realized loss %d cents breaches the daily loss limit of %d cents",
				-summary.RealizedPnlCents, policy.MaxDailyLossCents))
	}

	if drawdownPct >= policy.MaxDrawdownPct {
		signals.add(models.SignalMaxDrawdownLimit, models.SeverityCritical,
			fmt.Sprintf("drawdown %.2f%% breaches the maximum of %.2f%%", drawdownPct, policy.MaxDrawdownPct))
	} else if drawdownPct >= 0.8*policy.MaxDrawdownPct {
		signals.add(models.SignalDrawdownWatch, models.SeverityWarning,
			fmt.Sprintf("drawdown %.2f%% is approaching the maximum of %.2f%%", drawdownPct, policy.MaxDrawdownPct))
	}

	nearLimit := int(math.Floor(0.85 * float64(policy.MaxOpenPositions)))
	if nearLimit < 1 {
		nearLimit = 1
	}
	if activePositions > policy.MaxOpenPositions {
		signals.add(models.SignalOpenPositionsOverLimit, models.SeverityCritical,
			fmt.Sprintf("%d open positions exceed the limit of %d", activePositions, policy.MaxOpenPositions))
	} else if activePositions >= nearLimit {
		signals.add(models.SignalOpenPositionsNearLimit, models.SeverityWarning,
			fmt.Sprintf("%d open positions are near the limit of %d", activePositions, policy.MaxOpenPositions))
	}

	if rejected24h >= rejectedSpikeThreshold {
		signals.add(models.SignalRejectedOrderSpike, models.SeverityCritical,
			fmt.Sprintf("%d orders rejected in the last 24 hours", rejected24h))
	} else if rejected24h >= rejectedWatchThreshold {
		signals.add(models.SignalRejectedOrderWatch, models.SeverityWarning,
			fmt.Sprintf("%d orders rejected in the last 24 hours", rejected24h))
	}

	if cashRatioPct < lowCashBufferPct {
		signals.add(models.SignalLowCashBuffer, models.SeverityWarning,
			fmt.Sprintf("cash buffer is %.2f%% of equity", cashRatioPct))
	}

	level := classify(signals.signals)

	return models.PaperTradingRiskSnapshot{
		Level:              level,
		CanTrade:           level != models.RiskLevelHalt,
		CanOpenNewRisk:     level == models.RiskLevelOK || level == models.RiskLevelWatch,
		KillSwitch:         policy.KillSwitchEnabled,
		PeakEquityCents:    peak,
		CurrentEquityCents: current,
		DrawdownPct:        drawdownPct,
		RejectedOrders24h:  rejected24h,
		Signals:            signals.signals,
	}
}

// classify maps the signal set to an overall level: any critical signal
// halts, any warning restricts, any signal at all is worth watching.
func classify(signals []models.PaperTradingRiskSignal) string {
	hasCritical, hasWarning := false, false
	for _, s := range signals {
		switch s.Severity {
		case models.SeverityCritical:
			hasCritical = true
		case models.SeverityWarning:
			hasWarning = true
		}
	}
	switch {
	case hasCritical:
		return models.RiskLevelHalt
	case hasWarning:
		return models.RiskLevelRestrict
	case len(signals) > 0:
		return models.RiskLevelWatch
	default:
		return models.RiskLevelOK
	}
}

func rejectedOrdersSince(store models.PaperTradingStore, cutoff time.Time) int {
	n := 0
	for _, order := range store.Orders {
		if order.Status == models.StatusRejected && order.RequestedAt.After(cutoff) {
			n++
		}
	}
	return n
}
