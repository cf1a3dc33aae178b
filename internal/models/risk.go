package models

// Risk levels, from least to most restrictive.
const (
	RiskLevelOK       = "ok"
	RiskLevelWatch    = "watch"
	RiskLevelRestrict = "restrict"
	RiskLevelHalt     = "halt"
)

// Signal severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Stable signal codes, evaluated in this order by the snapshot builder.
const (
	SignalKillSwitch             = "kill-switch"
	SignalDailyLossLimit         = "daily-loss-limit"
	SignalMaxDrawdownLimit       = "max-drawdown-limit"
	SignalDrawdownWatch          = "drawdown-watch"
	SignalOpenPositionsOverLimit = "open-positions-over-limit"
	SignalOpenPositionsNearLimit = "open-positions-near-limit"
	SignalRejectedOrderSpike     = "rejected-order-spike"
	SignalRejectedOrderWatch     = "rejected-order-watch"
	SignalLowCashBuffer          = "low-cash-buffer"
)

// MaxRiskSignals caps the signal list on a snapshot.
const MaxRiskSignals = 20

// PaperTradingRiskSignal is one condition detected by the snapshot
// builder. Codes are unique within a snapshot.
type PaperTradingRiskSignal struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// PaperTradingRiskSnapshot is a point-in-time risk classification of an
// account. Derived values only; nothing here is persisted.
type PaperTradingRiskSnapshot struct {
	Level              string                   `json:"level"`
	CanTrade           bool                     `json:"canTrade"`
	CanOpenNewRisk     bool                     `json:"canOpenNewRisk"`
	KillSwitch         bool                     `json:"killSwitch"`
	PeakEquityCents    int64                    `json:"peakEquityCents"`
	CurrentEquityCents int64                    `json:"currentEquityCents"`
	DrawdownPct        float64                  `json:"drawdownPct"`
	RejectedOrders24h  int                      `json:"rejectedOrders24h"`
	Signals            []PaperTradingRiskSignal `json:"signals"`
}

// AccountSummary is the caller-derived valuation of an account, fed to
// the risk snapshot builder alongside the store.
type AccountSummary struct {
	CashCents           int64 `json:"cashCents"`
	PositionsValueCents int64 `json:"positionsValueCents"`
	EquityCents         int64 `json:"equityCents"`
	RealizedPnlCents    int64 `json:"realizedPnlCents"`
	BuyingPowerCents    int64 `json:"buyingPowerCents"`
}
