package models

import "time"

// Order sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order types.
const (
	TypeMarket = "market"
	TypeLimit  = "limit"
)

// Order statuses. Open and cancelled are reserved for resting-order
// support; the synchronous engine only ever produces filled or rejected.
const (
	StatusFilled    = "filled"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusOpen      = "open"
)

// Order sources.
const (
	SourceUI  = "ui"
	SourceAPI = "api"
	SourceAI  = "ai"
)

// PaperOrderInput is an order request as received from the caller,
// already past schema validation.
type PaperOrderInput struct {
	Symbol          string  `json:"symbol"`
	Side            string  `json:"side"`
	Quantity        float64 `json:"quantity"`
	Type            string  `json:"type"`
	LimitPriceCents int64   `json:"limitPriceCents,omitempty"` // required and >0 for limit orders
}

// PaperOrder is the immutable record of a decided order.
// A filled order always carries ExecutedAt and FillPriceCents; every
// other status leaves both nil.
type PaperOrder struct {
	ID              string     `json:"id"`
	Symbol          string     `json:"symbol"`
	Side            string     `json:"side"`
	Quantity        float64    `json:"quantity"`
	Type            string     `json:"type"`
	LimitPriceCents int64      `json:"limitPriceCents,omitempty"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requestedAt"`
	ExecutedAt      *time.Time `json:"executedAt,omitempty"`
	FillPriceCents  *int64     `json:"fillPriceCents,omitempty"`
	NotionalCents   int64      `json:"notionalCents"`
	Reason          string     `json:"reason,omitempty"`
	IdempotencyKey  string     `json:"idempotencyKey,omitempty"`
	Source          string     `json:"source,omitempty"`
}
