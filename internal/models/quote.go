package models

import "time"

// PaperQuote is an ephemeral price observation for a symbol. Quotes are
// never persisted in the store.
type PaperQuote struct {
	Symbol     string    `json:"symbol"`
	PriceCents int64     `json:"priceCents"`
	AsOf       time.Time `json:"asOf"`
}
