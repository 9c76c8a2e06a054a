package models

import "time"

// PriceQuote is one source's price observation for a symbol. Quotes are
// produced fresh for every scan and never persisted on their own.
type PriceQuote struct {
	Source     string    `json:"source"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}
