package models

import "time"

// ArbitrageSignal is the durable record of a detected arbitrage opportunity
// between two quote sources for a single symbol.
type ArbitrageSignal struct {
	ID         string `gorm:"primaryKey" json:"id"`
	UserID     string `gorm:"index;not null" json:"user_id"`
	SymbolPair string `gorm:"not null" json:"symbol_pair"`

	// SourceBuy always carries the lower of the two quoted prices. The
	// scanner assigns the sides by comparing prices, so PriceBuy < PriceSell
	// holds for every persisted signal.
	SourceBuy  string  `json:"source_buy"`
	SourceSell string  `json:"source_sell"`
	PriceBuy   float64 `json:"price_buy"`
	PriceSell  float64 `json:"price_sell"`

	SpreadPips      float64 `json:"spread_pips"`
	PotentialProfit float64 `json:"potential_profit"`

	DetectedAt time.Time `gorm:"index" json:"detected_at"`

	// Executed transitions false -> true exactly once. The store enforces
	// the transition with a conditional update, never a read-modify-write.
	Executed        bool             `gorm:"not null;default:false" json:"executed"`
	ExecutionResult *ExecutionResult `gorm:"serializer:json" json:"execution_result,omitempty"`
}

// ExecutionResult captures a completed simulated execution of a signal.
type ExecutionResult struct {
	BuyOrder  OrderFill `json:"buy_order"`
	SellOrder OrderFill `json:"sell_order"`
	Profit    float64   `json:"profit"`
	LatencyMs float64   `json:"latency_ms"`
}

// OrderFill is one synthesized leg of a simulated execution.
type OrderFill struct {
	Source     string    `json:"source"`
	Price      float64   `json:"price"`
	Volume     float64   `json:"volume"`
	ExecutedAt time.Time `json:"executed_at"`
}
