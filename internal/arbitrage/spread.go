package arbitrage

import (
	"math"
	"strings"

	"go.uber.org/zap"
)

const (
	// Standard forex pip convention: JPY pairs quote to 2 decimal places,
	// everything else to 4.
	pipFactorDefault = 10000.0
	pipFactorJPY     = 100.0

	// StandardLot is the conventional forex position-sizing unit.
	StandardLot = 100000.0
)

// PipFactor returns the multiplier converting a raw price difference for the
// symbol into pips.
func PipFactor(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "JPY") {
		return pipFactorJPY
	}
	return pipFactorDefault
}

// SpreadPips returns the absolute spread between two quoted prices for a
// symbol, expressed in pips. Symmetric in its price arguments.
func SpreadPips(priceA, priceB float64, symbol string) float64 {
	return math.Abs(priceA-priceB) * PipFactor(symbol)
}

// LotSizer maps a symbol to the position-sizing multiplier used for profit
// projection. Lot sizes are configured per asset class because the 100,000
// unit standard lot only applies to forex pairs.
type LotSizer struct {
	sizes  map[string]float64
	logger *zap.Logger
}

// NewLotSizer creates a LotSizer from the configured per-asset-class sizes.
func NewLotSizer(sizes map[string]float64, logger *zap.Logger) *LotSizer {
	return &LotSizer{sizes: sizes, logger: logger}
}

// For returns the lot size for the symbol's asset class, falling back to the
// forex standard lot when the class has no configured size.
func (l *LotSizer) For(symbol string) float64 {
	class := assetClass(symbol)
	if size, ok := l.sizes[class]; ok && size > 0 {
		return size
	}
	if class != "forex" {
		l.logger.Warn("No lot size configured for asset class, falling back to forex standard lot",
			zap.String("symbol", symbol),
			zap.String("asset_class", class))
	}
	return StandardLot
}

func assetClass(symbol string) string {
	s := strings.ToUpper(symbol)
	if strings.HasPrefix(s, "XAU") || strings.HasPrefix(s, "XAG") {
		return "metals"
	}
	return "forex"
}
