package arbitrage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"fx-arbitrage-service/internal/models"
	"fx-arbitrage-service/internal/quotes"
	"fx-arbitrage-service/internal/storage"
)

// ScanResult is the outcome of one scan across the requested symbols.
type ScanResult struct {
	Opportunities  []models.ArbitrageSignal `json:"opportunities"`
	ScannedSymbols int                      `json:"scanned_symbols"`
	SignalsFound   int                      `json:"signals_found"`
	ScanTimestamp  time.Time                `json:"scan_timestamp"`
}

// Scanner detects arbitrage opportunities by comparing quotes for the same
// symbol across sources.
type Scanner struct {
	logger    *zap.Logger
	provider  quotes.Provider
	store     storage.SignalStore
	lots      *LotSizer
	watchlist []string
	clock     quotes.Clock
}

// NewScanner creates a new opportunity scanner. watchlist is the default
// symbol set used when a scan request names none.
func NewScanner(logger *zap.Logger, provider quotes.Provider, store storage.SignalStore, lots *LotSizer, watchlist []string, clock quotes.Clock) *Scanner {
	if clock == nil {
		clock = time.Now
	}
	return &Scanner{
		logger:    logger,
		provider:  provider,
		store:     store,
		lots:      lots,
		watchlist: watchlist,
		clock:     clock,
	}
}

// Scan fetches quotes for each symbol, evaluates every unordered source pair
// against the configured threshold, and persists each qualifying pair as a
// signal attributed to userID. Symbols are processed concurrently; a failure
// local to one symbol or one pair is logged and skipped, so a partial result
// is still valid.
func (s *Scanner) Scan(ctx context.Context, userID string, symbols []string, minSpreadPips float64) (*ScanResult, error) {
	if len(symbols) == 0 {
		symbols = s.watchlist
	}

	// Capacity for the worst case: every source pair of every symbol
	// qualifies.
	n := len(s.provider.Sources())
	found := make(chan models.ArbitrageSignal, len(symbols)*n*(n-1)/2)

	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			for _, sig := range s.scanSymbol(ctx, userID, symbol, minSpreadPips) {
				found <- sig
			}
		}(sym)
	}

	go func() {
		wg.Wait()
		close(found)
	}()

	opportunities := make([]models.ArbitrageSignal, 0)
	for sig := range found {
		opportunities = append(opportunities, sig)
	}

	return &ScanResult{
		Opportunities:  opportunities,
		ScannedSymbols: len(symbols),
		SignalsFound:   len(opportunities),
		ScanTimestamp:  s.clock().UTC(),
	}, nil
}

// scanSymbol fetches the symbol's quote set once and evaluates every
// unordered pair against that single snapshot. Refetching between pairs
// would compare prices from different instants.
func (s *Scanner) scanSymbol(ctx context.Context, userID, symbol string, minSpreadPips float64) []models.ArbitrageSignal {
	l := s.logger.With(zap.String("symbol", symbol))

	quoteSet, err := s.provider.GetQuotes(ctx, symbol)
	if err != nil {
		if !errors.Is(err, quotes.ErrSourceUnavailable) || len(quoteSet) == 0 {
			l.Error("Failed to fetch quotes, skipping symbol", zap.Error(err))
			return nil
		}
		// Degraded source set: pair whatever arrived.
		l.Warn("Some quote sources unavailable, scanning remaining sources",
			zap.Int("available", len(quoteSet)), zap.Error(err))
	}
	if len(quoteSet) < 2 {
		l.Warn("Not enough quotes to form a pair", zap.Int("available", len(quoteSet)))
		return nil
	}

	var signals []models.ArbitrageSignal
	for i := 0; i < len(quoteSet); i++ {
		for j := i + 1; j < len(quoteSet); j++ {
			a, b := quoteSet[i], quoteSet[j]

			spread := SpreadPips(a.Price, b.Price, symbol)
			if spread < minSpreadPips || a.Price == b.Price {
				continue
			}

			// The lower price is the buy side.
			buy, sell := a, b
			if buy.Price > sell.Price {
				buy, sell = sell, buy
			}

			signal := models.ArbitrageSignal{
				UserID:          userID,
				SymbolPair:      symbol,
				SourceBuy:       buy.Source,
				SourceSell:      sell.Source,
				PriceBuy:        buy.Price,
				PriceSell:       sell.Price,
				SpreadPips:      spread,
				PotentialProfit: (sell.Price - buy.Price) * s.lots.For(symbol),
				DetectedAt:      s.clock().UTC(),
			}

			if err := s.store.Insert(ctx, &signal); err != nil {
				l.Error("Failed to persist signal, skipping pair",
					zap.String("source_buy", buy.Source),
					zap.String("source_sell", sell.Source),
					zap.Error(err))
				continue
			}

			l.Info("Arbitrage opportunity detected",
				zap.String("signal_id", signal.ID),
				zap.String("source_buy", buy.Source),
				zap.String("source_sell", sell.Source),
				zap.Float64("spread_pips", spread))
			signals = append(signals, signal)
		}
	}
	return signals
}
