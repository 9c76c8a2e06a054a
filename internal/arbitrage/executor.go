package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"fx-arbitrage-service/internal/models"
	"fx-arbitrage-service/internal/quotes"
	"fx-arbitrage-service/internal/storage"
)

// ErrInvalidArgument reports a missing or malformed execution parameter.
var ErrInvalidArgument = errors.New("invalid argument")

// Simulated execution latency range in milliseconds. A production
// replacement would measure this, not synthesize it.
const (
	latencyMinMs  = 10.0
	latencySpanMs = 50.0
)

// Executor simulates the two-leg execution of a detected signal and records
// the result exactly once.
type Executor struct {
	logger *zap.Logger
	store  storage.SignalStore
	lots   *LotSizer
	clock  quotes.Clock

	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

// NewExecutor creates a new execution engine. The clock and rng are explicit
// dependencies so tests can supply deterministic values.
func NewExecutor(logger *zap.Logger, store storage.SignalStore, lots *LotSizer, clock quotes.Clock, rng *rand.Rand) *Executor {
	if clock == nil {
		clock = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Executor{
		logger: logger,
		store:  store,
		lots:   lots,
		clock:  clock,
		rng:    rng,
	}
}

// Execute simulates buying at the signal's buy source and selling at its
// sell source, then atomically marks the signal executed. A signal executes
// at most once: concurrent calls yield one success and the rest fail with
// storage.ErrAlreadyExecuted. Failures are never retried here, because a
// retry after a partial success would double-count profit.
func (e *Executor) Execute(ctx context.Context, userID, signalID string, volume float64) (*models.ArbitrageSignal, error) {
	if signalID == "" {
		return nil, fmt.Errorf("%w: signal_id is required", ErrInvalidArgument)
	}
	if volume <= 0 {
		return nil, fmt.Errorf("%w: volume must be positive", ErrInvalidArgument)
	}

	signal, err := e.store.Get(ctx, userID, signalID)
	if err != nil {
		return nil, err
	}
	if signal.Executed {
		// Fail fast; the conditional update below would catch this too,
		// but there is no point synthesizing fills for a dead signal.
		return nil, storage.ErrAlreadyExecuted
	}

	lot := e.lots.For(signal.SymbolPair)
	result := models.ExecutionResult{
		BuyOrder: models.OrderFill{
			Source:     signal.SourceBuy,
			Price:      signal.PriceBuy,
			Volume:     volume,
			ExecutedAt: e.clock().UTC(),
		},
		SellOrder: models.OrderFill{
			Source:     signal.SourceSell,
			Price:      signal.PriceSell,
			Volume:     volume,
			ExecutedAt: e.clock().UTC(),
		},
		Profit:    (signal.PriceSell - signal.PriceBuy) * volume * lot,
		LatencyMs: e.simulateLatency(),
	}

	// Sole point at which the executed flag flips.
	updated, err := e.store.MarkExecuted(ctx, userID, signalID, result)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Signal executed",
		zap.String("signal_id", signalID),
		zap.String("symbol", signal.SymbolPair),
		zap.Float64("volume", volume),
		zap.Float64("profit", result.Profit))
	return updated, nil
}

// simulateLatency returns a value uniformly distributed in [10, 60) ms.
func (e *Executor) simulateLatency() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return latencyMinMs + e.rng.Float64()*latencySpanMs
}
