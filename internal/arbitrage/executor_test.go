package arbitrage

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fx-arbitrage-service/internal/models"
	"fx-arbitrage-service/internal/storage"
)

var testClockTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// setupExecutorTest builds an executor over a real in-memory store so the
// conditional-update semantics are exercised end to end.
func setupExecutorTest(t *testing.T) (*Executor, storage.SignalStore) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.ArbitrageSignal{}))

	// A single connection keeps every goroutine on the same in-memory
	// database.
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := storage.NewGormStore(db)
	lots := NewLotSizer(map[string]float64{"forex": 100000}, zap.NewNop())
	clock := func() time.Time { return testClockTime }
	rng := rand.New(rand.NewSource(1))

	return NewExecutor(zap.NewNop(), store, lots, clock, rng), store
}

func insertTestSignal(t *testing.T, store storage.SignalStore) *models.ArbitrageSignal {
	signal := &models.ArbitrageSignal{
		UserID:     "user-1",
		SymbolPair: "EURUSD",
		SourceBuy:  "broker-c",
		SourceSell: "broker-b",
		PriceBuy:   1.0849,
		PriceSell:  1.08505,
		SpreadPips: 1.5,
	}
	assert.NoError(t, store.Insert(context.Background(), signal))
	return signal
}

func TestExecutor_Execute_ProfitAndFills(t *testing.T) {
	// Arrange
	executor, store := setupExecutorTest(t)
	signal := insertTestSignal(t, store)

	// Act
	executed, err := executor.Execute(context.Background(), "user-1", signal.ID, 1)

	// Assert
	assert.NoError(t, err)
	assert.True(t, executed.Executed)
	assert.NotNil(t, executed.ExecutionResult)

	result := executed.ExecutionResult
	assert.InDelta(t, 15.0, result.Profit, 0.001)
	assert.GreaterOrEqual(t, result.LatencyMs, 10.0)
	assert.Less(t, result.LatencyMs, 60.0)

	assert.Equal(t, "broker-c", result.BuyOrder.Source)
	assert.Equal(t, 1.0849, result.BuyOrder.Price)
	assert.Equal(t, 1.0, result.BuyOrder.Volume)
	assert.Equal(t, testClockTime, result.BuyOrder.ExecutedAt)

	assert.Equal(t, "broker-b", result.SellOrder.Source)
	assert.Equal(t, 1.08505, result.SellOrder.Price)
	assert.Equal(t, 1.0, result.SellOrder.Volume)
}

func TestExecutor_Execute_VolumeScalesProfit(t *testing.T) {
	executor, store := setupExecutorTest(t)
	signal := insertTestSignal(t, store)

	executed, err := executor.Execute(context.Background(), "user-1", signal.ID, 2.5)

	assert.NoError(t, err)
	assert.InDelta(t, 37.5, executed.ExecutionResult.Profit, 0.001)
}

func TestExecutor_Execute_NotFound(t *testing.T) {
	executor, _ := setupExecutorTest(t)

	_, err := executor.Execute(context.Background(), "user-1", "no-such-signal", 1)

	assert.ErrorIs(t, err, storage.ErrSignalNotFound)
}

func TestExecutor_Execute_WrongUserIsNotFound(t *testing.T) {
	executor, store := setupExecutorTest(t)
	signal := insertTestSignal(t, store)

	_, err := executor.Execute(context.Background(), "someone-else", signal.ID, 1)

	assert.ErrorIs(t, err, storage.ErrSignalNotFound)
}

func TestExecutor_Execute_InvalidArguments(t *testing.T) {
	executor, store := setupExecutorTest(t)
	signal := insertTestSignal(t, store)

	_, err := executor.Execute(context.Background(), "user-1", "", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = executor.Execute(context.Background(), "user-1", signal.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = executor.Execute(context.Background(), "user-1", signal.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExecutor_Execute_SecondCallFails(t *testing.T) {
	executor, store := setupExecutorTest(t)
	signal := insertTestSignal(t, store)

	_, err := executor.Execute(context.Background(), "user-1", signal.ID, 1)
	assert.NoError(t, err)

	_, err = executor.Execute(context.Background(), "user-1", signal.ID, 1)
	assert.ErrorIs(t, err, storage.ErrAlreadyExecuted)

	// The stored result is untouched by the failed attempt.
	stored, err := store.Get(context.Background(), "user-1", signal.ID)
	assert.NoError(t, err)
	assert.True(t, stored.Executed)
	assert.NotNil(t, stored.ExecutionResult)
}

func TestExecutor_Execute_ConcurrentExactlyOnce(t *testing.T) {
	executor, store := setupExecutorTest(t)
	signal := insertTestSignal(t, store)

	const callers = 5
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = executor.Execute(context.Background(), "user-1", signal.ID, 1)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.True(t, errors.Is(err, storage.ErrAlreadyExecuted),
				"losing callers must fail with already-executed, got: %v", err)
		}
	}
	assert.Equal(t, 1, successes)

	// And any later attempt still reports already-executed.
	_, err := executor.Execute(context.Background(), "user-1", signal.ID, 1)
	assert.ErrorIs(t, err, storage.ErrAlreadyExecuted)
}
