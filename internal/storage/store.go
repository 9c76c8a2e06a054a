package storage

import (
	"context"
	"errors"

	"fx-arbitrage-service/internal/models"
)

var (
	// ErrSignalNotFound is returned when a signal id does not resolve for
	// the given user.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrAlreadyExecuted is returned when a signal exists but its executed
	// flag has already flipped. Kept distinct from ErrSignalNotFound so
	// callers can tell "nothing to execute" from "race lost".
	ErrAlreadyExecuted = errors.New("signal already executed")
)

// SignalStore defines the persistence contract shared by the scanner and the
// execution engine.
type SignalStore interface {
	// Insert persists a new signal, assigning its id and detection
	// timestamp when unset.
	Insert(ctx context.Context, signal *models.ArbitrageSignal) error

	// List returns the user's signals ordered by detection time, newest
	// first, capped at limit.
	List(ctx context.Context, userID string, limit int) ([]models.ArbitrageSignal, error)

	// Get returns a single signal or ErrSignalNotFound.
	Get(ctx context.Context, userID, id string) (*models.ArbitrageSignal, error)

	// MarkExecuted atomically transitions the signal from unexecuted to
	// executed, storing the execution result. The transition is a single
	// conditional update gated on executed = false; under concurrent
	// callers exactly one succeeds and the rest get ErrAlreadyExecuted.
	MarkExecuted(ctx context.Context, userID, id string, result models.ExecutionResult) (*models.ArbitrageSignal, error)
}
