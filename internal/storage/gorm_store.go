package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fx-arbitrage-service/internal/models"
)

// DefaultListLimit caps List results when the caller does not supply a limit.
const DefaultListLimit = 100

// GormStore implements SignalStore on top of a gorm database.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ SignalStore = (*GormStore)(nil)

// NewGormStore creates a SignalStore backed by the given database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Insert(ctx context.Context, signal *models.ArbitrageSignal) error {
	if signal.ID == "" {
		signal.ID = uuid.NewString()
	}
	if signal.DetectedAt.IsZero() {
		signal.DetectedAt = s.now().UTC()
	}
	signal.Executed = false
	signal.ExecutionResult = nil

	if err := s.db.WithContext(ctx).Create(signal).Error; err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, userID string, limit int) ([]models.ArbitrageSignal, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	var signals []models.ArbitrageSignal
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("detected_at desc").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	return signals, nil
}

func (s *GormStore) Get(ctx context.Context, userID, id string) (*models.ArbitrageSignal, error) {
	var signal models.ArbitrageSignal
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&signal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSignalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}
	return &signal, nil
}

func (s *GormStore) MarkExecuted(ctx context.Context, userID, id string, result models.ExecutionResult) (*models.ArbitrageSignal, error) {
	// Conditional update: the WHERE clause carries the executed = false
	// precondition so the row flips at most once regardless of how many
	// callers race here.
	res := s.db.WithContext(ctx).
		Model(&models.ArbitrageSignal{}).
		Where("id = ? AND user_id = ? AND executed = ?", id, userID, false).
		Updates(models.ArbitrageSignal{Executed: true, ExecutionResult: &result})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to mark signal executed: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Either the signal does not exist or it was already executed.
		signal, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if signal.Executed {
			return nil, ErrAlreadyExecuted
		}
		return nil, fmt.Errorf("failed to mark signal %s executed", id)
	}

	return s.Get(ctx, userID, id)
}
