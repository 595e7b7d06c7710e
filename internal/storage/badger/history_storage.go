package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HistoryStorage implements the HistoryStorage interface for Badger
type HistoryStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *DB, logger arbor.ILogger) *HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

// Save inserts or replaces a history item
func (s *HistoryStorage) Save(ctx context.Context, item *models.HistoryItem) error {
	if item.ID == "" {
		return fmt.Errorf("history item ID is required")
	}
	if err := s.db.Store().Upsert(item.ID, item); err != nil {
		return fmt.Errorf("failed to save history item: %w", err)
	}
	return nil
}

// Get retrieves a history item by ID
func (s *HistoryStorage) Get(ctx context.Context, id string) (*models.HistoryItem, error) {
	var item models.HistoryItem
	err := s.db.Store().Get(id, &item)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history item: %w", err)
	}
	return &item, nil
}

// List returns history items newest first; limit <= 0 returns all
func (s *HistoryStorage) List(ctx context.Context, limit int) ([]*models.HistoryItem, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []models.HistoryItem
	if err := s.db.Store().Find(&items, query); err != nil {
		return nil, fmt.Errorf("failed to list history items: %w", err)
	}

	result := make([]*models.HistoryItem, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result, nil
}

// Delete removes a history item by ID
func (s *HistoryStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.HistoryItem{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrHistoryNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete history item: %w", err)
	}
	return nil
}

// DeleteOlderThan removes items recorded before cutoff and returns how many were removed
func (s *HistoryStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var items []models.HistoryItem
	if err := s.db.Store().Find(&items, badgerhold.Where("Timestamp").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find expired history items: %w", err)
	}

	deleted := 0
	for _, item := range items {
		if err := s.db.Store().Delete(item.ID, &models.HistoryItem{}); err != nil {
			s.logger.Warn().Str("id", item.ID).Err(err).Msg("Failed to delete expired history item")
			continue
		}
		deleted++
	}

	return deleted, nil
}
