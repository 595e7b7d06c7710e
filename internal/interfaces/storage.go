package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/vipaii/internal/models"
)

// ErrHistoryNotFound is returned when a history item does not exist
var ErrHistoryNotFound = errors.New("history item not found")

// HistoryStorage persists analysis history items
type HistoryStorage interface {
	Save(ctx context.Context, item *models.HistoryItem) error
	Get(ctx context.Context, id string) (*models.HistoryItem, error)
	// List returns items newest first; limit <= 0 returns all
	List(ctx context.Context, limit int) ([]*models.HistoryItem, error)
	Delete(ctx context.Context, id string) error
	// DeleteOlderThan removes items with a timestamp before cutoff and returns the count removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// StorageManager owns the storage backends
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	HistoryStorage() HistoryStorage
	// CollectGarbage reclaims space freed by deletes and returns the number of files rewritten
	CollectGarbage() (int, error)
	Close() error
}
