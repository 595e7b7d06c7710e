package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// KVEntry is a stored key/value pair. Keys are case-insensitive.
type KVEntry struct {
	Key         string    `json:"key" badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KVStorage holds small settings such as the selected API key
type KVStorage struct {
	db     *DB
	logger arbor.ILogger
}

var _ interfaces.KeyValueStorage = (*KVStorage)(nil)

func NewKVStorage(db *DB, logger arbor.ILogger) *KVStorage {
	return &KVStorage{db: db, logger: logger}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	entry, err := s.Entry(ctx, key)
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

// Entry returns the full entry for key, or interfaces.ErrKeyNotFound
func (s *KVStorage) Entry(ctx context.Context, key string) (*KVEntry, error) {
	var entry KVEntry
	err := s.db.Store().Get(normalizeKey(key), &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key '%s': %w", key, err)
	}
	return &entry, nil
}

// Set upserts key in one transaction, keeping CreatedAt of an existing entry
func (s *KVStorage) Set(ctx context.Context, key, value, description string) error {
	normalized := normalizeKey(key)
	if normalized == "" {
		return fmt.Errorf("key cannot be empty")
	}

	store := s.db.Store()
	err := store.Badger().Update(func(tx *badger.Txn) error {
		now := time.Now()
		entry := KVEntry{
			Key:         normalized,
			Value:       value,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		var existing KVEntry
		switch err := store.TxGet(tx, normalized, &existing); {
		case err == nil:
			entry.CreatedAt = existing.CreatedAt
		case !errors.Is(err, badgerhold.ErrNotFound):
			return err
		}

		return store.TxUpsert(tx, normalized, &entry)
	})
	if err != nil {
		return fmt.Errorf("failed to write key '%s': %w", key, err)
	}

	s.logger.Debug().Str("key", normalized).Msg("Key/value pair stored")
	return nil
}

func (s *KVStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(normalizeKey(key), &KVEntry{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}
