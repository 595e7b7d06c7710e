package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/interfaces"
)

// Manager owns the database and the storages built on it
type Manager struct {
	db      *DB
	kv      *KVStorage
	history *HistoryStorage
	logger  arbor.ILogger
}

var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager opens the database and wires the KV and history storages
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := OpenDB(logger, config)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return &Manager{
		db:      db,
		kv:      NewKVStorage(db, logger),
		history: NewHistoryStorage(db, logger),
		logger:  logger,
	}, nil
}

func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

func (m *Manager) HistoryStorage() interfaces.HistoryStorage {
	return m.history
}

// CollectGarbage reclaims value log space left by deleted history items
func (m *Manager) CollectGarbage() (int, error) {
	return m.db.CollectGarbage()
}

func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
