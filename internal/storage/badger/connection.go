package badger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// gcDiscardRatio is the share of stale data a value log file needs before it is rewritten
const gcDiscardRatio = 0.5

// DB is the badgerhold store shared by the KV and history storages
type DB struct {
	store  *badgerhold.Store
	path   string
	logger arbor.ILogger
}

// OpenDB opens (or creates) the database at config.Path. With ResetOnStartup
// the directory is removed first so every run starts empty.
func OpenDB(logger arbor.ILogger, config *common.BadgerConfig) (*DB, error) {
	if config.ResetOnStartup {
		resetDir(logger, config.Path)
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // badger's own logger is noisy; arbor covers open/close

	store, err := badgerhold.Open(options)
	if err != nil {
		logger.Error().Err(err).Str("path", config.Path).Msg("Failed to open Badger database")
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database opened")
	return &DB{store: store, path: config.Path, logger: logger}, nil
}

func resetDir(logger arbor.ILogger, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	logger.Debug().Str("path", path).Msg("Deleting existing database (reset_on_startup=true)")
	if err := os.RemoveAll(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to delete database directory")
	}
}

// Store returns the underlying badgerhold store
func (d *DB) Store() *badgerhold.Store {
	return d.store
}

// CollectGarbage rewrites value log files until badger reports nothing left
// to reclaim, and returns the number of files rewritten.
func (d *DB) CollectGarbage() (int, error) {
	rewritten := 0
	for {
		err := d.store.Badger().RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return rewritten, fmt.Errorf("value log gc failed: %w", err)
		}
		rewritten++
	}

	lsm, vlog := d.store.Badger().Size()
	d.logger.Debug().
		Int("rewritten", rewritten).
		Int64("lsm_bytes", lsm).
		Int64("vlog_bytes", vlog).
		Str("path", d.path).
		Msg("Badger value log GC finished")
	return rewritten, nil
}

func (d *DB) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}
