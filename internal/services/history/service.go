package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
)

// Service records analysis results and serves them back
type Service struct {
	storage   interfaces.HistoryStorage
	config    *common.HistoryConfig
	logger    arbor.ILogger
	retention time.Duration
	now       func() time.Time
}

// NewService creates a history service
func NewService(storage interfaces.HistoryStorage, config *common.HistoryConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		config:    config,
		logger:    logger,
		retention: common.Duration(config.Retention, 0),
		now:       time.Now,
	}
}

// Enabled reports whether analyses are recorded
func (s *Service) Enabled() bool {
	return s.config.Enabled
}

// Record stores a completed analysis. It returns nil, nil when history is disabled.
func (s *Service) Record(ctx context.Context, prompt, fileName string, result *models.AnalysisResult) (*models.HistoryItem, error) {
	if !s.config.Enabled {
		return nil, nil
	}
	if result == nil {
		return nil, fmt.Errorf("analysis result is required")
	}

	item := &models.HistoryItem{
		ID:        common.NewHistoryID(),
		Timestamp: s.now(),
		Prompt:    prompt,
		FileName:  fileName,
		Result:    *result,
	}

	if err := s.storage.Save(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("id", item.ID).Str("file_name", fileName).Msg("Analysis recorded in history")
	return item, nil
}

// List returns the newest items; limit <= 0 uses the configured page size
func (s *Service) List(ctx context.Context, limit int) ([]*models.HistoryItem, error) {
	if limit <= 0 {
		limit = s.config.ListLimit
	}
	return s.storage.List(ctx, limit)
}

// Get returns one item, or interfaces.ErrHistoryNotFound
func (s *Service) Get(ctx context.Context, id string) (*models.HistoryItem, error) {
	return s.storage.Get(ctx, id)
}

// Delete removes one item, or returns interfaces.ErrHistoryNotFound
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("History item deleted")
	return nil
}

// Prune removes items older than the retention period. A zero retention keeps everything.
func (s *Service) Prune(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.retention)
	deleted, err := s.storage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Pruned expired history items")
	}
	return deleted, nil
}
