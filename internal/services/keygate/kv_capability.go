package keygate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/interfaces"
)

// KVCapability is the server-side key selector. A key counts as selected when
// the KV store holds one; opening the selection raises a flag that the key
// endpoints expose until a key is stored.
type KVCapability struct {
	kvStorage interfaces.KeyValueStorage
	logger    arbor.ILogger
}

var _ Capability = (*KVCapability)(nil)

// NewKVCapability creates a KV-backed capability
func NewKVCapability(kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *KVCapability {
	return &KVCapability{
		kvStorage: kvStorage,
		logger:    logger,
	}
}

// HasSelectedAPIKey reports whether a non-empty Gemini key is stored
func (c *KVCapability) HasSelectedAPIKey(ctx context.Context) (bool, error) {
	value, err := c.kvStorage.Get(ctx, common.GeminiAPIKeyName)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read selected API key: %w", err)
	}
	return strings.TrimSpace(value) != "", nil
}

// OpenSelectKey raises the selection-requested flag
func (c *KVCapability) OpenSelectKey(ctx context.Context) error {
	if err := c.kvStorage.Set(ctx, common.KeySelectionRequestedName, "true", "Raised when a paid feature needs an API key to be selected"); err != nil {
		return fmt.Errorf("failed to request API key selection: %w", err)
	}
	c.logger.Debug().Msg("API key selection requested")
	return nil
}

// SelectionRequested reports whether a key selection is pending
func (c *KVCapability) SelectionRequested(ctx context.Context) bool {
	value, err := c.kvStorage.Get(ctx, common.KeySelectionRequestedName)
	return err == nil && value == "true"
}

// SelectKey stores apiKey as the selected key and clears any pending request
func (c *KVCapability) SelectKey(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := c.kvStorage.Set(ctx, common.GeminiAPIKeyName, apiKey, "Gemini API key selected for paid features"); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	if err := c.kvStorage.Delete(ctx, common.KeySelectionRequestedName); err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear key selection request: %w", err)
	}

	c.logger.Info().Msg("API key selected")
	return nil
}

// ClearKey removes the selected key
func (c *KVCapability) ClearKey(ctx context.Context) error {
	if err := c.kvStorage.Delete(ctx, common.GeminiAPIKeyName); err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear API key: %w", err)
	}
	c.logger.Info().Msg("API key cleared")
	return nil
}
