package keygate

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
)

// MissingKeyNotice is surfaced when the host offers no key-selection flow
const MissingKeyNotice = "Vui lòng đảm bảo bạn đã cấu hình API Key."

// Capability is an optional host facility for selecting a paid API key
type Capability interface {
	// HasSelectedAPIKey reports whether a paid-tier key is currently selected
	HasSelectedAPIKey(ctx context.Context) (bool, error)

	// OpenSelectKey starts the host's key-selection flow
	OpenSelectKey(ctx context.Context) error
}

// Noticer shows a blocking notice to the user
type Noticer interface {
	Notice(ctx context.Context, message string)
}

// Gate fronts paid operations with a key check. A nil capability means the
// environment is assumed to be configured out of band.
type Gate struct {
	capability Capability
	noticer    Noticer
	logger     arbor.ILogger
}

var _ interfaces.KeyGate = (*Gate)(nil)

// NewGate creates a gate; capability and noticer may be nil
func NewGate(capability Capability, noticer Noticer, logger arbor.ILogger) *Gate {
	return &Gate{
		capability: capability,
		noticer:    noticer,
		logger:     logger,
	}
}

// Check reports whether a paid key is selected.
// Without a capability it returns true; a capability error counts as no key.
func (g *Gate) Check(ctx context.Context) bool {
	if g.capability == nil {
		return true
	}

	selected, err := g.capability.HasSelectedAPIKey(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Failed to query API key selection")
		return false
	}
	return selected
}

// Prompt asks the host to select a key, or shows MissingKeyNotice when it cannot.
// It does not wait for or confirm the outcome of the selection.
func (g *Gate) Prompt(ctx context.Context) error {
	if g.capability == nil {
		g.logger.Info().Msg("No key selection capability, showing notice")
		if g.noticer != nil {
			g.noticer.Notice(ctx, MissingKeyNotice)
		}
		return nil
	}

	g.logger.Info().Msg("Opening API key selection")
	return g.capability.OpenSelectKey(ctx)
}
