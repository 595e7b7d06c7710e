package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/services/keygate"
)

// KeySelector selects and clears the Gemini API key used for paid features
type KeySelector interface {
	HasSelectedAPIKey(ctx context.Context) (bool, error)
	SelectionRequested(ctx context.Context) bool
	SelectKey(ctx context.Context, apiKey string) error
	ClearKey(ctx context.Context) error
}

// NoticeSource exposes the latest user notice
type NoticeSource interface {
	Last() *keygate.Notice
}

type selectKeyRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// KeyHandler handles API key selection requests
type KeyHandler struct {
	selector KeySelector
	notices  NoticeSource
	logger   arbor.ILogger
}

// NewKeyHandler creates a key handler. notices may be nil.
func NewKeyHandler(selector KeySelector, notices NoticeSource, logger arbor.ILogger) *KeyHandler {
	return &KeyHandler{
		selector: selector,
		notices:  notices,
		logger:   logger,
	}
}

// GetKeyStatusHandler handles GET /api/key - never returns the key itself
func (h *KeyHandler) GetKeyStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	selected, err := h.selector.HasSelectedAPIKey(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to check API key selection")
		WriteError(w, http.StatusInternalServerError, "Failed to check API key selection")
		return
	}

	response := map[string]interface{}{
		"selected":            selected,
		"selection_requested": h.selector.SelectionRequested(r.Context()),
	}
	if h.notices != nil {
		if notice := h.notices.Last(); notice != nil {
			response["notice"] = notice
		}
	}

	WriteJSON(w, http.StatusOK, response)
}

// SelectKeyHandler handles POST /api/key
func (h *KeyHandler) SelectKeyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req selectKeyRequest
	if err := DecodeJSON(w, r, 64<<10, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := requestValidator.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	if err := h.selector.SelectKey(r.Context(), req.APIKey); err != nil {
		h.logger.Error().Err(err).Msg("Failed to select API key")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteSuccess(w, "API key selected")
}

// ClearKeyHandler handles DELETE /api/key
func (h *KeyHandler) ClearKeyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	if err := h.selector.ClearKey(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to clear API key")
		WriteError(w, http.StatusInternalServerError, "Failed to clear API key")
		return
	}

	WriteSuccess(w, "API key cleared")
}
