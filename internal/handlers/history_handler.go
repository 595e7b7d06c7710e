package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/history"
)

// HistoryService is the history log as seen by the HTTP surface
type HistoryService interface {
	List(ctx context.Context, limit int) ([]*models.HistoryItem, error)
	Get(ctx context.Context, id string) (*models.HistoryItem, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id, format string) (*history.Export, error)
}

// HistoryHandler handles analysis history requests
type HistoryHandler struct {
	history HistoryService
	logger  arbor.ILogger
}

// NewHistoryHandler creates a history handler
func NewHistoryHandler(history HistoryService, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// ListHistoryHandler handles GET /api/history?limit=N
func (h *HistoryHandler) ListHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 || parsed > 500 {
			WriteError(w, http.StatusBadRequest, "limit must be between 0 and 500")
			return
		}
		limit = parsed
	}

	items, err := h.history.List(r.Context(), limit)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to list history")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// GetHistoryHandler handles GET /api/history/{id}
func (h *HistoryHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.history.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get history item")
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// DeleteHistoryHandler handles DELETE /api/history/{id}
func (h *HistoryHandler) DeleteHistoryHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.history.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, h.logger, err, "Failed to delete history item")
		return
	}
	WriteSuccess(w, "History item deleted")
}

// ExportHistoryHandler handles GET /api/history/{id}/export?format=md|html
func (h *HistoryHandler) ExportHistoryHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	export, err := h.history.Export(r.Context(), id, r.URL.Query().Get("format"))
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to export history item")
		return
	}

	WriteAttachment(w, export.ContentType, export.FileName, export.Data)
}
