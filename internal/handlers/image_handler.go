package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
)

type generateImageRequest struct {
	Prompt     string `json:"prompt"`
	Resolution string `json:"resolution"`
}

// ImageHandler drives a session's image panel
type ImageHandler struct {
	store  SessionStore
	logger arbor.ILogger
}

// NewImageHandler creates an image handler
func NewImageHandler(store SessionStore, logger arbor.ILogger) *ImageHandler {
	return &ImageHandler{
		store:  store,
		logger: logger,
	}
}

// GenerateHandler handles POST /api/sessions/{id}/image. It blocks until the
// panel settles and returns its snapshot; a client disconnect abandons the
// generation.
func (h *ImageHandler) GenerateHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}

	var req generateImageRequest
	if err := DecodeJSON(w, r, 64<<10, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolution, err := models.ParseImageResolution(req.Resolution)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	stop := context.AfterFunc(r.Context(), func() {
		if session.Image.Abandon() {
			h.logger.Debug().Str("session_id", id).Msg("Client disconnected, image generation abandoned")
		}
	})
	defer stop()

	genErr := session.Image.Generate(context.WithoutCancel(r.Context()), req.Prompt, resolution)
	snapshot := session.Image.Snapshot()

	if genErr == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"panel":  snapshot,
		})
		return
	}

	status := StatusForError(genErr)
	message := snapshot.Error
	if message == "" || errors.Is(genErr, illustrator.ErrEmptyPrompt) || errors.Is(genErr, illustrator.ErrBusy) {
		message = genErr.Error()
	}
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(genErr).Str("session_id", id).Msg("Image generation failed")
	}

	WriteJSON(w, status, map[string]interface{}{
		"status": "error",
		"error":  message,
		"panel":  snapshot,
	})
}

// GetImageHandler handles GET /api/sessions/{id}/image
func (h *ImageHandler) GetImageHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}
	WriteJSON(w, http.StatusOK, session.Image.Snapshot())
}

// AbandonHandler handles DELETE /api/sessions/{id}/image
func (h *ImageHandler) AbandonHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"abandoned": session.Image.Abandon()})
}

// DownloadHandler handles GET /api/sessions/{id}/image/download
func (h *ImageHandler) DownloadHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}

	download, err := session.Image.Download()
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to prepare image download")
		return
	}

	WriteAttachment(w, download.MIMEType, download.FileName, download.Data)
}
