package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
	"github.com/ternarybob/vipaii/internal/services/sessions"
)

// SessionStore creates and looks up visitor sessions
type SessionStore interface {
	Create() *sessions.Session
	Get(id string) (*sessions.Session, error)
	List() []*sessions.Session
	Delete(id string) error
}

// sessionView is the JSON view of one session with both surfaces
type sessionView struct {
	sessions.Info
	ChatState  string               `json:"chat_state"`
	Transcript []models.ChatMessage `json:"transcript"`
	Image      illustrator.Snapshot `json:"image"`
}

func newSessionView(session *sessions.Session) sessionView {
	return sessionView{
		Info:       session.Info(),
		ChatState:  string(session.Chat.State()),
		Transcript: session.Chat.Transcript(),
		Image:      session.Image.Snapshot(),
	}
}

// SessionHandler handles visitor session lifecycle requests
type SessionHandler struct {
	store  SessionStore
	logger arbor.ILogger
}

// NewSessionHandler creates a session handler
func NewSessionHandler(store SessionStore, logger arbor.ILogger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		logger: logger,
	}
}

// CreateSessionHandler handles POST /api/sessions
func (h *SessionHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	session := h.store.Create()
	h.logger.Info().Str("session_id", session.ID).Msg("Visitor session opened")
	WriteJSON(w, http.StatusCreated, newSessionView(session))
}

// ListSessionsHandler handles GET /api/sessions
func (h *SessionHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	list := h.store.List()
	infos := make([]sessions.Info, 0, len(list))
	for _, session := range list {
		infos = append(infos, session.Info())
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": infos,
		"count":    len(infos),
	})
}

// GetSessionHandler handles GET /api/sessions/{id}
func (h *SessionHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}
	WriteJSON(w, http.StatusOK, newSessionView(session))
}

// DeleteSessionHandler handles DELETE /api/sessions/{id}
func (h *SessionHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Delete(id); err != nil {
		WriteServiceError(w, h.logger, err, "Failed to delete session")
		return
	}
	h.logger.Info().Str("session_id", id).Msg("Visitor session closed")
	WriteSuccess(w, "Session closed")
}
