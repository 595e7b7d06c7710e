package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
)

type chatRequest struct {
	Message string `json:"message"`
}

// chatEvent is the wire form of a chatbox.Event, shared by SSE and WebSocket
type chatEvent struct {
	Kind     chatbox.EventKind  `json:"kind"`
	Index    int                `json:"index"`
	Message  models.ChatMessage `json:"message"`
	Fragment string             `json:"fragment,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func newChatEvent(event chatbox.Event) chatEvent {
	wire := chatEvent{
		Kind:     event.Kind,
		Index:    event.Index,
		Message:  event.Message,
		Fragment: event.Fragment,
	}
	if event.Err != nil {
		wire.Error = event.Err.Error()
	}
	return wire
}

// chatEnd closes a reply stream with the session's resulting state
type chatEnd struct {
	State  chatbox.State `json:"state"`
	Status int           `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// ChatHandler streams chat replies over Server-Sent Events
type ChatHandler struct {
	store  SessionStore
	logger arbor.ILogger
}

// NewChatHandler creates a chat handler
func NewChatHandler(store SessionStore, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		store:  store,
		logger: logger,
	}
}

// SendHandler handles POST /api/sessions/{id}/chat.
// The reply streams as SSE events named after chatbox.EventKind and ends with
// an "end" event. A send the session rejects gets a plain JSON error instead.
// A client disconnect abandons the reply this request started.
func (h *ChatHandler) SendHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}

	var req chatRequest
	if err := DecodeJSON(w, r, 64<<10, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteServiceError(w, h.logger, chatbox.ErrEmptyMessage, "Invalid message")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "SSE not supported")
		return
	}

	// Replies outlive the server write timeout
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Headers go out with the first event, once Send has accepted the message
	var streaming atomic.Bool

	stop := context.AfterFunc(r.Context(), func() {
		if streaming.Load() && session.Chat.Abandon() {
			h.logger.Debug().Str("session_id", id).Msg("Client disconnected, chat reply abandoned")
		}
	})
	defer stop()

	observer := func(event chatbox.Event) {
		if !streaming.Load() {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
			w.WriteHeader(http.StatusOK)
			streaming.Store(true)
			if r.Context().Err() != nil {
				session.Chat.Abandon()
			}
		}
		writeSSE(w, flusher, string(event.Kind), newChatEvent(event))
	}

	sendErr := session.Chat.Send(context.WithoutCancel(r.Context()), req.Message, observer)

	if !streaming.Load() {
		WriteServiceError(w, h.logger, sendErr, "Failed to send message")
		return
	}

	end := chatEnd{State: session.Chat.State(), Status: http.StatusOK}
	if sendErr != nil {
		end.Status = StatusForError(sendErr)
		end.Error = sendErr.Error()
	}
	writeSSE(w, flusher, "end", end)
}

// AbandonHandler handles DELETE /api/sessions/{id}/chat
func (h *ChatHandler) AbandonHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"abandoned": session.Chat.Abandon()})
}

// writeSSE writes one named event with a JSON data line
func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
