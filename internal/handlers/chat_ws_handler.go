package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope for every server-to-client frame
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// wsClientMessage is a client-to-server frame: {"type":"send","message":"..."} or {"type":"abandon"}
type wsClientMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type wsTranscript struct {
	State    chatbox.State        `json:"state"`
	Messages []models.ChatMessage `json:"messages"`
}

// wsConn serializes writes to one connection
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
	// replying is set while a reply this connection sent is in flight
	replying atomic.Bool
	closed   atomic.Bool
}

func (c *wsConn) send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(msg)
}

// ChatWSHandler serves a session's chat box over a WebSocket
type ChatWSHandler struct {
	store  SessionStore
	logger arbor.ILogger
}

// NewChatWSHandler creates a WebSocket chat handler
func NewChatWSHandler(store SessionStore, logger arbor.ILogger) *ChatWSHandler {
	return &ChatWSHandler{
		store:  store,
		logger: logger,
	}
}

// HandleChatWebSocket handles GET /ws/sessions/{id}/chat.
// The transcript is sent on connect; each "send" streams events of the same
// shape as the SSE endpoint and ends with an "end" frame. Closing the socket,
// or an "abandon" frame, abandons the in-flight reply only when this
// connection sent it.
func (h *ChatWSHandler) HandleChatWebSocket(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Get(id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to get session")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsConn{conn: conn}
	var replies sync.WaitGroup

	h.logger.Debug().Str("session_id", id).Msg("Chat WebSocket connected")

	defer func() {
		client.closed.Store(true)
		if client.replying.Load() {
			session.Chat.Abandon()
		}
		replies.Wait()
		conn.Close()
		h.logger.Debug().Str("session_id", id).Msg("Chat WebSocket disconnected")
	}()

	if err := client.send(WSMessage{
		Type:    "transcript",
		Payload: wsTranscript{State: session.Chat.State(), Messages: session.Chat.Transcript()},
	}); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send transcript")
		return
	}

	for {
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}

		switch msg.Type {
		case "send":
			replies.Add(1)
			go func(text string) {
				defer replies.Done()
				h.streamReply(client, session.Chat, text)
			}(msg.Message)
		case "abandon":
			if client.replying.Load() {
				session.Chat.Abandon()
			}
		default:
			client.send(WSMessage{Type: "error", Payload: map[string]interface{}{
				"status": http.StatusBadRequest,
				"error":  "unknown message type: " + msg.Type,
			}})
		}
	}
}

func (h *ChatWSHandler) streamReply(client *wsConn, chat *chatbox.Session, text string) {
	started := false
	observer := func(event chatbox.Event) {
		switch event.Kind {
		case chatbox.EventUserMessage:
			started = true
			client.replying.Store(true)
			if client.closed.Load() {
				chat.Abandon()
			}
		case chatbox.EventDone, chatbox.EventApology, chatbox.EventAbandoned:
			client.replying.Store(false)
		}
		if err := client.send(WSMessage{Type: string(event.Kind), Payload: newChatEvent(event)}); err != nil {
			h.logger.Debug().Err(err).Msg("Failed to forward chat event")
		}
	}

	sendErr := chat.Send(context.Background(), text, observer)
	if started {
		client.replying.Store(false)
	}

	end := chatEnd{State: chat.State(), Status: http.StatusOK}
	if sendErr != nil {
		end.Status = StatusForError(sendErr)
		end.Error = sendErr.Error()
	}
	client.send(WSMessage{Type: "end", Payload: end})
}
