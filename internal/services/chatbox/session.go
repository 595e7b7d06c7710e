package chatbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
)

var (
	// ErrEmptyMessage is returned for empty or whitespace-only input; nothing changes
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned when a message is already being sent; nothing changes
	ErrBusy = errors.New("a message is already being sent")

	// ErrAbandoned is returned when the in-flight reply was abandoned by the user
	ErrAbandoned = errors.New("reply abandoned")
)

// State is the lifecycle state of a chat session
type State string

const (
	StateIdle      State = "idle"
	StateSending   State = "sending"
	StateStreaming State = "streaming"
	StateFailed    State = "failed" // reported until the next send
)

// Config holds the canned messages of the assistant
type Config struct {
	Greeting string
	Apology  string
}

// Session drives one chat widget: it owns the transcript and allows a single
// reply in flight. The last transcript entry grows while a reply streams; it
// is only mutated under the session lock and readers get copies.
type Session struct {
	streamer interfaces.ChatStreamer
	config   Config
	logger   arbor.ILogger

	mu         sync.Mutex
	transcript []models.ChatMessage
	state      State
	sending    bool
	cancel     context.CancelFunc
	abandoned  bool
	updatedAt  time.Time
}

// NewSession creates a session seeded with the greeting
func NewSession(streamer interfaces.ChatStreamer, config Config, logger arbor.ILogger) *Session {
	return &Session{
		streamer:   streamer,
		config:     config,
		logger:     logger,
		transcript: []models.ChatMessage{{Role: models.ChatRoleModel, Content: config.Greeting}},
		state:      StateIdle,
		updatedAt:  time.Now(),
	}
}

// Send appends input as a user message and streams the reply into a new model
// message, notifying observer as the transcript changes. observer may be nil.
//
// On a stream failure the partial reply stays and one apology message is
// appended; the stream error is returned. An abandoned reply keeps its partial
// content, gets no apology and returns ErrAbandoned. The sending flag is
// cleared on every path.
func (s *Session) Send(ctx context.Context, input string, observer Observer) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrBusy
	}

	// The provider history is the transcript as it stood before this message
	history := copyMessages(s.transcript)

	s.sending = true
	s.abandoned = false
	s.state = StateSending
	s.transcript = append(s.transcript, models.ChatMessage{Role: models.ChatRoleUser, Content: input})
	userIndex := len(s.transcript) - 1
	userMessage := s.transcript[userIndex]

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.touch()
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.sending = false
		s.cancel = nil
		if s.state != StateFailed {
			s.state = StateIdle
		}
		s.touch()
		s.mu.Unlock()
	}()

	notify(observer, Event{Kind: EventUserMessage, Index: userIndex, Message: userMessage})

	s.mu.Lock()
	s.transcript = append(s.transcript, models.ChatMessage{Role: models.ChatRoleModel})
	replyIndex := len(s.transcript) - 1
	s.state = StateStreaming
	s.mu.Unlock()

	notify(observer, Event{Kind: EventReplyStarted, Index: replyIndex, Message: models.ChatMessage{Role: models.ChatRoleModel}})

	startTime := time.Now()
	var reply strings.Builder
	var streamErr error

	for fragment, err := range s.streamer.StreamChat(streamCtx, history, input) {
		if err != nil {
			streamErr = err
			break
		}
		if fragment == "" {
			continue
		}

		reply.WriteString(fragment)

		s.mu.Lock()
		s.transcript[replyIndex].Content = reply.String()
		snapshot := s.transcript[replyIndex]
		s.mu.Unlock()

		notify(observer, Event{Kind: EventFragment, Index: replyIndex, Fragment: fragment, Message: snapshot})
	}

	// An abandon that lands after the stream finished cleanly changes nothing
	s.mu.Lock()
	abandoned := s.abandoned && streamErr != nil
	if streamErr != nil && !abandoned {
		s.state = StateFailed
		s.transcript = append(s.transcript, models.ChatMessage{Role: models.ChatRoleModel, Content: s.config.Apology})
	}
	apologyIndex := len(s.transcript) - 1
	final := s.transcript[replyIndex]
	s.mu.Unlock()

	switch {
	case abandoned:
		s.logger.Info().
			Int("reply_length", reply.Len()).
			Dur("duration", time.Since(startTime)).
			Msg("Chat reply abandoned")
		notify(observer, Event{Kind: EventAbandoned, Index: replyIndex, Message: final})
		return ErrAbandoned

	case streamErr != nil:
		s.logger.Error().
			Err(streamErr).
			Int("reply_length", reply.Len()).
			Dur("duration", time.Since(startTime)).
			Msg("Chat reply failed")
		notify(observer, Event{Kind: EventApology, Index: apologyIndex, Message: models.ChatMessage{Role: models.ChatRoleModel, Content: s.config.Apology}, Err: streamErr})
		return streamErr
	}

	s.logger.Debug().
		Int("reply_length", reply.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Chat reply completed")
	notify(observer, Event{Kind: EventDone, Index: replyIndex, Message: final})
	return nil
}

// Abandon cancels the in-flight reply, if any, and reports whether one was running
func (s *Session) Abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sending || s.cancel == nil {
		return false
	}
	s.abandoned = true
	s.cancel()
	return true
}

// Transcript returns a copy of the transcript
func (s *Session) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMessages(s.transcript)
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sending reports whether a reply is in flight
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// UpdatedAt returns the time of the last transcript change
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// touch must be called with s.mu held
func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func copyMessages(messages []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(messages))
	copy(out, messages)
	return out
}
