package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
)

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "" && current.name != "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	return events
}

func eventNames(events []sseEvent) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.name
	}
	return names
}

func TestChatHandler_StreamsReply(t *testing.T) {
	store := newTestStore(&scriptedStreamer{chunks: []string{"Chào", "", " bạn!"}}, &fakeGenerator{})
	session := store.Create()
	handler := NewChatHandler(store, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/chat", strings.NewReader(`{"message":"Xin chào"}`))
	rec := httptest.NewRecorder()

	handler.SendHandler(rec, req, session.ID)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	events := parseSSE(t, rec.Body.String())
	assert.Equal(t, []string{"user_message", "reply_started", "fragment", "fragment", "done", "end"}, eventNames(events))

	var done chatEvent
	require.NoError(t, json.Unmarshal([]byte(events[4].data), &done))
	assert.Equal(t, "Chào bạn!", done.Message.Content)

	var end chatEnd
	require.NoError(t, json.Unmarshal([]byte(events[5].data), &end))
	assert.Equal(t, http.StatusOK, end.Status)
	assert.Equal(t, "idle", string(end.State))

	transcript := session.Chat.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, "Chào bạn!", transcript[2].Content)
}

func TestChatHandler_StreamFailureEndsWithApology(t *testing.T) {
	store := newTestStore(&scriptedStreamer{chunks: []string{"Một"}, err: errors.New("stream broke")}, &fakeGenerator{})
	session := store.Create()
	handler := NewChatHandler(store, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"Xin chào"}`))
	rec := httptest.NewRecorder()
	handler.SendHandler(rec, req, session.ID)

	events := parseSSE(t, rec.Body.String())
	assert.Equal(t, []string{"user_message", "reply_started", "fragment", "apology", "end"}, eventNames(events))

	var end chatEnd
	require.NoError(t, json.Unmarshal([]byte(events[4].data), &end))
	assert.Equal(t, http.StatusInternalServerError, end.Status)
	assert.Equal(t, "stream broke", end.Error)
	assert.Equal(t, "failed", string(end.State))
}

func TestChatHandler_Rejections(t *testing.T) {
	store := newTestStore(&scriptedStreamer{}, &fakeGenerator{})
	session := store.Create()
	handler := NewChatHandler(store, arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.SendHandler(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"  "}`)), session.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, session.Chat.Transcript(), 1)

	rec = httptest.NewRecorder()
	handler.SendHandler(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hi"}`)), "sess_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.AbandonHandler(rec, httptest.NewRequest(http.MethodDelete, "/", nil), session.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"abandoned":false}`, rec.Body.String())
}

func TestChatHandler_BusySessionGetsPlainConflict(t *testing.T) {
	streamer := &heldStreamer{chunks: []string{"Đang trả lời"}, release: make(chan struct{})}
	store := newTestStore(streamer, &fakeGenerator{})
	session := store.Create()
	handler := NewChatHandler(store, arbor.NewLogger())

	first := make(chan error, 1)
	go func() { first <- session.Chat.Send(context.Background(), "câu đầu", nil) }()
	require.Eventually(t, session.Chat.Sending, time.Second, time.Millisecond)

	rec := httptest.NewRecorder()
	handler.SendHandler(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"câu hai"}`)), session.ID)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEqual(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Empty(t, parseSSE(t, rec.Body.String()))
	assert.True(t, session.Chat.Sending())

	close(streamer.release)
	require.NoError(t, <-first)
	assert.Equal(t, "Đang trả lời", session.Chat.Transcript()[2].Content)
}

func TestChatHandler_DisconnectAbandonsOwnReply(t *testing.T) {
	streamer := &heldStreamer{chunks: []string{"x"}, release: make(chan struct{})}
	store := newTestStore(streamer, &fakeGenerator{})
	session := store.Create()
	handler := NewChatHandler(store, arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hỏi"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.SendHandler(rec, req, session.ID)
	}()

	require.Eventually(t, func() bool { return session.Chat.State() == chatbox.StateStreaming }, time.Second, time.Millisecond)
	cancel()
	<-done

	events := parseSSE(t, rec.Body.String())
	assert.Equal(t, []string{"user_message", "reply_started", "abandoned", "end"}, eventNames(events))
	assert.Equal(t, chatbox.StateIdle, session.Chat.State())
}
