package sessions

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
)

// blockingStreamer holds every reply open until its context ends
type blockingStreamer struct {
	started chan struct{}
}

func (b *blockingStreamer) StreamChat(ctx context.Context, history []models.ChatMessage, newMessage string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		b.started <- struct{}{}
		<-ctx.Done()
		yield("", ctx.Err())
	}
}

type stubGenerator struct{}

func (stubGenerator) GenerateImage(ctx context.Context, prompt string, resolution models.ImageResolution) (string, error) {
	return "data:image/png;base64,iVBORw0KGgo=", nil
}

type openGate struct{}

func (openGate) Check(ctx context.Context) bool  { return true }
func (openGate) Prompt(ctx context.Context) error { return nil }

func newTestRegistry(streamer *blockingStreamer) *Registry {
	logger := arbor.NewLogger()
	return NewRegistry(Factory{
		NewChat: func() *chatbox.Session {
			return chatbox.NewSession(streamer, chatbox.Config{Greeting: "Chào bạn!", Apology: "Xin lỗi"}, logger)
		},
		NewPanel: func() *illustrator.Panel {
			return illustrator.NewPanel(stubGenerator{}, openGate{}, illustrator.Config{}, logger)
		},
	}, logger)
}

func TestCreateGetDelete(t *testing.T) {
	r := newTestRegistry(&blockingStreamer{started: make(chan struct{}, 1)})

	session := r.Create()
	assert.Contains(t, session.ID, "sess_")
	assert.Equal(t, 1, r.Count())

	got, err := r.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	info := got.Info()
	assert.Equal(t, 1, info.Messages)
	assert.False(t, info.Busy)

	require.NoError(t, r.Delete(session.ID))
	_, err = r.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Delete(session.ID), ErrSessionNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	r := newTestRegistry(&blockingStreamer{started: make(chan struct{}, 1)})
	base := time.Now()

	r.now = func() time.Time { return base }
	older := r.Create()
	r.now = func() time.Time { return base.Add(time.Minute) }
	newer := r.Create()

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestSweepIdle_KeepsBusySessions(t *testing.T) {
	streamer := &blockingStreamer{started: make(chan struct{}, 1)}
	r := newTestRegistry(streamer)

	idle := r.Create()
	busy := r.Create()

	done := make(chan error, 1)
	go func() { done <- busy.Chat.Send(context.Background(), "Xin chào", nil) }()
	<-streamer.started

	r.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Zero(t, r.SweepIdle(0))

	swept := r.SweepIdle(30 * time.Minute)
	assert.Equal(t, 1, swept)

	_, err := r.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(busy.ID)
	require.NoError(t, err)

	require.NoError(t, r.Delete(busy.ID))
	assert.ErrorIs(t, <-done, chatbox.ErrAbandoned)
}
