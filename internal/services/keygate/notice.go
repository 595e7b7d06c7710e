package keygate

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// Notice is the last message shown through a NoticeBoard
type Notice struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// NoticeBoard logs notices and keeps the most recent one for the key endpoint
type NoticeBoard struct {
	logger arbor.ILogger

	mu   sync.RWMutex
	last *Notice
}

var _ Noticer = (*NoticeBoard)(nil)

// NewNoticeBoard creates an empty notice board
func NewNoticeBoard(logger arbor.ILogger) *NoticeBoard {
	return &NoticeBoard{logger: logger}
}

// Notice records and logs message
func (b *NoticeBoard) Notice(ctx context.Context, message string) {
	b.mu.Lock()
	b.last = &Notice{Message: message, Time: time.Now()}
	b.mu.Unlock()

	b.logger.Warn().Str("notice", message).Msg("User notice")
}

// Last returns the most recent notice, or nil
func (b *NoticeBoard) Last() *Notice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return nil
	}
	notice := *b.last
	return &notice
}
