package chatbox

import "github.com/ternarybob/vipaii/internal/models"

// EventKind identifies a transcript change
type EventKind string

const (
	EventUserMessage  EventKind = "user_message"
	EventReplyStarted EventKind = "reply_started"
	EventFragment     EventKind = "fragment"
	EventDone         EventKind = "done"
	EventApology      EventKind = "apology"
	EventAbandoned    EventKind = "abandoned"
)

// Event describes one transcript change. Message is a snapshot of the
// affected transcript entry at Index; Fragment is set for EventFragment.
type Event struct {
	Kind     EventKind          `json:"kind"`
	Index    int                `json:"index"`
	Message  models.ChatMessage `json:"message"`
	Fragment string             `json:"fragment,omitempty"`
	Err      error              `json:"-"`
}

// Observer receives transcript changes in order, on the sending goroutine
type Observer func(Event)

func notify(observer Observer, event Event) {
	if observer != nil {
		observer(event)
	}
}
