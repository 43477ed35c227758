package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// messageLimit bounds the in-memory feed. Older entries fall off the end.
const messageLimit = 100

// Message is one human-readable event in the activity feed.
type Message struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
	Kind string    `json:"kind"`
	Text string    `json:"text"`
}

// MessageLog is a fixed-capacity feed of recent events, newest first.
// Safe for concurrent use.
type MessageLog struct {
	mu       sync.Mutex
	messages []Message
	now      func() time.Time
}

func NewMessageLog() *MessageLog {
	return &MessageLog{now: time.Now}
}

// AddEvent prepends a message of the given kind and returns its assigned id.
func (l *MessageLog) AddEvent(kind, text string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := Message{ID: uuid.NewString(), Time: l.now().UTC(), Kind: kind, Text: text}
	l.messages = append([]Message{msg}, l.messages...)
	if len(l.messages) > messageLimit {
		l.messages = l.messages[:messageLimit]
	}
	return msg.ID
}

// Add records an informational message.
func (l *MessageLog) Add(text string) string {
	return l.AddEvent("info", text)
}

func (l *MessageLog) Addf(format string, args ...any) string {
	return l.Add(fmt.Sprintf(format, args...))
}

// Recent returns up to n messages, newest first. n <= 0 returns all.
func (l *MessageLog) Recent(n int) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.messages) {
		n = len(l.messages)
	}
	out := make([]Message, n)
	copy(out, l.messages[:n])
	return out
}
