package events

import (
	"sync"
	"time"

	"upload-ai/internal/domain"
)

// Type classifies messages emitted while a submission runs.
type Type string

const (
	TypeStatus   Type = "status"
	TypeProgress Type = "progress"
	TypeLog      Type = "log"
	TypeResult   Type = "result"
	TypeError    Type = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq       int64                   `json:"seq"`
	Timestamp time.Time               `json:"timestamp"`
	AttemptID uint64                  `json:"attemptId"`
	Type      Type                    `json:"type"`
	Status    domain.SubmissionStatus `json:"status,omitempty"`
	Progress  float64                 `json:"progress,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Failure   *domain.Failure         `json:"failure,omitempty"`
	VideoID   string                  `json:"videoId,omitempty"`
	Command   string                  `json:"command,omitempty"`
	Args      []string                `json:"args,omitempty"`
	ExitCode  int                     `json:"exitCode,omitempty"`
	Stderr    string                  `json:"stderr,omitempty"`
}

// Publisher accepts events for fan-out.
type Publisher interface {
	Publish(event Event) Event
}

// Bus stores recent events, provides incremental reads and forwards
// every event to registered listeners.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	listeners []func(Event)
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Listen registers fn to be called after each publish, outside the lock.
func (b *Bus) Listen(fn func(Event)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Publish appends one event and assigns sequence and timestamp.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	listeners := append([]func(Event){}, b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
