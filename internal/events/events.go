// Package events provides a small in-process publish/subscribe bus used to
// stream system events (import progress, rate refreshes, backups) to the
// HTTP event stream.
package events

import (
	"sync"
	"time"
)

// EventType identifies a class of event.
type EventType string

const (
	ImportStarted   EventType = "import.started"
	ImportProgress  EventType = "import.progress"
	ImportCompleted EventType = "import.completed"
	RatesRefreshed  EventType = "rates.refreshed"
	BackupCompleted EventType = "backup.completed"
)

// Event is one published occurrence.
type Event struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ImportProgressData carries progress for a running import.
type ImportProgressData struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// ImportCompletedData summarizes a finished import run.
type ImportCompletedData struct {
	RunID      string `json:"run_id"`
	Candidates int    `json:"candidates"`
	Suppressed int    `json:"suppressed"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
	Duplicates int    `json:"duplicates"`
}

// RatesRefreshedData summarizes a completed rate refresh.
type RatesRefreshedData struct {
	Base     string `json:"base"`
	Rates    int    `json:"rates"`
	Attempts int    `json:"attempts"`
}

// Bus fans events out to subscribers. Slow subscribers drop events rather
// than block publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan Event)}
}

// Subscribe registers a buffered subscriber channel. The returned cancel
// function removes the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers.
func (b *Bus) Publish(eventType EventType, source string, data any) {
	event := Event{
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full, drop.
		}
	}
}
