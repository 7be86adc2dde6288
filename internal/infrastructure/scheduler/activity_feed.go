package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind categorizes scheduler activity events
type EventKind string

const (
	EventKindTick        EventKind = "TICK"
	EventKindRunStarted  EventKind = "RUN_STARTED"
	EventKindRunFinished EventKind = "RUN_FINISHED"
	EventKindRunFailed   EventKind = "RUN_FAILED"
	EventKindRunSkipped  EventKind = "RUN_SKIPPED"
)

// Event is one scheduler activity entry
type Event struct {
	Time    time.Time `json:"time"`
	StoreID uuid.UUID `json:"store_id,omitempty"`
	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`
}

// ActivityFeed is a bounded in-memory ring of recent scheduler activity.
// When full, the oldest entry is dropped. Safe for concurrent use.
type ActivityFeed struct {
	mu     sync.Mutex
	events []Event
	size   int
	next   int
	count  int
}

// NewActivityFeed creates a feed holding at most size events
func NewActivityFeed(size int) *ActivityFeed {
	if size < 1 {
		size = 1
	}
	return &ActivityFeed{
		events: make([]Event, size),
		size:   size,
	}
}

// Record appends an event, dropping the oldest when the ring is full
func (f *ActivityFeed) Record(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[f.next] = event
	f.next = (f.next + 1) % f.size
	if f.count < f.size {
		f.count++
	}
}

// Recent returns the stored events, newest first
func (f *ActivityFeed) Recent() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Event, f.count)
	for i := 0; i < f.count; i++ {
		idx := (f.next - 1 - i + f.size) % f.size
		out[i] = f.events[idx]
	}
	return out
}

// Len returns the number of stored events
func (f *ActivityFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}
