package crossing

import (
	"iter"
	"sync"
	"time"
)

// TimestampLayout is the layout used when events are written out.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// CrossingEvent is one counted crossing.
type CrossingEvent struct {
	TrackID   int       `json:"track_id"`
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
}

// FormatTimestamp renders the event time with microsecond precision.
func (e CrossingEvent) FormatTimestamp() string {
	return e.Timestamp.Format(TimestampLayout)
}

// EventLog is an append-only, insertion ordered list of crossing events.
// It performs no deduplication. It is safe for concurrent use.
type EventLog struct {
	mu     sync.RWMutex
	events []CrossingEvent
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append adds an event at the end of the log.
func (l *EventLog) Append(e CrossingEvent) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// Len returns the number of events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Events returns a copy of the events in insertion order.
func (l *EventLog) Events() []CrossingEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]CrossingEvent, len(l.events))
	copy(out, l.events)
	return out
}

// All iterates over a snapshot of the events in insertion order.
func (l *EventLog) All() iter.Seq[CrossingEvent] {
	events := l.Events()
	return func(yield func(CrossingEvent) bool) {
		for _, e := range events {
			if !yield(e) {
				return
			}
		}
	}
}

// CountOf returns the number of events with the given direction.
func (l *EventLog) CountOf(d Direction) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.events {
		if e.Direction == d {
			n++
		}
	}
	return n
}
