package events

import "sync"

// Log is the in-memory append-only audit log. Events are never removed or
// reordered; readers get snapshot copies of the slice.
type Log struct {
	mu     sync.RWMutex
	events []Event
}

func NewLog() *Log {
	return &Log{}
}

// Record appends one event. Implements Recorder.
func (l *Log) Record(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// All returns every event in emission order.
func (l *Log) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByKind returns every event whose Kind matches, in emission order.
func (l *Log) ByKind(kind string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
