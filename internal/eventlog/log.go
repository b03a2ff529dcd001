// Package eventlog records study events and encodes them for export.
package eventlog

import "github.com/verte-zerg/entrystudy/internal/model"

// Log is an append-only, insertion-ordered event record.
type Log struct {
	events []model.Event
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append adds e at the end of the log.
func (l *Log) Append(e model.Event) {
	l.events = append(l.events, e)
}

// Events returns the logged events in append order.
func (l *Log) Events() []model.Event {
	out := make([]model.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len is the number of logged events.
func (l *Log) Len() int {
	return len(l.events)
}

// Count returns how many events of type t were logged.
func (l *Log) Count(t model.EventType) int {
	n := 0
	for _, e := range l.events {
		if e.Type() == t {
			n++
		}
	}
	return n
}
