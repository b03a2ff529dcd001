package model

import "time"

// EventType tags a logged study event.
type EventType string

const (
	EventBlockComplete EventType = "block_complete"
	EventPrediction    EventType = "prediction"
	EventSubmission    EventType = "submission"
)

// Field is one named column of an event row.
type Field struct {
	Name  string
	Value any
}

// Event is a logged study event. The set of implementations is closed.
type Event interface {
	Type() EventType
	// Fields returns the event's columns in their export order.
	Fields() []Field
	event()
}

// BlockComplete marks the end of a block of trials.
type BlockComplete struct {
	Block     Mode
	Timestamp time.Time
}

// Prediction records an accepted suggestion.
type Prediction struct {
	Method    Mode
	Input     string
	Selected  string
	Phrase    string
	Trial     int
	Timestamp time.Time
}

// Submission records a committed transcription.
type Submission struct {
	Method    Mode
	Entered   string
	Target    string
	Trial     int
	TimeTaken time.Duration
}

func (BlockComplete) Type() EventType { return EventBlockComplete }
func (Prediction) Type() EventType    { return EventPrediction }
func (Submission) Type() EventType    { return EventSubmission }

func (BlockComplete) event() {}
func (Prediction) event()    {}
func (Submission) event()    {}

func (e BlockComplete) Fields() []Field {
	return []Field{
		{"type", string(e.Type())},
		{"block", string(e.Block)},
		{"timestamp", e.Timestamp.UnixMilli()},
	}
}

func (e Prediction) Fields() []Field {
	return []Field{
		{"type", string(e.Type())},
		{"method", string(e.Method)},
		{"input", e.Input},
		{"selected", e.Selected},
		{"phrase", e.Phrase},
		{"trial", e.Trial},
		{"timestamp", e.Timestamp.UnixMilli()},
	}
}

func (e Submission) Fields() []Field {
	return []Field{
		{"type", string(e.Type())},
		{"method", string(e.Method)},
		{"entered", e.Entered},
		{"target", e.Target},
		{"trial", e.Trial},
		{"timeTakenMs", e.TimeTaken.Milliseconds()},
	}
}
