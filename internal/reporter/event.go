package reporter

import (
	"fmt"
	"time"
)

// Kind tags the payload carried by an Event
type Kind int

const (
	KindLog Kind = iota
	KindPercent
	KindRange
	KindOutcome
)

func (k Kind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindPercent:
		return "percent"
	case KindRange:
		return "range"
	case KindOutcome:
		return "outcome"
	default:
		return "unknown"
	}
}

// RangeMode tells a presentation layer whether progress is measurable
type RangeMode int

const (
	RangeBounded RangeMode = iota
	RangeIndeterminate
)

func (r RangeMode) String() string {
	if r == RangeIndeterminate {
		return "indeterminate"
	}
	return "bounded"
}

// Event is a single progress notification. Only the field matching Kind is meaningful.
type Event struct {
	Kind    Kind
	Text    string    // KindLog
	Percent int       // KindPercent, 0-100
	Range   RangeMode // KindRange
	Success bool      // KindOutcome
	Time    time.Time
}

func (e Event) String() string {
	switch e.Kind {
	case KindLog:
		return fmt.Sprintf("log(%q)", e.Text)
	case KindPercent:
		return fmt.Sprintf("percent(%d)", e.Percent)
	case KindRange:
		return fmt.Sprintf("range(%s)", e.Range)
	case KindOutcome:
		return fmt.Sprintf("outcome(%t)", e.Success)
	default:
		return "event(?)"
	}
}

// Sink receives events. Emit must not block for long: it runs on the exchange goroutine.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event
var Discard Sink = SinkFunc(func(Event) {})
