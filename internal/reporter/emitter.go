package reporter

import (
	"fmt"
	"time"
)

// Emitter stamps and forwards typed events to a Sink
type Emitter struct {
	sink Sink
	now  func() time.Time
}

// NewEmitter creates an emitter writing to sink; a nil sink discards events
func NewEmitter(sink Sink) *Emitter {
	if sink == nil {
		sink = Discard
	}
	return &Emitter{sink: sink, now: time.Now}
}

func (e *Emitter) emit(ev Event) {
	ev.Time = e.now()
	e.sink.Emit(ev)
}

// Log emits a free-text log line
func (e *Emitter) Log(text string) {
	e.emit(Event{Kind: KindLog, Text: text})
}

// Logf emits a formatted log line
func (e *Emitter) Logf(format string, args ...any) {
	e.Log(fmt.Sprintf(format, args...))
}

// Percent emits a percentage, clamped to 0-100
func (e *Emitter) Percent(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	e.emit(Event{Kind: KindPercent, Percent: p})
}

// Range switches the presentation between bounded and indeterminate progress
func (e *Emitter) Range(mode RangeMode) {
	e.emit(Event{Kind: KindRange, Range: mode})
}

// Outcome emits the terminal result of a run
func (e *Emitter) Outcome(success bool) {
	e.emit(Event{Kind: KindOutcome, Success: success})
}
