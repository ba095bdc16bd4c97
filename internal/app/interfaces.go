package app

import "cmlsync/internal/reporter"

// Presenter renders a run's events until the stream is closed and reports
// whether the run ended successfully
type Presenter interface {
	Consume(events <-chan reporter.Event) bool
}
