package exchange

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cmlsync/internal/reporter"
)

// Run is a handle on an exchange executing in its own goroutine
type Run struct {
	id     string
	stream *reporter.Stream
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Start launches an exchange and returns immediately. Events are delivered in
// emission order on Events(), which is closed after the outcome event.
func (e *Engine) Start(ctx context.Context, conn Conn, req Request) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		id:     uuid.NewString(),
		stream: reporter.NewStream(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		defer r.stream.Close()
		defer cancel()
		r.result = e.execute(runCtx, r.id, conn, req, r.stream)
	}()

	return r
}

// ID returns the run identifier, also attached to every log record of the run
func (r *Run) ID() string {
	return r.id
}

// Events returns the run's event stream. Reading it is optional; a caller
// that only waits for the result leaves nothing running once the run ends.
// Once called, the channel must be drained until it is closed.
func (r *Run) Events() <-chan reporter.Event {
	return r.stream.Events()
}

// Cancel asks the run to stop at its next checkpoint. It is safe to call at
// any time and more than once.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed when the run has reached a terminal state
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its result
func (r *Run) Wait() Result {
	<-r.done
	return r.result
}

// WaitTimeout waits at most d; ok is false if the run is still going
func (r *Run) WaitTimeout(d time.Duration) (res Result, ok bool) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-r.done:
		return r.result, true
	case <-t.C:
		return Result{}, false
	}
}
