package reporter

import "sync"

// Stream is an order-preserving, unbounded event queue. Emit never blocks on
// the consumer. The dispatcher goroutine that feeds Events() is started by
// the first call to Events(), so a stream nobody reads holds no goroutine and
// is reclaimed with its queue.
type Stream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	out    chan Event
	start  sync.Once
}

// NewStream creates an empty stream
func NewStream() *Stream {
	s := &Stream{out: make(chan Event)}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Emit queues an event. Events emitted after Close are dropped.
func (s *Stream) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, e)
	s.cond.Signal()
}

// Events returns the channel the events are delivered on. It is closed once
// Close has been called and every queued event has been delivered. Events
// queued before the first call are not lost. Once called, the channel must
// be drained to the end.
func (s *Stream) Events() <-chan Event {
	s.start.Do(func() { go s.dispatch() })
	return s.out
}

// Close stops accepting events; already queued events are still delivered
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Signal()
}

func (s *Stream) dispatch() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, e := range batch {
			s.out <- e
		}
	}
}
