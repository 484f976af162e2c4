package mock

import (
	"io"
	"sync"

	"github.com/fwojciec/botline"
)

// Interface compliance checks.
var (
	_ botline.Stream = (*Stream)(nil)
	_ botline.Stream = (*EventStream)(nil)
)

// Stream is a test double for botline.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. CloseFn and StateFn are nil-safe (no-op and zero
// value) because test code commonly calls defer stream.Close() and these
// methods rarely need custom behavior.
type Stream struct {
	NextFn  func() (botline.Event, error)
	StateFn func() botline.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (botline.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() botline.StreamState {
	if s.StateFn == nil {
		return botline.StreamStateNew
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// EventStream replays a fixed list of events and honours the Stream contract:
// io.EOF after the events run out, ErrStreamClosed after Close. When Block is
// set, Next waits on it before returning each event, which lets tests
// interleave Close with a pending Next. Construct with NewEventStream.
type EventStream struct {
	Events []botline.Event
	Block  chan struct{}

	mu     sync.Mutex
	pos    int
	closed chan struct{}
	once   sync.Once
}

// NewEventStream returns an EventStream over events.
func NewEventStream(events ...botline.Event) *EventStream {
	return &EventStream{Events: events, closed: make(chan struct{})}
}

// Next returns the next event.
func (s *EventStream) Next() (botline.Event, error) {
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-s.closed:
			return nil, botline.ErrStreamClosed
		}
	}
	select {
	case <-s.closed:
		return nil, botline.ErrStreamClosed
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.Events) {
		return nil, io.EOF
	}
	evt := s.Events[s.pos]
	s.pos++
	return evt, nil
}

// State reports streaming until the last event has been returned.
func (s *EventStream) State() botline.StreamState {
	select {
	case <-s.closed:
		return botline.StreamStateClosed
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.pos == 0:
		return botline.StreamStateNew
	case s.pos < len(s.Events):
		return botline.StreamStateStreaming
	}
	switch s.Events[len(s.Events)-1].(type) {
	case botline.EventError:
		return botline.StreamStateFailed
	default:
		return botline.StreamStateComplete
	}
}

// Close marks the stream closed. Safe to call more than once.
func (s *EventStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}
