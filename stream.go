package botline

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Connected, receiving frames.
	StreamStateComplete                     // EventEnd was returned.
	StreamStateFailed                       // EventError was returned.
	StreamStateClosed                       // Close() called before a terminal event.
)

// String returns the lowercase name of the state.
func (s StreamState) String() string {
	switch s {
	case StreamStateNew:
		return "new"
	case StreamStateStreaming:
		return "streaming"
	case StreamStateComplete:
		return "complete"
	case StreamStateFailed:
		return "failed"
	case StreamStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream is a pull-based iterator over the events of a single reply.
//
// Next returns EventPlain values in arrival order, then exactly one terminal
// event (EventEnd or EventError), then io.EOF on every later call. Transport
// failures never surface as a Go error; they are reduced to EventError.
//
// Close cancels the stream. It is idempotent and may be called from another
// goroutine while Next is blocked. Once Close has been called, Next returns
// ErrStreamClosed and no further events, terminal ones included. Close after
// a terminal event only releases resources; State keeps the terminal value.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}
