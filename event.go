package botline

// Event is a sealed interface representing one parsed frame of a reply stream.
// The unexported marker method prevents external implementations.
//
// A stream yields zero or more EventPlain values followed by exactly one
// terminal event: EventEnd or EventError.
type Event interface {
	event()
}

// EventPlain carries a fragment of the reply to append to the message.
type EventPlain struct {
	Text string
}

func (EventPlain) event() {}

// EventEnd signals normal completion, either from an explicit end frame or
// because the server closed the response.
type EventEnd struct{}

func (EventEnd) event() {}

// EventError signals abnormal termination with a human-readable message.
type EventError struct {
	Message string
}

func (EventError) event() {}

// Error implements error so a terminal EventError can be returned directly.
func (e EventError) Error() string { return e.Message }

// IsTerminal reports whether evt ends the stream.
func IsTerminal(evt Event) bool {
	switch evt.(type) {
	case EventEnd, EventError:
		return true
	default:
		return false
	}
}

// Interface compliance checks.
var (
	_ Event = EventPlain{}
	_ Event = EventEnd{}
	_ Event = EventError{}
	_ error = EventError{}
)
