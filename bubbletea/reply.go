package bubbletea

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/botline"
)

// reply relays the callbacks of one streamed reply to the Bubble Tea loop.
// Events are handed over on an unbuffered channel that is closed once
// dispatch has finished.
type reply struct {
	handle *botline.Handle
	events chan botline.Event
	stop   chan struct{}
	once   sync.Once
}

func startReply(s botline.Stream) *reply {
	r := &reply{
		events: make(chan botline.Event),
		stop:   make(chan struct{}),
	}
	r.handle = botline.Open(s, botline.Handler{
		OnPlain:    func(text string) { r.send(botline.EventPlain{Text: text}) },
		OnError:    func(message string) { r.send(botline.EventError{Message: message}) },
		OnComplete: func() { r.send(botline.EventEnd{}) },
	})
	go func() {
		<-r.handle.Done()
		close(r.events)
	}()
	return r
}

// send blocks until the model takes the event or the reply is cancelled.
func (r *reply) send(evt botline.Event) {
	select {
	case r.events <- evt:
	case <-r.stop:
	}
}

func (r *reply) cancel() {
	r.once.Do(func() {
		r.handle.Cancel()
		close(r.stop)
	})
}

// listen waits for the next event, or reports StreamDoneMsg once the
// channel is closed.
func (r *reply) listen() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-r.events
		if !ok {
			return StreamDoneMsg{}
		}
		return StreamEventMsg{Event: evt}
	}
}
