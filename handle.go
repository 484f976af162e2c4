package botline

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// Handler receives the events of a stream dispatched by Open. Nil fields are
// skipped. Exactly one of OnError and OnComplete is called, at most once,
// unless the stream is cancelled first, in which case neither is.
type Handler struct {
	OnPlain    func(text string)
	OnError    func(message string)
	OnComplete func()
}

// Handle is the capability to cancel a stream started with Open.
type Handle struct {
	stream    Stream
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
}

// Open starts dispatching the events of s to h on a new goroutine and returns
// immediately. The stream is closed when dispatch finishes.
func Open(s Stream, h Handler) *Handle {
	hd := &Handle{stream: s, done: make(chan struct{})}
	go hd.dispatch(h)
	return hd
}

// Cancel stops the stream. Callbacks are suppressed from the next event on,
// but one that already passed the cancellation check may still run once,
// possibly after Cancel has returned; consumers that must drop it check
// Cancelled. Cancel is idempotent, a no-op after the stream has completed,
// and may be called from inside a callback.
func (hd *Handle) Cancel() {
	hd.once.Do(func() {
		hd.cancelled.Store(true)
		_ = hd.stream.Close()
	})
}

// Cancelled reports whether Cancel has been called.
func (hd *Handle) Cancelled() bool {
	return hd.cancelled.Load()
}

// Done returns a channel that is closed when dispatch has finished, either
// after the terminal callback or after cancellation was observed.
func (hd *Handle) Done() <-chan struct{} {
	return hd.done
}

// Wait blocks until dispatch has finished.
func (hd *Handle) Wait() {
	<-hd.done
}

func (hd *Handle) dispatch(h Handler) {
	defer close(hd.done)
	defer hd.stream.Close()

	for {
		evt, err := hd.stream.Next()
		if hd.cancelled.Load() {
			return
		}
		switch {
		case errors.Is(err, ErrStreamClosed):
			return
		case err == io.EOF:
			// Terminal events return below, so EOF here means the stream
			// ended without one.
			if h.OnComplete != nil {
				h.OnComplete()
			}
			return
		case err != nil:
			if h.OnError != nil {
				h.OnError(err.Error())
			}
			return
		}

		switch e := evt.(type) {
		case EventPlain:
			if h.OnPlain != nil {
				h.OnPlain(e.Text)
			}
		case EventEnd:
			if h.OnComplete != nil {
				h.OnComplete()
			}
			return
		case EventError:
			if h.OnError != nil {
				h.OnError(e.Message)
			}
			return
		}
	}
}
