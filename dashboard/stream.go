package dashboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/botline"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Interface compliance check.
var _ botline.Stream = (*stream)(nil)

// SendMessage posts a chat message and returns a [botline.Stream] over the
// reply. The request is issued on the first call to Next, so SendMessage
// itself never blocks on the network. The caller must Close the stream.
func (c *Client) SendMessage(ctx context.Context, req botline.SendMessageRequest) (botline.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	req.EnableStreaming = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	id := c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	s := &stream{
		ctx:        ctx,
		cancel:     cancel,
		req:        httpReq,
		httpClient: c.httpClient,
		logger: c.logger.With(
			zap.String("request_id", id),
			zap.String("session_id", req.SessionID),
		),
	}
	s.state.Store(int32(botline.StreamStateNew))
	return s, nil
}

// stream implements [botline.Stream] over the body of a /chat/send response.
//
// Next is driven by a single goroutine; Close may run concurrently with it.
// The state field is the only thing both touch besides the body, and every
// transition out of New or Streaming goes through a compare-and-swap, so
// exactly one of "terminal event" and "closed" wins.
type stream struct {
	ctx        context.Context
	cancel     context.CancelFunc
	req        *http.Request
	httpClient *http.Client
	logger     *zap.Logger

	state  atomic.Int32
	closed atomic.Bool

	mu   sync.Mutex // guards body
	body io.ReadCloser

	reader  *bufio.Reader
	dropped int // malformed frames skipped
}

// Next reads until the next semantic event.
func (s *stream) Next() (botline.Event, error) {
	if s.closed.Load() {
		return nil, botline.ErrStreamClosed
	}
	switch s.State() {
	case botline.StreamStateComplete, botline.StreamStateFailed:
		return nil, io.EOF
	case botline.StreamStateNew:
		evt, err := s.connect()
		if err != nil {
			return nil, err
		}
		if evt != nil {
			return s.finish(evt)
		}
	}

	for {
		line, err := s.reader.ReadString('\n')
		if s.cancelled() {
			return nil, s.abort()
		}
		switch {
		case err == io.EOF:
			// A trailing segment without its newline is never a frame.
			return s.finish(botline.EventEnd{})
		case err != nil:
			return s.finish(botline.EventError{Message: fmt.Sprintf("stream read failed: %v", err)})
		}

		evt := s.parseLine(line)
		if evt == nil {
			continue
		}
		if botline.IsTerminal(evt) {
			return s.finish(evt)
		}
		return evt, nil
	}
}

// State returns the current stream state.
func (s *stream) State() botline.StreamState {
	return botline.StreamState(s.state.Load())
}

// Close cancels the request and releases the response body.
func (s *stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.transition(botline.StreamStateClosed) {
		s.logger.Debug("stream cancelled", zap.Int("dropped_frames", s.droppedFrames()))
	}
	s.release()
	return nil
}

// connect issues the request. It returns a terminal event when the response
// cannot be streamed, or ErrStreamClosed when the stream was cancelled.
func (s *stream) connect() (botline.Event, error) {
	resp, err := s.httpClient.Do(s.req)
	if err != nil {
		if s.cancelled() {
			return nil, s.abort()
		}
		return botline.EventError{Message: fmt.Sprintf("request failed: %v", err)}, nil
	}
	s.mu.Lock()
	s.body = resp.Body
	s.mu.Unlock()
	s.logger.Debug("stream opened", zap.Int("status", resp.StatusCode))

	if s.cancelled() {
		return nil, s.abort()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return botline.EventError{Message: fmt.Sprintf("HTTP error: status %d", resp.StatusCode)}, nil
	}
	// http.NoBody is an empty stream, not a missing one.
	if resp.Body == nil {
		return botline.EventError{Message: "response body is empty"}, nil
	}
	if !s.transition(botline.StreamStateStreaming) {
		return nil, s.abort()
	}

	// The decoder strips a leading BOM and replaces ill-formed bytes with
	// U+FFFD; it holds back a sequence split across reads until it is whole.
	decoded := transform.NewReader(resp.Body, unicode.UTF8BOM.NewDecoder())
	s.reader = bufio.NewReader(decoded)
	return nil, nil
}

// parseLine turns one complete line into an event, or nil when the line is
// not a frame, is malformed, or carries nothing to deliver.
func (s *stream) parseLine(line string) botline.Event {
	data, ok := strings.CutPrefix(strings.TrimSpace(line), framePrefix)
	if !ok {
		return nil
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return nil
	}

	var f sseFrame
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.logger.Debug("dropped malformed frame", zap.String("frame", data), zap.Error(err))
		return nil
	}

	switch f.Type {
	case "plain":
		if f.Text == "" {
			return nil
		}
		return botline.EventPlain{Text: f.Text}
	case "end":
		return botline.EventEnd{}
	case "error":
		msg := f.Error
		if msg == "" {
			msg = unknownError
		}
		return botline.EventError{Message: msg}
	default:
		return nil
	}
}

// finish moves the stream to its terminal state and returns evt, unless Close
// got there first.
func (s *stream) finish(evt botline.Event) (botline.Event, error) {
	to := botline.StreamStateComplete
	if _, ok := evt.(botline.EventError); ok {
		to = botline.StreamStateFailed
	}
	if !s.transition(to) {
		return nil, s.abort()
	}
	s.release()

	fields := []zap.Field{zap.Stringer("state", to), zap.Int("dropped_frames", s.droppedFrames())}
	if e, ok := evt.(botline.EventError); ok {
		fields = append(fields, zap.String("error", e.Message))
	}
	s.logger.Debug("stream finished", fields...)
	return evt, nil
}

// abort handles an observed cancellation.
func (s *stream) abort() error {
	s.transition(botline.StreamStateClosed)
	s.release()
	return botline.ErrStreamClosed
}

// transition moves from New or Streaming to to. It reports false when the
// stream already left those states.
func (s *stream) transition(to botline.StreamState) bool {
	for {
		cur := botline.StreamState(s.state.Load())
		if cur != botline.StreamStateNew && cur != botline.StreamStateStreaming {
			return false
		}
		if s.state.CompareAndSwap(int32(cur), int32(to)) {
			return true
		}
	}
}

func (s *stream) cancelled() bool {
	return s.closed.Load() || s.ctx.Err() != nil
}

func (s *stream) release() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.body != nil {
		s.body.Close()
	}
}

func (s *stream) droppedFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
