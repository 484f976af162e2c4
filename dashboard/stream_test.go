package dashboard_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/botline"
	"github.com/fwojciec/botline/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendRequest() botline.SendMessageRequest {
	return botline.SendMessageRequest{Message: "Hi", SessionID: "sess-1"}
}

func openStream(t *testing.T, h http.Handler) botline.Stream {
	t.Helper()
	client := newClient(t, h, loggedIn())
	s, err := client.SendMessage(context.Background(), sendRequest())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// collectEvents drains s up to and including its terminal event and checks
// that io.EOF follows.
func collectEvents(t *testing.T, s botline.Stream) []botline.Event {
	t.Helper()
	var events []botline.Event
	for {
		evt, err := s.Next()
		require.NoError(t, err)
		events = append(events, evt)
		if botline.IsTerminal(evt) {
			break
		}
	}
	_, err := s.Next()
	require.Equal(t, io.EOF, err)
	return events
}

func TestStream_PlainThenEnd(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(
		`data: {"type":"plain","text":"Hel"}`,
		`data: {"type":"plain","text":"lo"}`,
		`data: {"type":"end"}`,
	))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{
		botline.EventPlain{Text: "Hel"},
		botline.EventPlain{Text: "lo"},
		botline.EventEnd{},
	}, events)
	assert.Equal(t, botline.StreamStateComplete, s.State())
}

func TestStream_ErrorFrame(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(`data: {"type":"error","error":"rate limited"}`))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{botline.EventError{Message: "rate limited"}}, events)
	assert.Equal(t, botline.StreamStateFailed, s.State())
}

func TestStream_ErrorFrameWithoutMessage(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(`data: {"type":"error"}`))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{botline.EventError{Message: "Unknown error"}}, events)
}

func TestStream_FramesAfterEndAreNotRead(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(
		`data: {"type":"end"}`,
		`data: {"type":"plain","text":"late"}`,
	))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{botline.EventEnd{}}, events)
}

func TestStream_HTTPFailure(t *testing.T) {
	t.Parallel()
	s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, `data: {"type":"plain","text":"must not be read"}`)
	}))

	events := collectEvents(t, s)

	require.Len(t, events, 1)
	evt, ok := events[0].(botline.EventError)
	require.True(t, ok)
	assert.Contains(t, evt.Message, "500")
	assert.Equal(t, botline.StreamStateFailed, s.State())
}

func TestStream_EmptyBody(t *testing.T) {
	t.Parallel()

	t.Run("content length zero", func(t *testing.T) {
		t.Parallel()
		s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusOK)
		}))

		events := collectEvents(t, s)

		assert.Equal(t, []botline.Event{botline.EventEnd{}}, events)
		assert.Equal(t, botline.StreamStateComplete, s.State())
	})

	t.Run("chunked", func(t *testing.T) {
		t.Parallel()
		s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
		}))

		events := collectEvents(t, s)

		assert.Equal(t, []botline.Event{botline.EventEnd{}}, events)
		assert.Equal(t, botline.StreamStateComplete, s.State())
	})
}

func TestStream_ServerUnreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := dashboard.New(loggedIn(), dashboard.WithBaseURL(url))
	s, err := client.SendMessage(context.Background(), sendRequest())
	require.NoError(t, err)
	defer s.Close()

	events := collectEvents(t, s)

	require.Len(t, events, 1)
	evt, ok := events[0].(botline.EventError)
	require.True(t, ok)
	assert.Contains(t, evt.Message, "request failed")
}

func TestStream_SplitMultibyteCharacter(t *testing.T) {
	t.Parallel()
	frame := []byte("data: {\"type\":\"plain\",\"text\":\"h你é\"}\n")
	// Split inside the three-byte encoding of U+4F60.
	cut := strings.Index(string(frame), "你") + 1
	s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		_, _ = w.Write(frame[:cut])
		flusher.Flush()
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write(frame[cut:])
		flusher.Flush()
	}))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{
		botline.EventPlain{Text: "h你é"},
		botline.EventEnd{},
	}, events)
}

func TestStream_InvalidUTF8IsReplaced(t *testing.T) {
	t.Parallel()
	s := openStream(t, chunkHandler(
		[]byte("\xef\xbb\xbfdata: {\"type\":\"plain\",\"text\":\"a\xffb\"}\n"),
	))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{
		botline.EventPlain{Text: "a�b"},
		botline.EventEnd{},
	}, events)
}

func TestStream_PartialLineIsBuffered(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		fmt.Fprint(w, `data: {"type":"plain","te`)
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		fmt.Fprint(w, `xt":"whole"}`+"\n"+`data: {"type":"end"}`+"\n")
		flusher.Flush()
	}))

	got := make(chan botline.Event, 1)
	go func() {
		evt, _ := s.Next()
		got <- evt
	}()

	select {
	case evt := <-got:
		t.Fatalf("frame parsed before its newline arrived: %#v", evt)
	case <-time.After(100 * time.Millisecond):
	}
	close(release)

	select {
	case evt := <-got:
		assert.Equal(t, botline.EventPlain{Text: "whole"}, evt)
	case <-time.After(5 * time.Second):
		t.Fatal("frame not delivered after newline")
	}
	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, botline.EventEnd{}, evt)
}

func TestStream_MalformedFrameIsDropped(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(
		`data: {"type":"plain","text":"a"}`,
		`data: {not valid json`,
		`data: 42`,
		`data: {"type":"plain","text":"b"}`,
		`data: {"type":"end"}`,
	))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{
		botline.EventPlain{Text: "a"},
		botline.EventPlain{Text: "b"},
		botline.EventEnd{},
	}, events)
}

func TestStream_IgnoresNoise(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(
		`: keep-alive`,
		``,
		`event: message`,
		`data:`,
		`data:    `,
		`data: {"type":"plain","text":""}`,
		`data: {"type":"plain"}`,
		`data: {"type":"image","url":"x"}`,
		`   data:{"type":"plain","text":"ok"}   `,
		"data: {\"type\":\"plain\",\"text\":\"crlf\"}\r",
		`data: {"type":"end"}`,
	))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{
		botline.EventPlain{Text: "ok"},
		botline.EventPlain{Text: "crlf"},
		botline.EventEnd{},
	}, events)
}

func TestStream_NaturalCloseCompletes(t *testing.T) {
	t.Parallel()
	s := openStream(t, chunkHandler(
		[]byte(`data: {"type":"plain","text":"a"}`+"\n"),
		// No trailing newline: never becomes a frame.
		[]byte(`data: {"type":"plain","text":"partial"}`),
	))

	events := collectEvents(t, s)

	assert.Equal(t, []botline.Event{
		botline.EventPlain{Text: "a"},
		botline.EventEnd{},
	}, events)
	assert.Equal(t, botline.StreamStateComplete, s.State())
}

func TestStream_NetworkFailureMidStream(t *testing.T) {
	t.Parallel()
	s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic("hijack unsupported")
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			panic(err)
		}
		frame := `data: {"type":"plain","text":"a"}` + "\n"
		fmt.Fprintf(buf, "HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nTransfer-Encoding: chunked\r\n\r\n")
		fmt.Fprintf(buf, "%x\r\n%s\r\n", len(frame), frame)
		// Announce a chunk and drop the connection before sending it.
		fmt.Fprintf(buf, "40\r\ndata: {")
		_ = buf.Flush()
		conn.Close()
	}))

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, botline.EventPlain{Text: "a"}, evt)

	evt, err = s.Next()
	require.NoError(t, err)
	e, ok := evt.(botline.EventError)
	require.True(t, ok, "expected EventError, got %#v", evt)
	assert.Contains(t, e.Message, "stream read failed")

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStream_CloseDuringRead(t *testing.T) {
	t.Parallel()
	s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `data: {"type":"plain","text":"first"}`)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, botline.EventPlain{Text: "first"}, evt)

	result := make(chan error, 1)
	go func() {
		_, err := s.Next()
		result <- err
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-result:
		assert.ErrorIs(t, err, botline.ErrStreamClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after Close")
	}
	assert.Equal(t, botline.StreamStateClosed, s.State())

	_, err = s.Next()
	assert.ErrorIs(t, err, botline.ErrStreamClosed)
	assert.NoError(t, s.Close())
}

func TestStream_CloseBeforeNextSendsNothing(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	require.NoError(t, s.Close())
	_, err := s.Next()

	assert.ErrorIs(t, err, botline.ErrStreamClosed)
	assert.Equal(t, int32(0), hits.Load())
}

func TestStream_CloseAfterCompletionKeepsState(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(`data: {"type":"end"}`))

	collectEvents(t, s)
	require.NoError(t, s.Close())

	assert.Equal(t, botline.StreamStateComplete, s.State())
}

func TestStream_ParentContextCancelled(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `data: {"type":"plain","text":"first"}`)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := dashboard.New(loggedIn(), dashboard.WithBaseURL(srv.URL))
	s, err := client.SendMessage(ctx, sendRequest())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next()
	require.NoError(t, err)
	cancel()

	_, err = s.Next()
	assert.ErrorIs(t, err, botline.ErrStreamClosed)
	assert.Equal(t, botline.StreamStateClosed, s.State())
}

func TestStream_RequestFormat(t *testing.T) {
	t.Parallel()
	var (
		captured map[string]any
		header   http.Header
		method   string
		path     string
	)
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, header = r.Method, r.URL.Path, r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&captured)
		frameHandler(`data: {"type":"end"}`)(w, r)
	}), loggedIn())

	s, err := client.SendMessage(context.Background(), botline.SendMessageRequest{
		Message:          "hello",
		SessionID:        "sess-9",
		SelectedProvider: "openai",
		SelectedModel:    "gpt-4o",
	})
	require.NoError(t, err)
	defer s.Close()
	collectEvents(t, s)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/chat/send", path)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "text/event-stream", header.Get("Accept"))
	assert.Equal(t, "Bearer test-token", header.Get("Authorization"))
	assert.NotEmpty(t, header.Get("X-Request-Id"))

	assert.Equal(t, "hello", captured["message"])
	assert.Equal(t, "sess-9", captured["session_id"])
	assert.Equal(t, "openai", captured["selected_provider"])
	assert.Equal(t, "gpt-4o", captured["selected_model"])
	assert.Equal(t, true, captured["enable_streaming"])
}

func TestStream_NoTokenNoAuthorization(t *testing.T) {
	t.Parallel()
	var auth atomic.Value
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		frameHandler(`data: {"type":"end"}`)(w, r)
	}), newMemStore(nil))

	s, err := client.SendMessage(context.Background(), sendRequest())
	require.NoError(t, err)
	defer s.Close()
	collectEvents(t, s)

	assert.Equal(t, "", auth.Load())
}

func TestSendMessage_Validation(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), loggedIn())

	_, err := client.SendMessage(context.Background(), botline.SendMessageRequest{SessionID: "s"})
	assert.ErrorIs(t, err, botline.ErrValidation)

	_, err = client.SendMessage(context.Background(), botline.SendMessageRequest{Message: "hi"})
	assert.ErrorIs(t, err, botline.ErrValidation)
	assert.Equal(t, int32(0), hits.Load())
}

func TestOpen_OverHTTP(t *testing.T) {
	t.Parallel()
	s := openStream(t, frameHandler(
		`data: {"type":"plain","text":"Hel"}`,
		`data: {"type":"plain","text":"lo"}`,
		`data: {"type":"end"}`,
	))

	var calls []string
	h := botline.Open(s, botline.Handler{
		OnPlain:    func(text string) { calls = append(calls, "plain:"+text) },
		OnError:    func(msg string) { calls = append(calls, "error:"+msg) },
		OnComplete: func() { calls = append(calls, "complete") },
	})
	h.Wait()

	assert.Equal(t, []string{"plain:Hel", "plain:lo", "complete"}, calls)
}

func TestOpen_RandomFrameSequencesTerminateOnce(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	noise := []string{
		`data: {broken`,
		`: ping`,
		``,
		`data: {"type":"plain","text":""}`,
		`id: 3`,
	}
	for i := range 30 {
		var lines []string
		var want []string
		for range rng.Intn(8) {
			if rng.Intn(3) == 0 {
				lines = append(lines, noise[rng.Intn(len(noise))])
				continue
			}
			text := fmt.Sprintf("t%d", rng.Intn(100))
			lines = append(lines, fmt.Sprintf(`data: {"type":"plain","text":%q}`, text))
			want = append(want, "plain:"+text)
		}
		switch rng.Intn(3) {
		case 0:
			lines = append(lines, `data: {"type":"end"}`)
			want = append(want, "complete")
		case 1:
			lines = append(lines, `data: {"type":"error","error":"boom"}`)
			want = append(want, "error:boom")
		default:
			want = append(want, "complete")
		}

		s := openStream(t, frameHandler(lines...))
		var calls []string
		h := botline.Open(s, botline.Handler{
			OnPlain:    func(text string) { calls = append(calls, "plain:"+text) },
			OnError:    func(msg string) { calls = append(calls, "error:"+msg) },
			OnComplete: func() { calls = append(calls, "complete") },
		})
		h.Wait()

		assert.Equal(t, want, calls, "sequence %d: %q", i, lines)
	}
}

func TestOpen_CancelSuppressesCallbacks(t *testing.T) {
	t.Parallel()
	s := openStream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `data: {"type":"plain","text":"first"}`)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))

	plain := make(chan string, 1)
	var terminal atomic.Int32
	h := botline.Open(s, botline.Handler{
		OnPlain:    func(text string) { plain <- text },
		OnError:    func(string) { terminal.Add(1) },
		OnComplete: func() { terminal.Add(1) },
	})

	assert.Equal(t, "first", <-plain)
	h.Cancel()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not stop after Cancel")
	}
	assert.Equal(t, int32(0), terminal.Load())
	assert.Equal(t, botline.StreamStateClosed, s.State())
}
