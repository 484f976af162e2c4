package dashboard_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fwojciec/botline"
	"github.com/fwojciec/botline/dashboard"
)

// memStore is an in-memory botline.AuthStore.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore(values map[string]string) *memStore {
	s := &memStore{values: make(map[string]string)}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *memStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *memStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

var _ botline.AuthStore = (*memStore)(nil)

func loggedIn() *memStore {
	return newMemStore(map[string]string{
		botline.KeyAccessToken: "test-token",
		botline.KeyUsername:    "admin",
	})
}

// newClient starts srv and returns a client pointed at it.
func newClient(t *testing.T, h http.Handler, store botline.AuthStore, opts ...dashboard.Option) *dashboard.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]dashboard.Option{dashboard.WithBaseURL(srv.URL)}, opts...)
	return dashboard.New(store, opts...)
}

// frameHandler writes each line followed by "\n", flushing after every write.
func frameHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// chunkHandler writes each chunk verbatim, flushing after every write.
func chunkHandler(chunks ...[]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, c := range chunks {
			_, _ = w.Write(c)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
