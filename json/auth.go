package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"sync"

	"github.com/fwojciec/botline"
)

var _ botline.AuthStore = (*AuthStore)(nil)

// AuthStore is a botline.AuthStore kept in a flat JSON object on disk. The
// file is read once by OpenAuthStore; every Set or Delete rewrites it.
type AuthStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// OpenAuthStore loads the store at path. A missing file is an empty store.
func OpenAuthStore(path string) (*AuthStore, error) {
	s := &AuthStore{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read auth file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("unmarshal auth file: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *AuthStore) Path() string { return s.path }

func (s *AuthStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *AuthStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := maps.Clone(s.values)
	next[key] = value
	return s.commit(next)
}

// Delete removes keys. Deleting an absent key is not an error.
func (s *AuthStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := maps.Clone(s.values)
	for _, k := range keys {
		delete(next, k)
	}
	return s.commit(next)
}

// commit persists next and adopts it only if the write succeeded.
func (s *AuthStore) commit(next map[string]string) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal auth file: %w", err)
	}
	if err := writeFile(s.path, data); err != nil {
		return err
	}
	s.values = next
	return nil
}
