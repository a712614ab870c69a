package store

import "sync"

// MemoryStore keeps the token in process memory. It does not survive a
// restart and is meant for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryStore returns an empty store, or one holding token when given
func NewMemoryStore(token ...string) *MemoryStore {
	s := &MemoryStore{}
	if len(token) > 0 && token[0] != "" {
		s.token, s.set = token[0], true
	}
	return s
}

func (s *MemoryStore) Read() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set
}

func (s *MemoryStore) Write(token string) error {
	s.mu.Lock()
	s.token, s.set = token, true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.token, s.set = "", false
	s.mu.Unlock()
	return nil
}
