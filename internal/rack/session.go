package rack

import (
	"sync"

	"github.com/google/uuid"
)

// Session 是注入到 rack.session 的会话句柄，这一层只负责创建，不做持久化。
type Session struct {
	ID string

	mu     sync.RWMutex
	values map[string]any
}

// NewSession returns a session with a fresh random id.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
