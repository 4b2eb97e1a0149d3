package session

import (
	"context"
	"sync"
)

// MemoryStore keeps versions in process memory. Versions are lost on
// restart and are not shared between instances; use it for tests and
// single-process development only.
type MemoryStore struct {
	mu       sync.Mutex
	versions map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string]int64)}
}

// Register makes the user known with the default version.
func (s *MemoryStore) Register(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.versions[userID]; !ok {
		s.versions[userID] = DefaultVersion
	}
}

func (s *MemoryStore) Forget(userID string) {
	s.mu.Lock()
	delete(s.versions, userID)
	s.mu.Unlock()
}

func (s *MemoryStore) TokenVersion(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[userID]
	if !ok {
		return 0, ErrUnknownUser
	}
	return v, nil
}

func (s *MemoryStore) IncrementTokenVersion(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[userID]
	if !ok {
		return 0, ErrUnknownUser
	}
	if v <= 0 {
		v = DefaultVersion
	}

	v++
	s.versions[userID] = v
	return v, nil
}
