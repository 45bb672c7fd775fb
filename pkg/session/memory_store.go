package session

import (
	"context"
	"sync"
	"time"

	"github.com/projectbackend/backend/pkg/model"
)

// MemoryStore keeps sessions in process. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]model.Session)}
}

func (s *MemoryStore) Save(record model.Session) error {
	s.mu.Lock()
	s.sessions[record.TokenHash] = record
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(tokenHash string) (model.Session, bool, error) {
	s.mu.RLock()
	record, ok := s.sessions[tokenHash]
	s.mu.RUnlock()
	return record, ok, nil
}

func (s *MemoryStore) Delete(tokenHash string) error {
	s.mu.Lock()
	delete(s.sessions, tokenHash)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteUser(userKey int) error {
	s.mu.Lock()
	for hash, record := range s.sessions {
		if record.UserKey == userKey {
			delete(s.sessions, hash)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PurgeExpired(now time.Time) error {
	s.mu.Lock()
	for hash, record := range s.sessions {
		if record.IsExpired(now) {
			delete(s.sessions, hash)
		}
	}
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
