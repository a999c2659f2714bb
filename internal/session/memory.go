package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Expired records are dropped lazily on read.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]Record
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:   make(map[string]Record),
		now: time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, rec Record) error {
	s.mu.Lock()
	s.m[rec.ID] = rec
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.m[id]
	s.mu.RUnlock()

	if !ok {
		return Record{}, ErrNotFound
	}

	if !s.now().Before(rec.ExpiresAt) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return Record{}, ErrNotFound
	}

	return rec, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.m[id]
	if !ok || rec.RevokedAt != nil {
		return nil
	}

	now := s.now().UTC()
	rec.RevokedAt = &now
	s.m[id] = rec

	return nil
}

func (s *MemoryStore) RevokeAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()

	for id, rec := range s.m {
		if rec.UserID == userID && rec.RevokedAt == nil {
			rec.RevokedAt = &now
			s.m[id] = rec
		}
	}

	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.m)
}
