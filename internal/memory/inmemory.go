package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a process-local session sink, used when DATABASE_URL is
// unset (local/dev or tests).
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]SessionRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]SessionRecord)}
}

func (s *InMemoryStore) SaveSession(_ context.Context, record SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records[record.UserID] = append(s.records[record.UserID], record)
	return nil
}

func (s *InMemoryStore) RecentScores(_ context.Context, userID string, limit int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[userID]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]float64, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i].OverallScore)
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
