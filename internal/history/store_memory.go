package history

import (
	"context"
	"sync"
)

// InMemory keeps the ring in process memory. Newest records sit at index 0,
// matching the read order the admin surface wants.
type InMemory struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]Record{record}, s.records...)
	if len(s.records) > MaxRecords {
		s.records = s.records[:MaxRecords]
	}
	return nil
}

func (s *InMemory) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record{}, s.records...), nil
}
