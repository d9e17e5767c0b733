package authority

import (
	"context"
	"sync"

	id "dasigov/pkg/domain"
)

// InMemory keeps the authority singleton in process memory.
type InMemory struct {
	mu     sync.RWMutex
	record Record
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Get(_ context.Context) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(), nil
}

func (s *InMemory) Execute(_ context.Context, validate func(*Record) error, mutate func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if validate != nil {
		if err := validate(&s.record); err != nil {
			return Record{}, err
		}
	}
	if mutate != nil {
		mutate(&s.record)
	}
	return s.copyLocked(), nil
}

func (s *InMemory) copyLocked() Record {
	return Record{
		Root:    s.record.Root,
		Members: append([]id.Address{}, s.record.Members...),
	}
}
