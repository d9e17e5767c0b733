package registration

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	id "dasigov/pkg/domain"
	"dasigov/pkg/platform/sentinel"
)

// InMemory keeps both collections in process memory. A single mutex covers
// the uniqueness indexes and the pair locks; entity mutations run under it,
// which gives the per-pair serializability Execute promises.
type InMemory struct {
	mu          sync.RWMutex
	registrants map[id.RegistrantID]*Registrant
	mappings    map[id.Address]*WalletMapping
	byKey       map[string]id.RegistrantID
	order       []id.RegistrantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		registrants: make(map[id.RegistrantID]*Registrant),
		mappings:    make(map[id.Address]*WalletMapping),
		byKey:       make(map[string]id.RegistrantID),
	}
}

func (s *InMemory) CreateLinked(_ context.Context, registrant Registrant, mapping WalletMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(registrant.ExternalKey)
	if _, taken := s.byKey[key]; taken {
		return fmt.Errorf("external key %q: %w", registrant.ExternalKey, sentinel.ErrConflict)
	}
	if _, taken := s.mappings[mapping.Address]; taken {
		return fmt.Errorf("address %s: %w", mapping.Address, sentinel.ErrConflict)
	}

	r := registrant
	m := mapping
	if m.TotalIssued == nil {
		m.TotalIssued = big.NewInt(0)
	}
	s.registrants[r.ID] = &r
	s.mappings[m.Address] = &m
	s.byKey[key] = r.ID
	s.order = append(s.order, r.ID)
	return nil
}

func (s *InMemory) FindMappingByAddress(_ context.Context, addr id.Address) (WalletMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.mappings[addr]; ok {
		return copyMapping(m), nil
	}
	return WalletMapping{}, sentinel.ErrNotFound
}

func (s *InMemory) Execute(_ context.Context, addr id.Address,
	validate func(*Registrant, *WalletMapping) error,
	mutate func(*Registrant, *WalletMapping),
) (Registrant, WalletMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mappings[addr]
	if !ok {
		return Registrant{}, WalletMapping{}, sentinel.ErrNotFound
	}
	r, ok := s.registrants[m.ID]
	if !ok {
		return Registrant{}, WalletMapping{}, fmt.Errorf("mapping %s has no registrant: %w", m.ID, sentinel.ErrNotFound)
	}

	if validate != nil {
		if err := validate(r, m); err != nil {
			return Registrant{}, WalletMapping{}, err
		}
	}
	if mutate != nil {
		mutate(r, m)
	}
	return *r, copyMapping(m), nil
}

func (s *InMemory) ListPairs(_ context.Context) ([]Registrant, []WalletMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registrants := make([]Registrant, 0, len(s.order))
	mappings := make([]WalletMapping, 0, len(s.order))
	for _, rid := range s.order {
		r := s.registrants[rid]
		registrants = append(registrants, *r)
		for _, m := range s.mappings {
			if m.ID == rid {
				mappings = append(mappings, copyMapping(m))
				break
			}
		}
	}
	return registrants, mappings, nil
}

func (s *InMemory) ApprovedAddresses(_ context.Context) ([]id.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var addrs []id.Address
	for _, rid := range s.order {
		for _, m := range s.mappings {
			if m.ID == rid && m.Approved {
				addrs = append(addrs, m.Address)
				break
			}
		}
	}
	return addrs, nil
}

func copyMapping(m *WalletMapping) WalletMapping {
	out := *m
	if m.TotalIssued != nil {
		out.TotalIssued = new(big.Int).Set(m.TotalIssued)
	}
	return out
}
