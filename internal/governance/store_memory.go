package governance

import (
	"context"
	"math/big"
	"sync"
	"time"

	id "dasigov/pkg/domain"
	"dasigov/pkg/platform/sentinel"
)

// InMemory keeps proposals in process memory. One mutex covers id allocation
// and all proposal mutations; Execute therefore serializes concurrent votes
// on the same proposal (and, conservatively, across proposals).
type InMemory struct {
	mu        sync.RWMutex
	proposals []*Proposal
	overrides map[id.Address]bool
}

func NewInMemory() *InMemory {
	return &InMemory{overrides: make(map[id.Address]bool)}
}

func (s *InMemory) Create(_ context.Context, p Proposal) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uint64(len(s.proposals)) + 1
	stored := copyProposal(&p)
	s.proposals = append(s.proposals, &stored)
	return copyProposal(&stored), nil
}

func (s *InMemory) Find(_ context.Context, proposalID uint64) (Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if proposalID == 0 || proposalID > uint64(len(s.proposals)) {
		return Proposal{}, sentinel.ErrNotFound
	}
	return copyProposal(s.proposals[proposalID-1]), nil
}

func (s *InMemory) List(_ context.Context) ([]Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, copyProposal(p))
	}
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, proposalID uint64,
	validate func(*Proposal) error,
	mutate func(*Proposal),
) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if proposalID == 0 || proposalID > uint64(len(s.proposals)) {
		return Proposal{}, sentinel.ErrNotFound
	}
	p := s.proposals[proposalID-1]
	if validate != nil {
		if err := validate(p); err != nil {
			return Proposal{}, err
		}
	}
	if mutate != nil {
		mutate(p)
	}
	return copyProposal(p), nil
}

func (s *InMemory) IsAuthorizedProposer(_ context.Context, addr id.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides[addr], nil
}

func (s *InMemory) SetAuthorizedProposer(_ context.Context, addr id.Address, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if allowed {
		s.overrides[addr] = true
	} else {
		delete(s.overrides, addr)
	}
	return nil
}

// copyProposal deep-copies so readers never observe a partially applied
// mutation through shared maps or big.Ints.
func copyProposal(p *Proposal) Proposal {
	out := *p
	out.Options = append([]string{}, p.Options...)
	out.StartTime = copyTime(p.StartTime)
	out.EndTime = copyTime(p.EndTime)

	out.Approval.Voters = copyVoters(p.Approval.Voters)

	out.Ballot.For = copyInt(p.Ballot.For)
	out.Ballot.Against = copyInt(p.Ballot.Against)
	out.Ballot.Abstain = copyInt(p.Ballot.Abstain)
	out.Ballot.Voters = copyVoters(p.Ballot.Voters)
	if p.Ballot.OptionWeights != nil {
		out.Ballot.OptionWeights = make([]*big.Int, len(p.Ballot.OptionWeights))
		for i, w := range p.Ballot.OptionWeights {
			out.Ballot.OptionWeights[i] = copyInt(w)
		}
		out.Ballot.OptionVoterCounts = append([]int{}, p.Ballot.OptionVoterCounts...)
	}
	return out
}

func copyVoters(in map[id.Address]bool) map[id.Address]bool {
	out := make(map[id.Address]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyInt(in *big.Int) *big.Int {
	if in == nil {
		return nil
	}
	return new(big.Int).Set(in)
}

func copyTime(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	t := *in
	return &t
}
