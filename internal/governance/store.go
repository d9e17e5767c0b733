package governance

import (
	"context"

	id "dasigov/pkg/domain"
)

// Store persists proposals and the authorized-proposer override list.
// Execute holds the proposal's lock across validate and mutate so concurrent
// votes on one proposal serialize; sequential ids are allocated inside the
// store so two concurrent creates cannot collide.
type Store interface {
	// Create assigns the next sequential id and persists p.
	Create(ctx context.Context, p Proposal) (Proposal, error)

	// Find returns a copy of the proposal or sentinel.ErrNotFound.
	Find(ctx context.Context, proposalID uint64) (Proposal, error)

	// List returns copies of all proposals in id order.
	List(ctx context.Context) ([]Proposal, error)

	// Execute runs validate then mutate under the proposal's lock. Returns
	// sentinel.ErrNotFound when the proposal does not exist.
	Execute(ctx context.Context, proposalID uint64,
		validate func(*Proposal) error,
		mutate func(*Proposal),
	) (Proposal, error)

	// IsAuthorizedProposer reports override-list membership.
	IsAuthorizedProposer(ctx context.Context, addr id.Address) (bool, error)

	// SetAuthorizedProposer adds or removes an override-list entry.
	SetAuthorizedProposer(ctx context.Context, addr id.Address, allowed bool) error
}
