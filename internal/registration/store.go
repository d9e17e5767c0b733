package registration

import (
	"context"

	id "dasigov/pkg/domain"
)

// Store persists the two linked record collections. Implementations enforce
// external-key and address uniqueness on create, and Execute holds the
// per-pair lock across validate and mutate so concurrent decisions on the
// same address serialize.
type Store interface {
	// CreateLinked inserts both records atomically. Returns
	// sentinel.ErrConflict (wrapped with which field collided) when the
	// external key or address is already taken.
	CreateLinked(ctx context.Context, registrant Registrant, mapping WalletMapping) error

	// FindMappingByAddress returns the mapping for addr or sentinel.ErrNotFound.
	FindMappingByAddress(ctx context.Context, addr id.Address) (WalletMapping, error)

	// Execute runs validate then mutate on the linked pair for addr under the
	// pair's lock. Returns sentinel.ErrNotFound when no mapping exists.
	Execute(ctx context.Context, addr id.Address,
		validate func(*Registrant, *WalletMapping) error,
		mutate func(*Registrant, *WalletMapping),
	) (Registrant, WalletMapping, error)

	// ListPairs returns every registrant with its mapping, submission order.
	ListPairs(ctx context.Context) ([]Registrant, []WalletMapping, error)

	// ApprovedAddresses returns the addresses of all approved mappings.
	ApprovedAddresses(ctx context.Context) ([]id.Address, error)
}
