// Package ledger defines the gateway to the voting-token ledger. The
// governance core consumes this interface for vote-weight lookups and token
// issuance; it never talks to the chain directly.
package ledger

import (
	"context"
	"math/big"

	id "dasigov/pkg/domain"
)

// Gateway exposes the token operations the core depends on. Implementations
// must bound every call with the context deadline; a timeout surfaces as an
// error, never a silent success.
type Gateway interface {
	// BalanceOf returns the current balance of addr in base units.
	BalanceOf(ctx context.Context, addr id.Address) (*big.Int, error)

	// Mint issues amount base units to addr.
	Mint(ctx context.Context, addr id.Address, amount *big.Int) error

	// BatchMint issues amounts[i] to addrs[i]. Lengths must match.
	BatchMint(ctx context.Context, addrs []id.Address, amounts []*big.Int) error

	// IsAuthorizedMinter reports whether addr may mint on the token contract.
	IsAuthorizedMinter(ctx context.Context, addr id.Address) (bool, error)
}
