package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	id "dasigov/pkg/domain"
)

// InMemory is a process-local ledger for development and tests. Balances only
// ever grow through Mint/BatchMint; there is no transfer surface because the
// core never transfers.
type InMemory struct {
	mu       sync.RWMutex
	balances map[id.Address]*big.Int
	minters  map[id.Address]bool

	// FailMint, when set, makes the next Mint/BatchMint calls fail. Tests use
	// it to exercise the approval rollback path.
	FailMint error
}

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		balances: make(map[id.Address]*big.Int),
		minters:  make(map[id.Address]bool),
	}
}

func (l *InMemory) BalanceOf(_ context.Context, addr id.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (l *InMemory) Mint(_ context.Context, addr id.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailMint != nil {
		return l.FailMint
	}
	return l.mintLocked(addr, amount)
}

func (l *InMemory) BatchMint(_ context.Context, addrs []id.Address, amounts []*big.Int) error {
	if len(addrs) != len(amounts) {
		return fmt.Errorf("batch mint: %d addresses but %d amounts", len(addrs), len(amounts))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailMint != nil {
		return l.FailMint
	}
	for i, addr := range addrs {
		if err := l.mintLocked(addr, amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *InMemory) IsAuthorizedMinter(_ context.Context, addr id.Address) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minters[addr], nil
}

// AddMinter marks addr as an authorized minter.
func (l *InMemory) AddMinter(addr id.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minters[addr] = true
}

// SetBalance overwrites a balance directly; test fixture helper.
func (l *InMemory) SetBalance(addr id.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] = new(big.Int).Set(amount)
}

func (l *InMemory) mintLocked(addr id.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("mint amount must be non-negative")
	}
	bal, ok := l.balances[addr]
	if !ok {
		bal = big.NewInt(0)
	}
	l.balances[addr] = new(big.Int).Add(bal, amount)
	return nil
}
