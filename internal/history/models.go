// Package history keeps the append-only, PII-free record of every token
// movement and governance-relevant action. Records reference registrants by
// hash id only; names and external keys never enter this package.
package history

import (
	"math/big"
	"time"

	id "dasigov/pkg/domain"
)

// Kind labels what caused a token movement.
type Kind string

const (
	// KindApproval is the single-unit mint triggered by registration approval.
	KindApproval Kind = "approval"
	// KindManual is an authority-initiated top-up.
	KindManual Kind = "manual"
	// KindRelease is the one-time airdrop when a proposal clears the gate.
	KindRelease Kind = "release"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindApproval, KindManual, KindRelease:
		return true
	}
	return false
}

// Record is one entry in the distribution history.
type Record struct {
	ID              id.RegistrantID `json:"id"`
	Address         id.Address      `json:"address"`
	Amount          *big.Int        `json:"-"`
	Kind            Kind            `json:"kind"`
	Timestamp       time.Time       `json:"timestamp"`
	ActingAuthority id.Address      `json:"acting_authority"`
}

// MaxRecords caps the ring; older entries beyond this fall off.
const MaxRecords = 1000
