// Package signature provides the proof-of-control verification capability.
// The registration pipeline hands it an attestation string, a signature, and
// a claimed address; everything cryptographic stays behind the Verifier
// interface.
package signature

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	id "dasigov/pkg/domain"
)

// Verifier reports whether signature over message was produced by the
// claimed address.
type Verifier interface {
	Verify(message string, signature []byte, claimed id.Address) bool
}

// PersonalSign verifies EIP-191 personal_sign signatures, the scheme browser
// wallets use when asked to sign a plain-text attestation.
type PersonalSign struct{}

// NewPersonalSign returns the production verifier.
func NewPersonalSign() PersonalSign { return PersonalSign{} }

func (PersonalSign) Verify(message string, sig []byte, claimed id.Address) bool {
	if len(sig) != crypto.SignatureLength || claimed.IsZero() {
		return false
	}
	// Wallets emit V as 27/28; recovery wants 0/1.
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), normalized)
	if err != nil {
		return false
	}
	recovered := strings.ToLower(crypto.PubkeyToAddress(*pub).Hex())
	return recovered == claimed.String()
}
