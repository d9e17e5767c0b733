// Package domain defines the identifier and amount types shared across
// modules. Keeping them here avoids import cycles between services and
// stores, and gives handlers a single place to parse external input.
package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Address is a wallet address in canonical form: lower-case 0x-prefixed hex.
// All comparisons across the system happen on this form.
type Address string

// ParseAddress validates raw as a hex wallet address and canonicalizes it.
func ParseAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return "", fmt.Errorf("invalid wallet address %q", raw)
	}
	return Address(strings.ToLower(common.HexToAddress(raw).Hex())), nil
}

// MustAddress is ParseAddress for fixtures and tests; panics on bad input.
func MustAddress(raw string) Address {
	addr, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// Common returns the go-ethereum representation for ledger calls.
func (a Address) Common() common.Address { return common.HexToAddress(string(a)) }

// RegistrantID links a personal-data record to its anonymized wallet
// mapping: 16 bytes rendered as 32 hex characters.
type RegistrantID string

// RegistrantIDLen is the hex-encoded length of a RegistrantID.
const RegistrantIDLen = 32

// NewRegistrantID derives a fresh id from the submission inputs, the
// submission time, and a random nonce. The digest keeps the id free of
// personal data while the nonce keeps concurrent submissions with identical
// inputs from colliding.
func NewRegistrantID(externalKey string, addr Address, now time.Time) RegistrantID {
	h := sha3.New256()
	h.Write([]byte(externalKey))
	h.Write([]byte(addr))
	h.Write([]byte(strconv.FormatInt(now.UnixNano(), 10)))
	h.Write([]byte(uuid.NewString()))
	return RegistrantID(hex.EncodeToString(h.Sum(nil)[:16]))
}

// ParseRegistrantID validates an externally supplied id.
func ParseRegistrantID(raw string) (RegistrantID, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if len(raw) != RegistrantIDLen {
		return "", fmt.Errorf("registrant id must be %d hex characters", RegistrantIDLen)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("registrant id is not hex: %w", err)
	}
	return RegistrantID(raw), nil
}

func (id RegistrantID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id RegistrantID) IsZero() bool { return id == "" }
