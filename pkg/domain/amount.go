package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// Token amounts are fixed-point integers with 18 decimals, the smallest unit
// being 1. The core treats them as opaque non-negative integers and never
// rounds.
var (
	// OneToken is 10^18 base units.
	OneToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// ParseAmount parses a positive decimal token amount (e.g. "1", "2.5") into
// base units. Fractional digits beyond 18 are rejected rather than rounded.
func ParseAmount(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 18 {
		return nil, fmt.Errorf("amount %q has more than 18 decimal places", raw)
	}
	digits := whole + frac + strings.Repeat("0", 18-len(frac))
	amount, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a decimal number", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", raw)
	}
	return amount, nil
}

// FormatAmount renders base units as a decimal token string with trailing
// zeros trimmed, for display and JSON responses.
func FormatAmount(amount *big.Int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	q, r := new(big.Int).QuoRem(amount, OneToken, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%018s", r.String()), "0")
	return q.String() + "." + frac
}
