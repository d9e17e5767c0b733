package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// OwnerQuorumPercentage is the share of authority members whose approval
	// votes release a proposal to public voting. Thresholds round up.
	OwnerQuorumPercentage int

	// VotingPeriod is the public voting window opened when a proposal is
	// released.
	VotingPeriod time.Duration

	// LedgerRPCURL and TokenContract point the ledger gateway at the voting
	// token. Empty LedgerRPCURL selects the in-memory ledger (dev mode).
	LedgerRPCURL  string
	TokenContract string

	// LedgerTimeout bounds every ledger gateway call.
	LedgerTimeout time.Duration

	// MinterKey is the hex-encoded private key used to sign mint
	// transactions. ChainID must match the ledger network when set.
	MinterKey string
	ChainID   int64
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                  ":8080",
		OwnerQuorumPercentage: 50,
		VotingPeriod:          7 * 24 * time.Hour,
		LedgerTimeout:         10 * time.Second,
	}
	if addr := os.Getenv("DASIGOV_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if raw := os.Getenv("DASIGOV_OWNER_QUORUM_PCT"); raw != "" {
		if pct, err := strconv.Atoi(raw); err == nil && pct > 0 && pct <= 100 {
			cfg.OwnerQuorumPercentage = pct
		}
	}
	if raw := os.Getenv("DASIGOV_VOTING_PERIOD"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.VotingPeriod = d
		}
	}
	if raw := os.Getenv("DASIGOV_LEDGER_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.LedgerTimeout = d
		}
	}
	cfg.LedgerRPCURL = os.Getenv("DASIGOV_LEDGER_RPC_URL")
	cfg.TokenContract = os.Getenv("DASIGOV_TOKEN_CONTRACT")
	cfg.MinterKey = os.Getenv("DASIGOV_MINTER_KEY")
	if raw := os.Getenv("DASIGOV_CHAIN_ID"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.ChainID = n
		}
	}
	return cfg
}
