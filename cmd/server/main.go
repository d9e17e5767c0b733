package main

import (
	"context"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"

	"dasigov/internal/authority"
	"dasigov/internal/governance"
	"dasigov/internal/history"
	"dasigov/internal/ledger"
	ethledger "dasigov/internal/ledger/eth"
	"dasigov/internal/platform/config"
	"dasigov/internal/platform/httpserver"
	"dasigov/internal/platform/logger"
	"dasigov/internal/platform/metrics"
	"dasigov/internal/registration"
	"dasigov/internal/signature"
	httptransport "dasigov/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	gateway, err := buildLedger(cfg, m)
	if err != nil {
		log.Error("ledger gateway setup failed", "error", err)
		os.Exit(1)
	}

	authoritySvc := authority.NewService(authority.NewInMemory(), log)
	historySvc := history.NewService(history.NewInMemory(), log)
	registrationSvc := registration.NewService(
		registration.NewInMemory(),
		authoritySvc,
		gateway,
		historySvc,
		signature.NewPersonalSign(),
		m,
		log,
	)
	governanceSvc := governance.NewService(
		governance.NewInMemory(),
		authoritySvc,
		gateway,
		historySvc,
		registrationSvc,
		governance.Config{
			OwnerQuorumPercentage: cfg.OwnerQuorumPercentage,
			VotingPeriod:          cfg.VotingPeriod,
		},
		m,
		log,
	)

	router := httptransport.NewRouter(log,
		httptransport.NewRegistrationHandler(registrationSvc, log),
		httptransport.NewGovernanceHandler(governanceSvc, registrationSvc, log),
		httptransport.NewAuthorityHandler(authoritySvc, log),
		httptransport.NewHistoryHandler(historySvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting dasigov", "addr", cfg.Addr, "ledger", ledgerMode(cfg))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildLedger selects the chain-backed gateway when an RPC URL is configured
// and falls back to the in-memory ledger for local development.
func buildLedger(cfg config.Server, m *metrics.Metrics) (ledger.Gateway, error) {
	if cfg.LedgerRPCURL == "" {
		return ledger.NewInMemory(), nil
	}

	var opts *bind.TransactOpts
	if cfg.MinterKey != "" {
		key, err := crypto.HexToECDSA(cfg.MinterKey)
		if err != nil {
			return nil, err
		}
		opts, err = bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
		if err != nil {
			return nil, err
		}
	}
	return ethledger.New(cfg.LedgerRPCURL, cfg.TokenContract, opts, cfg.LedgerTimeout, m)
}

func ledgerMode(cfg config.Server) string {
	if cfg.LedgerRPCURL == "" {
		return "memory"
	}
	return "rpc"
}
