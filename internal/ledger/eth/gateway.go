// Package eth adapts the ledger gateway onto the voting-token contract via
// an Ethereum JSON-RPC endpoint. The governance core only sees the
// ledger.Gateway interface; this package owns the ABI, the transactor, and
// the per-call timeout.
package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"dasigov/internal/platform/metrics"
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
)

// tokenABI covers the subset of the voting-token contract the core calls.
const tokenABI = `[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"mint","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"batchMint","type":"function","stateMutability":"nonpayable","inputs":[{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]},
	{"name":"isAuthorizedMinter","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

// Gateway implements ledger.Gateway over an Ethereum RPC endpoint.
type Gateway struct {
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// New dials rpcURL and binds the token contract. opts signs mint
// transactions; callers holding no minter key may pass nil and use the
// gateway read-only.
func New(rpcURL string, contractAddr string, opts *bind.TransactOpts, timeout time.Duration, m *metrics.Metrics) (*Gateway, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}
	bound := bind.NewBoundContract(common.HexToAddress(contractAddr), parsed, client, client, client)
	return &Gateway{contract: bound, opts: opts, timeout: timeout, metrics: m}, nil
}

func (g *Gateway) BalanceOf(ctx context.Context, addr id.Address) (*big.Int, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	start := time.Now()
	var out []any
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", addr.Common())
	g.metrics.ObserveLedgerCall(start)
	if err != nil {
		return nil, g.upstream(err, "balance lookup failed")
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUpstream, "balance lookup returned unexpected type")
	}
	return bal, nil
}

func (g *Gateway) Mint(ctx context.Context, addr id.Address, amount *big.Int) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	start := time.Now()
	err := g.transact(ctx, "mint", addr.Common(), amount)
	g.metrics.ObserveLedgerCall(start)
	if err != nil {
		return g.upstream(err, "mint failed")
	}
	return nil
}

func (g *Gateway) BatchMint(ctx context.Context, addrs []id.Address, amounts []*big.Int) error {
	if len(addrs) != len(amounts) {
		return dErrors.New(dErrors.CodeInvalidInput, "batch mint addresses and amounts differ in length")
	}
	ctx, cancel := g.bound(ctx)
	defer cancel()

	recipients := make([]common.Address, len(addrs))
	for i, a := range addrs {
		recipients[i] = a.Common()
	}

	start := time.Now()
	err := g.transact(ctx, "batchMint", recipients, amounts)
	g.metrics.ObserveLedgerCall(start)
	if err != nil {
		return g.upstream(err, "batch mint failed")
	}
	return nil
}

func (g *Gateway) IsAuthorizedMinter(ctx context.Context, addr id.Address) (bool, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	start := time.Now()
	var out []any
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isAuthorizedMinter", addr.Common())
	g.metrics.ObserveLedgerCall(start)
	if err != nil {
		return false, g.upstream(err, "minter check failed")
	}
	authorized, ok := out[0].(bool)
	if !ok {
		return false, dErrors.New(dErrors.CodeUpstream, "minter check returned unexpected type")
	}
	return authorized, nil
}

func (g *Gateway) transact(ctx context.Context, method string, args ...any) error {
	if g.opts == nil {
		return fmt.Errorf("gateway has no transactor configured")
	}
	opts := *g.opts
	opts.Context = ctx
	_, err := g.contract.Transact(&opts, method, args...)
	return err
}

func (g *Gateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) upstream(err error, msg string) error {
	if g.metrics != nil {
		g.metrics.LedgerCallFailures.Inc()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeUpstream, msg)
}
