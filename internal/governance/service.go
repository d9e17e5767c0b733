package governance

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"dasigov/internal/history"
	"dasigov/internal/ledger"
	"dasigov/internal/platform/metrics"
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/platform/sentinel"
	"dasigov/pkg/requestcontext"
)

// Authority answers capability checks and sizes the gate denominator.
type Authority interface {
	HasAuthority(ctx context.Context, addr id.Address) (bool, error)
	RequireAuthority(ctx context.Context, addr id.Address) error
	Members(ctx context.Context) ([]id.Address, error)
}

// Historian records token movements.
type Historian interface {
	Record(ctx context.Context, record history.Record) error
}

// IssuanceRecorder mirrors airdropped amounts onto the wallet mappings.
type IssuanceRecorder interface {
	RecordIssuance(ctx context.Context, addr id.Address, amount *big.Int) error
}

// Release airdrops run in chunks with bounded parallelism so one large
// snapshot neither exceeds a single upstream call nor floods the gateway.
const (
	releaseChunkSize   = 100
	releaseParallelism = 4
)

// Config carries the governance parameters.
type Config struct {
	// OwnerQuorumPercentage of authority members (root excluded from the
	// denominator) whose same-direction gate votes decide a proposal.
	OwnerQuorumPercentage int
	// VotingPeriod is the public window opened at release.
	VotingPeriod time.Duration
}

// Service is the governance engine.
type Service struct {
	store     Store
	authority Authority
	ledger    ledger.Gateway
	historian Historian
	issuance  IssuanceRecorder
	cfg       Config
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(
	store Store,
	authority Authority,
	gateway ledger.Gateway,
	historian Historian,
	issuance IssuanceRecorder,
	cfg Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		authority: authority,
		ledger:    gateway,
		historian: historian,
		issuance:  issuance,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

// CreateProposal admits a new proposal into the gate state. The proposer
// must hold at least one voting unit or sit on the authorized-proposer
// override list; multi-option proposals additionally require authority.
func (s *Service) CreateProposal(ctx context.Context, proposer id.Address, description string, kind Kind, options []string) (View, error) {
	if proposer.IsZero() {
		return View{}, dErrors.New(dErrors.CodeUnauthorized, "proposer address is required")
	}

	if kind == KindMultiOption {
		hasAuth, err := s.authority.HasAuthority(ctx, proposer)
		if err != nil {
			return View{}, err
		}
		if !hasAuth {
			return View{}, dErrors.New(dErrors.CodeUnauthorized, "multi-option proposals require authority")
		}
	}

	eligible, err := s.canPropose(ctx, proposer)
	if err != nil {
		return View{}, err
	}
	if !eligible {
		return View{}, dErrors.New(dErrors.CodeUnauthorized, "proposer must hold voting weight or be an authorized proposer")
	}

	now := requestcontext.Now(ctx)
	proposal, err := NewProposal(proposer, description, kind, options, now)
	if err != nil {
		return View{}, err
	}
	created, err := s.store.Create(ctx, proposal)
	if err != nil {
		return View{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}

	if s.metrics != nil {
		s.metrics.ProposalsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "proposal created",
		"request_id", requestcontext.RequestID(ctx),
		"proposal_id", created.ID,
		"kind", created.Kind,
		"proposer", proposer,
	)
	return s.view(ctx, created, now), nil
}

// VoteOnApproval records one authority gate vote. When the approving side
// reaches the quorum threshold the proposal opens for public voting and one
// token is distributed to every address in the approvedUsers snapshot (an
// empty snapshot is valid and distributes nothing). A rejection majority of
// the same size terminates the proposal.
func (s *Service) VoteOnApproval(ctx context.Context, proposalID uint64, voter id.Address, approve bool, approvedUsers []id.Address) (View, error) {
	if err := s.authority.RequireAuthority(ctx, voter); err != nil {
		return View{}, err
	}

	members, err := s.authority.Members(ctx)
	if err != nil {
		return View{}, err
	}
	// ceil(0 * p / 100) = 0 would make the first vote decisive; treat an
	// empty member tier as a deployment-configuration error instead.
	if len(members) == 0 {
		return View{}, dErrors.New(dErrors.CodePreconditionFailed, "approval gate requires at least one authority member")
	}
	threshold := GateThreshold(len(members), s.cfg.OwnerQuorumPercentage)

	now := requestcontext.Now(ctx)
	released := false
	proposal, err := s.store.Execute(ctx, proposalID,
		func(p *Proposal) error { return p.CanGateVote(voter) },
		func(p *Proposal) {
			p.ApplyGateVote(voter, approve)
			switch {
			case p.Approval.ApproveVotes >= threshold:
				p.ApplyRelease(now, s.cfg.VotingPeriod)
				released = true
			case p.Approval.RejectVotes >= threshold:
				p.ApplyGateRejection()
			}
		},
	)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return View{}, dErrors.New(dErrors.CodeNotFound, "no such proposal")
		}
		return View{}, err
	}

	if s.metrics != nil {
		s.metrics.GateVotesCast.Inc()
	}
	s.logger.InfoContext(ctx, "gate vote recorded",
		"request_id", requestcontext.RequestID(ctx),
		"proposal_id", proposalID,
		"voter", voter,
		"approve", approve,
		"state", proposal.State,
	)

	if released {
		if err := s.distributeRelease(ctx, proposal, voter, approvedUsers); err != nil {
			// The release itself is quorum-durable; distribution failures are
			// surfaced for the caller to retry via the manual top-up path.
			return s.view(ctx, proposal, now), err
		}
	}
	return s.view(ctx, proposal, now), nil
}

// Vote casts a binary public vote weighted by the voter's current ledger
// balance. Authority holders may vote without holding tokens; their vote
// carries whatever balance they do hold.
func (s *Service) Vote(ctx context.Context, proposalID uint64, voter id.Address, choice Choice) (View, error) {
	weight, err := s.publicVoteWeight(ctx, voter)
	if err != nil {
		return View{}, err
	}

	now := requestcontext.Now(ctx)
	proposal, err := s.store.Execute(ctx, proposalID,
		func(p *Proposal) error {
			if p.Kind != KindBinary {
				return dErrors.New(dErrors.CodeInvalidInput, "proposal is not a binary ballot")
			}
			return p.CanPublicVote(voter, now)
		},
		func(p *Proposal) { p.ApplyBinaryVote(voter, choice, weight) },
	)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return View{}, dErrors.New(dErrors.CodeNotFound, "no such proposal")
		}
		return View{}, err
	}

	if s.metrics != nil {
		s.metrics.VotesCast.Inc()
	}
	return s.view(ctx, proposal, now), nil
}

// VoteMultiOption casts a public vote for one stored option, including the
// synthetic Null.
func (s *Service) VoteMultiOption(ctx context.Context, proposalID uint64, voter id.Address, optionIndex int) (View, error) {
	weight, err := s.publicVoteWeight(ctx, voter)
	if err != nil {
		return View{}, err
	}

	now := requestcontext.Now(ctx)
	proposal, err := s.store.Execute(ctx, proposalID,
		func(p *Proposal) error {
			if p.Kind != KindMultiOption {
				return dErrors.New(dErrors.CodeInvalidInput, "proposal is not a multi-option ballot")
			}
			if !p.ValidOptionIndex(optionIndex) {
				return dErrors.Newf(dErrors.CodeInvalidInput, "option index %d is out of range", optionIndex)
			}
			return p.CanPublicVote(voter, now)
		},
		func(p *Proposal) { p.ApplyOptionVote(voter, optionIndex, weight) },
	)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return View{}, dErrors.New(dErrors.CodeNotFound, "no such proposal")
		}
		return View{}, err
	}

	if s.metrics != nil {
		s.metrics.VotesCast.Inc()
	}
	return s.view(ctx, proposal, now), nil
}

// ExecuteProposal marks an ended proposal executed, exactly once. Any
// authenticated caller may execute; the outcome is already fixed by the
// tallies.
func (s *Service) ExecuteProposal(ctx context.Context, proposalID uint64, caller id.Address) (View, error) {
	if caller.IsZero() {
		return View{}, dErrors.New(dErrors.CodeUnauthorized, "caller address is required")
	}

	now := requestcontext.Now(ctx)
	proposal, err := s.store.Execute(ctx, proposalID,
		func(p *Proposal) error { return p.CanExecute(now) },
		func(p *Proposal) { p.ApplyExecution() },
	)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return View{}, dErrors.New(dErrors.CodeNotFound, "no such proposal")
		}
		return View{}, err
	}

	s.logger.InfoContext(ctx, "proposal executed",
		"request_id", requestcontext.RequestID(ctx),
		"proposal_id", proposalID,
		"caller", caller,
	)
	return s.view(ctx, proposal, now), nil
}

// GetStatus returns the derived state label without writing.
func (s *Service) GetStatus(ctx context.Context, proposalID uint64) (State, error) {
	proposal, err := s.store.Find(ctx, proposalID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no such proposal")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return proposal.DerivedState(requestcontext.Now(ctx)), nil
}

// GetProposal returns the full read model for one proposal.
func (s *Service) GetProposal(ctx context.Context, proposalID uint64) (View, error) {
	proposal, err := s.store.Find(ctx, proposalID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return View{}, dErrors.New(dErrors.CodeNotFound, "no such proposal")
		}
		return View{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return s.view(ctx, proposal, requestcontext.Now(ctx)), nil
}

// ListProposals returns read models for every proposal, id order.
func (s *Service) ListProposals(ctx context.Context) ([]View, error) {
	proposals, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proposals")
	}
	now := requestcontext.Now(ctx)
	views := make([]View, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, s.view(ctx, p, now))
	}
	return views, nil
}

// SetAuthorizedProposer manages the override list that lets a token-less
// address create proposals.
func (s *Service) SetAuthorizedProposer(ctx context.Context, addr id.Address, allowed bool, requestedBy id.Address) error {
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "proposer address is required")
	}
	if err := s.authority.RequireAuthority(ctx, requestedBy); err != nil {
		return err
	}
	if err := s.store.SetAuthorizedProposer(ctx, addr, allowed); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update authorized proposers")
	}
	return nil
}

func (s *Service) canPropose(ctx context.Context, proposer id.Address) (bool, error) {
	balance, err := s.ledger.BalanceOf(ctx, proposer)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to look up proposer balance")
	}
	if balance.Cmp(id.OneToken) >= 0 {
		return true, nil
	}
	override, err := s.store.IsAuthorizedProposer(ctx, proposer)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check authorized proposers")
	}
	return override, nil
}

// publicVoteWeight enforces eligibility and returns the live balance used as
// vote weight. The balance is read at call time; later balance changes do
// not retroactively adjust tallies.
func (s *Service) publicVoteWeight(ctx context.Context, voter id.Address) (*big.Int, error) {
	if voter.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "voter address is required")
	}
	balance, err := s.ledger.BalanceOf(ctx, voter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to look up voter balance")
	}
	if balance.Cmp(id.OneToken) >= 0 {
		return balance, nil
	}
	hasAuth, err := s.authority.HasAuthority(ctx, voter)
	if err != nil {
		return nil, err
	}
	if !hasAuth {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "voter must hold voting weight")
	}
	return balance, nil
}

// distributeRelease mints one token to every snapshot address, in chunks
// with bounded parallelism. Each minted address gets a history record and an
// issued-total bump.
func (s *Service) distributeRelease(ctx context.Context, proposal Proposal, actingAuthority id.Address, approvedUsers []id.Address) error {
	if len(approvedUsers) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(releaseParallelism)
	for start := 0; start < len(approvedUsers); start += releaseChunkSize {
		chunk := approvedUsers[start:min(start+releaseChunkSize, len(approvedUsers))]
		g.Go(func() error {
			amounts := make([]*big.Int, len(chunk))
			for i := range amounts {
				amounts[i] = id.OneToken
			}
			if err := s.ledger.BatchMint(gctx, chunk, amounts); err != nil {
				return err
			}
			for _, addr := range chunk {
				if err := s.issuance.RecordIssuance(gctx, addr, id.OneToken); err != nil {
					return err
				}
				if err := s.historian.Record(gctx, history.Record{
					Address:         addr,
					Amount:          id.OneToken,
					Kind:            history.KindRelease,
					ActingAuthority: actingAuthority,
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "release distribution incomplete",
			"request_id", requestcontext.RequestID(ctx),
			"proposal_id", proposal.ID,
			"recipients", len(approvedUsers),
		)
		return dErrors.Wrap(err, dErrors.CodeUpstream, "proposal released but token distribution did not complete")
	}
	return nil
}
