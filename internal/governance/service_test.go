package governance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dasigov/internal/authority"
	"dasigov/internal/history"
	"dasigov/internal/ledger"
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/requestcontext"
)

// =============================================================================
// Governance Service Test Suite
// =============================================================================
// Four authority members at a 50% quorum put the gate threshold at 2, which
// lets the tests walk a proposal through every transition with the smallest
// number of votes.

var (
	govRoot = id.MustAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	m1      = id.MustAddress("0x1111111111111111111111111111111111111111")
	m2      = id.MustAddress("0x2222222222222222222222222222222222222222")
	m3      = id.MustAddress("0x3333333333333333333333333333333333333333")
	m4      = id.MustAddress("0x4444444444444444444444444444444444444444")
	rich    = id.MustAddress("0x5555555555555555555555555555555555555555")
	poor    = id.MustAddress("0x6666666666666666666666666666666666666666")
)

// issuanceStub records mirror calls without a full registration pipeline.
type issuanceStub struct {
	mu    sync.Mutex
	calls map[id.Address]*big.Int
}

func newIssuanceStub() *issuanceStub {
	return &issuanceStub{calls: make(map[id.Address]*big.Int)}
}

func (r *issuanceStub) RecordIssuance(_ context.Context, addr id.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	total, ok := r.calls[addr]
	if !ok {
		total = big.NewInt(0)
	}
	r.calls[addr] = new(big.Int).Add(total, amount)
	return nil
}

type GovernanceServiceSuite struct {
	suite.Suite
	store     *InMemory
	auth      *authority.Service
	ledger    *ledger.InMemory
	history   *history.Service
	histStore *history.InMemory
	issuance  *issuanceStub
	service   *Service
	now       time.Time
	ctx       context.Context
}

func TestGovernanceServiceSuite(t *testing.T) {
	suite.Run(t, new(GovernanceServiceSuite))
}

func (s *GovernanceServiceSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.auth = authority.NewService(authority.NewInMemory(), log)
	s.Require().NoError(s.auth.SetRoot(context.Background(), govRoot))
	for _, m := range []id.Address{m1, m2, m3, m4} {
		s.Require().NoError(s.auth.AddMember(context.Background(), m, govRoot))
	}

	s.store = NewInMemory()
	s.ledger = ledger.NewInMemory()
	s.histStore = history.NewInMemory()
	s.history = history.NewService(s.histStore, log)
	s.issuance = newIssuanceStub()
	s.service = NewService(s.store, s.auth, s.ledger, s.history, s.issuance,
		Config{OwnerQuorumPercentage: 50, VotingPeriod: 24 * time.Hour}, nil, log)

	s.ledger.SetBalance(rich, new(big.Int).Mul(big.NewInt(2), id.OneToken))

	s.now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *GovernanceServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *GovernanceServiceSuite) create(proposer id.Address) View {
	view, err := s.service.CreateProposal(s.ctx, proposer, "fund the library", KindBinary, nil)
	s.Require().NoError(err)
	return view
}

// release walks a proposal through the gate with two approving members.
func (s *GovernanceServiceSuite) release(proposalID uint64, recipients []id.Address) View {
	_, err := s.service.VoteOnApproval(s.ctx, proposalID, m1, true, recipients)
	s.Require().NoError(err)
	view, err := s.service.VoteOnApproval(s.ctx, proposalID, m2, true, recipients)
	s.Require().NoError(err)
	return view
}

// =============================================================================
// Proposal Creation Tests
// =============================================================================

func (s *GovernanceServiceSuite) TestCreateProposal() {
	s.Run("token holder creates a binary proposal", func() {
		view := s.create(rich)
		s.Equal(uint64(1), view.ID)
		s.Equal(StatePendingApproval, view.State)
		s.Require().NotNil(view.Approval)
		s.Equal(4, view.Approval.TotalMembers)
		s.Equal(2, view.Approval.RequiredVotes)
	})

	s.Run("ids are sequential", func() {
		view := s.create(rich)
		s.Equal(uint64(2), view.ID)
	})

	s.Run("token-less proposer is rejected", func() {
		_, err := s.service.CreateProposal(s.ctx, poor, "d", KindBinary, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("authorized-proposer override admits a token-less proposer", func() {
		s.Require().NoError(s.service.SetAuthorizedProposer(s.ctx, poor, true, govRoot))
		_, err := s.service.CreateProposal(s.ctx, poor, "d", KindBinary, nil)
		s.NoError(err)

		s.Require().NoError(s.service.SetAuthorizedProposer(s.ctx, poor, false, govRoot))
		_, err = s.service.CreateProposal(s.ctx, poor, "d", KindBinary, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("override management requires authority", func() {
		err := s.service.SetAuthorizedProposer(s.ctx, poor, true, rich)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("multi-option requires authority", func() {
		_, err := s.service.CreateProposal(s.ctx, rich, "pick", KindMultiOption, []string{"a", "b"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		s.ledger.SetBalance(m1, id.OneToken)
		view, err := s.service.CreateProposal(s.ctx, m1, "pick", KindMultiOption, []string{"a", "b"})
		s.NoError(err)
		s.Len(view.Options, 3)
		s.Equal(NullOptionLabel, view.Options[2].Name)
	})
}

// =============================================================================
// Approval Gate Tests
// =============================================================================

func (s *GovernanceServiceSuite) TestVoteOnApproval() {
	view := s.create(rich)

	s.Run("requires authority", func() {
		_, err := s.service.VoteOnApproval(s.ctx, view.ID, rich, true, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown proposal is not found", func() {
		_, err := s.service.VoteOnApproval(s.ctx, 99, m1, true, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("first approval leaves the proposal at the gate", func() {
		got, err := s.service.VoteOnApproval(s.ctx, view.ID, m1, true, nil)
		s.Require().NoError(err)
		s.Equal(StatePendingApproval, got.State)
		s.Require().NotNil(got.Approval)
		s.Equal(1, got.Approval.ApproveVotes)
	})

	s.Run("same member cannot vote twice", func() {
		_, err := s.service.VoteOnApproval(s.ctx, view.ID, m1, false, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("second approval releases and opens the window", func() {
		got, err := s.service.VoteOnApproval(s.ctx, view.ID, m2, true, []id.Address{poor})
		s.Require().NoError(err)
		s.Equal(StateActive, got.State)
		s.Require().NotNil(got.StartTime)
		s.Equal(s.now, *got.StartTime)
		s.Equal(s.now.Add(24*time.Hour), *got.EndTime)
		s.Nil(got.Approval, "gate progress disappears once released")
	})

	s.Run("release distributed one token to the snapshot", func() {
		bal, err := s.ledger.BalanceOf(s.ctx, poor)
		s.NoError(err)
		s.Zero(bal.Cmp(id.OneToken))

		s.Zero(s.issuance.calls[poor].Cmp(id.OneToken))

		records, err := s.history.List(s.ctx, history.KindRelease)
		s.NoError(err)
		s.Require().Len(records, 1)
		s.Equal(poor, records[0].Address)
		s.Equal(m2, records[0].ActingAuthority)
	})

	s.Run("gate is closed after release", func() {
		_, err := s.service.VoteOnApproval(s.ctx, view.ID, m3, true, nil)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}

func (s *GovernanceServiceSuite) TestGateRejection() {
	view := s.create(rich)

	_, err := s.service.VoteOnApproval(s.ctx, view.ID, m1, false, nil)
	s.Require().NoError(err)
	got, err := s.service.VoteOnApproval(s.ctx, view.ID, m2, false, nil)
	s.Require().NoError(err)
	s.Equal(StateRejected, got.State)

	s.Run("rejected proposals accept no public votes", func() {
		_, err := s.service.Vote(s.ctx, view.ID, rich, ChoiceFor)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("rejection distributes nothing", func() {
		records, err := s.history.List(s.ctx, history.KindRelease)
		s.NoError(err)
		s.Empty(records)
	})
}

func (s *GovernanceServiceSuite) TestGateRequiresMembers() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rootOnly := authority.NewService(authority.NewInMemory(), log)
	s.Require().NoError(rootOnly.SetRoot(context.Background(), govRoot))
	svc := NewService(s.store, rootOnly, s.ledger, s.history, s.issuance,
		Config{OwnerQuorumPercentage: 50, VotingPeriod: 24 * time.Hour}, nil, log)

	view := s.create(rich)
	_, err := svc.VoteOnApproval(s.ctx, view.ID, govRoot, true, nil)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *GovernanceServiceSuite) TestReleaseDistributionFailure() {
	view := s.create(rich)
	_, err := s.service.VoteOnApproval(s.ctx, view.ID, m1, true, []id.Address{poor})
	s.Require().NoError(err)

	s.ledger.FailMint = errors.New("rpc unreachable")
	got, err := s.service.VoteOnApproval(s.ctx, view.ID, m2, true, []id.Address{poor})
	s.True(dErrors.HasCode(err, dErrors.CodeUpstream))

	// The release itself is durable; only the distribution failed.
	s.Equal(StateActive, got.State)
	state, err := s.service.GetStatus(s.ctx, view.ID)
	s.NoError(err)
	s.Equal(StateActive, state)
}

// =============================================================================
// Public Voting Tests
// =============================================================================

func (s *GovernanceServiceSuite) TestVote() {
	view := s.create(rich)

	s.Run("no votes before release", func() {
		_, err := s.service.Vote(s.ctx, view.ID, rich, ChoiceFor)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.release(view.ID, nil)

	s.Run("vote weight is the live balance", func() {
		got, err := s.service.Vote(s.ctx, view.ID, rich, ChoiceFor)
		s.Require().NoError(err)
		s.Equal("2", got.For)
		s.Equal(1, got.ForCount)
	})

	s.Run("double voting conflicts", func() {
		_, err := s.service.Vote(s.ctx, view.ID, rich, ChoiceAgainst)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("token-less outsider cannot vote", func() {
		_, err := s.service.Vote(s.ctx, view.ID, poor, ChoiceFor)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("token-less authority votes with zero weight", func() {
		got, err := s.service.Vote(s.ctx, view.ID, m3, ChoiceAgainst)
		s.Require().NoError(err)
		s.Equal("0", got.Against)
		s.Equal(1, got.AgainstCount)
	})

	s.Run("abstain is tallied separately", func() {
		s.ledger.SetBalance(m4, id.OneToken)
		got, err := s.service.Vote(s.ctx, view.ID, m4, ChoiceAbstain)
		s.Require().NoError(err)
		s.Equal("1", got.Abstain)
		s.Equal(1, got.AbstainCount)
	})

	s.Run("window closes by time alone", func() {
		late := s.at(s.now.Add(25 * time.Hour))
		s.ledger.SetBalance(poor, id.OneToken)
		_, err := s.service.Vote(late, view.ID, poor, ChoiceFor)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

		state, err := s.service.GetStatus(late, view.ID)
		s.NoError(err)
		s.Equal(StateEnded, state)
	})
}

func (s *GovernanceServiceSuite) TestVoteMultiOption() {
	s.ledger.SetBalance(m1, id.OneToken)
	view, err := s.service.CreateProposal(s.ctx, m1, "pick a venue", KindMultiOption, []string{"park", "hall"})
	s.Require().NoError(err)
	s.release(view.ID, nil)

	s.Run("binary votes are rejected on a multi-option ballot", func() {
		_, err := s.service.Vote(s.ctx, view.ID, rich, ChoiceFor)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("vote lands on the chosen option", func() {
		got, err := s.service.VoteMultiOption(s.ctx, view.ID, rich, 0)
		s.Require().NoError(err)
		s.Equal("2", got.Options[0].Weight)
		s.Equal(1, got.Options[0].VoterCount)
	})

	s.Run("the synthetic abstain option is votable", func() {
		got, err := s.service.VoteMultiOption(s.ctx, view.ID, m1, 2)
		s.Require().NoError(err)
		s.Equal(NullOptionLabel, got.Options[2].Name)
		s.Equal(1, got.Options[2].VoterCount)
	})

	s.Run("out-of-range index is invalid", func() {
		s.ledger.SetBalance(m2, id.OneToken)
		_, err := s.service.VoteMultiOption(s.ctx, view.ID, m2, 3)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		_, err = s.service.VoteMultiOption(s.ctx, view.ID, m2, -1)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("option votes are rejected on a binary ballot", func() {
		binary := s.create(rich)
		s.release(binary.ID, nil)
		_, err := s.service.VoteMultiOption(s.ctx, binary.ID, rich, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Execution Tests
// =============================================================================

func (s *GovernanceServiceSuite) TestExecuteProposal() {
	view := s.create(rich)
	s.release(view.ID, nil)
	late := s.at(s.now.Add(25 * time.Hour))

	s.Run("anonymous caller is rejected", func() {
		_, err := s.service.ExecuteProposal(late, view.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("not executable while the window is open", func() {
		_, err := s.service.ExecuteProposal(s.ctx, view.ID, rich)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("any caller executes after the window", func() {
		got, err := s.service.ExecuteProposal(late, view.ID, poor)
		s.Require().NoError(err)
		s.Equal(StateExecuted, got.State)
		s.True(got.Executed)
	})

	s.Run("execution is once only", func() {
		_, err := s.service.ExecuteProposal(late, view.ID, rich)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// Read Model Tests
// =============================================================================

func (s *GovernanceServiceSuite) TestListProposals() {
	s.create(rich)
	second := s.create(rich)
	s.release(second.ID, nil)

	views, err := s.service.ListProposals(s.ctx)
	s.NoError(err)
	s.Require().Len(views, 2)
	s.Equal(StatePendingApproval, views[0].State)
	s.Equal(StateActive, views[1].State)
}

func (s *GovernanceServiceSuite) TestGetProposal() {
	_, err := s.service.GetProposal(s.ctx, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	view := s.create(rich)
	got, err := s.service.GetProposal(s.ctx, view.ID)
	s.NoError(err)
	s.Equal("fund the library", got.Description)
}
