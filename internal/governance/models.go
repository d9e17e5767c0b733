// Package governance implements the proposal lifecycle: authority-gated
// release, token-weighted public voting, and lazy time-derived status.
package governance

import (
	"math/big"
	"strings"
	"time"

	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
)

// Kind distinguishes binary proposals from multi-option ballots.
type Kind string

const (
	KindBinary      Kind = "binary"
	KindMultiOption Kind = "multi_option"
)

// State is the stored lifecycle state. Ended is additionally derived from
// time on read; see Proposal.DerivedState.
type State string

const (
	// StatePendingApproval: awaiting the authority-tier gate. Every proposal
	// starts here; there is no direct path to Active.
	StatePendingApproval State = "pending_approval"
	// StateActive: public voting window open.
	StateActive State = "active"
	// StateEnded: window closed, not yet executed.
	StateEnded State = "ended"
	// StateExecuted: terminal.
	StateExecuted State = "executed"
	// StateRejected: the gate reached a rejection majority. Terminal.
	StateRejected State = "rejected"
)

// Choice is a binary-ballot vote.
type Choice string

const (
	ChoiceFor     Choice = "for"
	ChoiceAgainst Choice = "against"
	ChoiceAbstain Choice = "abstain"
)

// ParseChoice validates an externally supplied choice.
func ParseChoice(raw string) (Choice, error) {
	switch Choice(strings.ToLower(strings.TrimSpace(raw))) {
	case ChoiceFor:
		return ChoiceFor, nil
	case ChoiceAgainst:
		return ChoiceAgainst, nil
	case ChoiceAbstain:
		return ChoiceAbstain, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown vote choice %q", raw)
}

// NullOptionLabel is the synthetic abstain-equivalent option appended to
// every multi-option proposal.
const NullOptionLabel = "Null"

// Caller-supplied option count bounds for multi-option proposals.
const (
	MinCallerOptions = 2
	MaxCallerOptions = 10
)

// ApprovalBallot tracks the authority-tier gate vote. One member, one vote;
// weight never applies here.
type ApprovalBallot struct {
	ApproveVotes int
	RejectVotes  int
	Voters       map[id.Address]bool
}

// PublicBallot tracks the token-weighted public vote. For binary proposals
// the three named tallies are used; for multi-option proposals the parallel
// arrays align with Proposal.Options.
type PublicBallot struct {
	For          *big.Int
	Against      *big.Int
	Abstain      *big.Int
	ForCount     int
	AgainstCount int
	AbstainCount int

	OptionWeights     []*big.Int
	OptionVoterCounts []int

	Voters map[id.Address]bool
}

// Proposal is the aggregate for one governance question.
//
// Invariants:
//   - ID is sequential, assigned by the store
//   - Options is non-empty only for multi-option kind and always ends with
//     the synthetic Null option
//   - StartTime/EndTime are set exactly once, at gate release
//   - Executed implies State == StateExecuted
type Proposal struct {
	ID          uint64
	Proposer    id.Address
	Description string
	Kind        Kind
	Options     []string
	StartTime   *time.Time
	EndTime     *time.Time
	State       State
	Executed    bool
	Approval    ApprovalBallot
	Ballot      PublicBallot
	CreatedAt   time.Time
}

// NewProposal validates inputs and builds a proposal in the gate state.
// callerOptions applies only to multi-option kind; the synthetic Null option
// is appended here so every stored multi-option proposal carries it.
func NewProposal(proposer id.Address, description string, kind Kind, callerOptions []string, now time.Time) (Proposal, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Proposal{}, dErrors.New(dErrors.CodeValidation, "description is required")
	}

	p := Proposal{
		Proposer:    proposer,
		Description: description,
		Kind:        kind,
		State:       StatePendingApproval,
		Approval:    ApprovalBallot{Voters: make(map[id.Address]bool)},
		Ballot: PublicBallot{
			For:     big.NewInt(0),
			Against: big.NewInt(0),
			Abstain: big.NewInt(0),
			Voters:  make(map[id.Address]bool),
		},
		CreatedAt: now,
	}

	switch kind {
	case KindBinary:
		if len(callerOptions) != 0 {
			return Proposal{}, dErrors.New(dErrors.CodeInvalidInput, "binary proposals take no options")
		}
	case KindMultiOption:
		if len(callerOptions) < MinCallerOptions || len(callerOptions) > MaxCallerOptions {
			return Proposal{}, dErrors.Newf(dErrors.CodeInvalidInput,
				"multi-option proposals take between %d and %d options", MinCallerOptions, MaxCallerOptions)
		}
		for _, opt := range callerOptions {
			if strings.TrimSpace(opt) == "" {
				return Proposal{}, dErrors.New(dErrors.CodeInvalidInput, "options cannot be blank")
			}
		}
		p.Options = append(append([]string{}, callerOptions...), NullOptionLabel)
		p.Ballot.OptionWeights = make([]*big.Int, len(p.Options))
		for i := range p.Ballot.OptionWeights {
			p.Ballot.OptionWeights[i] = big.NewInt(0)
		}
		p.Ballot.OptionVoterCounts = make([]int, len(p.Options))
	default:
		return Proposal{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown proposal kind %q", kind)
	}
	return p, nil
}

// DerivedState recomputes the externally visible state from stored fields
// and now. The stored State stays Active after the window closes until the
// next write; reads must not require writes, so Ended is derived here.
func (p *Proposal) DerivedState(now time.Time) State {
	if p.State == StateActive && p.EndTime != nil && now.After(*p.EndTime) {
		return StateEnded
	}
	return p.State
}

// CanGateVote checks the approval-gate preconditions for voter.
func (p *Proposal) CanGateVote(voter id.Address) error {
	if p.State != StatePendingApproval {
		return dErrors.New(dErrors.CodePreconditionFailed, "proposal is not awaiting approval")
	}
	if p.Approval.Voters[voter] {
		return dErrors.New(dErrors.CodeConflict, "already voted on this proposal's approval")
	}
	return nil
}

// ApplyGateVote records one gate vote. Call CanGateVote first.
func (p *Proposal) ApplyGateVote(voter id.Address, approve bool) {
	p.Approval.Voters[voter] = true
	if approve {
		p.Approval.ApproveVotes++
	} else {
		p.Approval.RejectVotes++
	}
}

// GateThreshold is the number of same-direction gate votes required, for a
// member tier of the given size. Rounds up so a structural minority cannot
// veto through truncation.
func GateThreshold(totalMembers, quorumPercentage int) int {
	return (totalMembers*quorumPercentage + 99) / 100
}

// ApplyRelease opens the public voting window.
func (p *Proposal) ApplyRelease(now time.Time, votingPeriod time.Duration) {
	start := now
	end := now.Add(votingPeriod)
	p.State = StateActive
	p.StartTime = &start
	p.EndTime = &end
}

// ApplyGateRejection terminates the proposal at the gate.
func (p *Proposal) ApplyGateRejection() {
	p.State = StateRejected
}

// CanPublicVote checks window and double-vote preconditions. Eligibility
// (weight or authority) is the service's concern; the window is the model's.
func (p *Proposal) CanPublicVote(voter id.Address, now time.Time) error {
	switch p.DerivedState(now) {
	case StateActive:
	case StatePendingApproval:
		return dErrors.New(dErrors.CodePreconditionFailed, "proposal has not been released for voting")
	case StateRejected:
		return dErrors.New(dErrors.CodePreconditionFailed, "proposal was rejected at the approval gate")
	default:
		return dErrors.New(dErrors.CodePreconditionFailed, "voting window is closed")
	}
	if p.Ballot.Voters[voter] {
		return dErrors.New(dErrors.CodeConflict, "already voted on this proposal")
	}
	return nil
}

// ApplyBinaryVote adds weight to the chosen tally. Call CanPublicVote first.
func (p *Proposal) ApplyBinaryVote(voter id.Address, choice Choice, weight *big.Int) {
	p.Ballot.Voters[voter] = true
	switch choice {
	case ChoiceFor:
		p.Ballot.For = new(big.Int).Add(p.Ballot.For, weight)
		p.Ballot.ForCount++
	case ChoiceAgainst:
		p.Ballot.Against = new(big.Int).Add(p.Ballot.Against, weight)
		p.Ballot.AgainstCount++
	case ChoiceAbstain:
		p.Ballot.Abstain = new(big.Int).Add(p.Ballot.Abstain, weight)
		p.Ballot.AbstainCount++
	}
}

// ValidOptionIndex reports whether i addresses a stored option, including
// the synthetic Null.
func (p *Proposal) ValidOptionIndex(i int) bool {
	return i >= 0 && i < len(p.Options)
}

// ApplyOptionVote adds weight to one option's tally. Call CanPublicVote and
// ValidOptionIndex first.
func (p *Proposal) ApplyOptionVote(voter id.Address, optionIndex int, weight *big.Int) {
	p.Ballot.Voters[voter] = true
	p.Ballot.OptionWeights[optionIndex] = new(big.Int).Add(p.Ballot.OptionWeights[optionIndex], weight)
	p.Ballot.OptionVoterCounts[optionIndex]++
}

// CanExecute checks the execution preconditions against now.
func (p *Proposal) CanExecute(now time.Time) error {
	if p.Executed {
		return dErrors.New(dErrors.CodeConflict, "proposal is already executed")
	}
	switch p.DerivedState(now) {
	case StateEnded:
		return nil
	case StateActive:
		return dErrors.New(dErrors.CodePreconditionFailed, "voting window is still open")
	default:
		return dErrors.New(dErrors.CodePreconditionFailed, "proposal is not in an executable state")
	}
}

// ApplyExecution marks the proposal executed. Pass/fail interpretation is a
// read-only property of the tallies; execution itself has no further effect
// at this layer.
func (p *Proposal) ApplyExecution() {
	p.Executed = true
	p.State = StateExecuted
}
