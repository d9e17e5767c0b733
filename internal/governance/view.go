package governance

import (
	"context"
	"time"

	id "dasigov/pkg/domain"
)

// View is the read model the transport layer serves. State is the derived
// label, so a nominally Active proposal past its window reads as Ended
// without any write having happened.
type View struct {
	ID          uint64     `json:"id"`
	Proposer    id.Address `json:"proposer"`
	Description string     `json:"description"`
	Kind        Kind       `json:"kind"`
	State       State      `json:"state"`
	Executed    bool       `json:"executed"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`

	For          string `json:"for,omitempty"`
	Against      string `json:"against,omitempty"`
	Abstain      string `json:"abstain,omitempty"`
	ForCount     int    `json:"for_count,omitempty"`
	AgainstCount int    `json:"against_count,omitempty"`
	AbstainCount int    `json:"abstain_count,omitempty"`

	Options []OptionTally `json:"options,omitempty"`

	Approval *ApprovalInfo `json:"approval,omitempty"`
}

// OptionTally is one multi-option row: name, weighted tally, voter count.
type OptionTally struct {
	Name       string `json:"name"`
	Weight     string `json:"weight"`
	VoterCount int    `json:"voter_count"`
}

// ApprovalInfo describes gate progress while a proposal awaits release.
type ApprovalInfo struct {
	TotalMembers  int `json:"total_members"`
	ApproveVotes  int `json:"approve_votes"`
	RejectVotes   int `json:"reject_votes"`
	RequiredVotes int `json:"required_votes"`
	VoterCount    int `json:"voter_count"`
}

func (s *Service) view(ctx context.Context, p Proposal, now time.Time) View {
	v := View{
		ID:          p.ID,
		Proposer:    p.Proposer,
		Description: p.Description,
		Kind:        p.Kind,
		State:       p.DerivedState(now),
		Executed:    p.Executed,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
	}

	switch p.Kind {
	case KindBinary:
		v.For = id.FormatAmount(p.Ballot.For)
		v.Against = id.FormatAmount(p.Ballot.Against)
		v.Abstain = id.FormatAmount(p.Ballot.Abstain)
		v.ForCount = p.Ballot.ForCount
		v.AgainstCount = p.Ballot.AgainstCount
		v.AbstainCount = p.Ballot.AbstainCount
	case KindMultiOption:
		v.Options = make([]OptionTally, len(p.Options))
		for i, name := range p.Options {
			v.Options[i] = OptionTally{
				Name:       name,
				Weight:     id.FormatAmount(p.Ballot.OptionWeights[i]),
				VoterCount: p.Ballot.OptionVoterCounts[i],
			}
		}
	}

	if p.State == StatePendingApproval {
		info := &ApprovalInfo{
			ApproveVotes: p.Approval.ApproveVotes,
			RejectVotes:  p.Approval.RejectVotes,
			VoterCount:   len(p.Approval.Voters),
		}
		if members, err := s.authority.Members(ctx); err == nil {
			info.TotalMembers = len(members)
			info.RequiredVotes = GateThreshold(len(members), s.cfg.OwnerQuorumPercentage)
		}
		v.Approval = info
	}
	return v
}
