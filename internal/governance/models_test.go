package governance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
)

func TestGateThreshold(t *testing.T) {
	cases := []struct {
		members, pct, want int
	}{
		{4, 50, 2},
		{5, 50, 3}, // rounds up
		{3, 50, 2},
		{1, 50, 1},
		{10, 100, 10},
		{7, 30, 3}, // 2.1 rounds up
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GateThreshold(tc.members, tc.pct),
			"%d members at %d%%", tc.members, tc.pct)
	}
}

func TestNewProposal(t *testing.T) {
	proposer := id.MustAddress("0x1111111111111111111111111111111111111111")
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("binary proposal starts at the gate", func(t *testing.T) {
		p, err := NewProposal(proposer, "fund the library", KindBinary, nil, now)
		require.NoError(t, err)
		assert.Equal(t, StatePendingApproval, p.State)
		assert.Nil(t, p.StartTime)
		assert.Empty(t, p.Options)
	})

	t.Run("multi-option gets the synthetic abstain option appended", func(t *testing.T) {
		p, err := NewProposal(proposer, "pick a venue", KindMultiOption, []string{"park", "hall"}, now)
		require.NoError(t, err)
		assert.Equal(t, []string{"park", "hall", NullOptionLabel}, p.Options)
		assert.Len(t, p.Ballot.OptionWeights, 3)
		assert.Len(t, p.Ballot.OptionVoterCounts, 3)
	})

	t.Run("validation failures", func(t *testing.T) {
		for name, tc := range map[string]struct {
			desc    string
			kind    Kind
			options []string
			code    dErrors.Code
		}{
			"blank description":       {"  ", KindBinary, nil, dErrors.CodeValidation},
			"binary with options":     {"d", KindBinary, []string{"a", "b"}, dErrors.CodeInvalidInput},
			"too few options":         {"d", KindMultiOption, []string{"a"}, dErrors.CodeInvalidInput},
			"too many options":        {"d", KindMultiOption, make([]string, MaxCallerOptions+1), dErrors.CodeInvalidInput},
			"blank option":            {"d", KindMultiOption, []string{"a", " "}, dErrors.CodeInvalidInput},
			"unknown kind":            {"d", "ranked", nil, dErrors.CodeInvalidInput},
		} {
			for i := range tc.options {
				if tc.options[i] == "" {
					tc.options[i] = "opt"
				}
			}
			_, err := NewProposal(proposer, tc.desc, tc.kind, tc.options, now)
			assert.True(t, dErrors.HasCode(err, tc.code), "%s: got %v", name, err)
		}
	})
}

func TestDerivedState(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p, err := NewProposal(id.MustAddress("0x1111111111111111111111111111111111111111"), "d", KindBinary, nil, now)
	require.NoError(t, err)

	assert.Equal(t, StatePendingApproval, p.DerivedState(now))

	p.ApplyRelease(now, time.Hour)
	assert.Equal(t, StateActive, p.DerivedState(now))
	assert.Equal(t, StateActive, p.DerivedState(now.Add(time.Hour)), "window closes strictly after the end instant")
	assert.Equal(t, StateEnded, p.DerivedState(now.Add(time.Hour+time.Second)))

	// Stored state is untouched; Ended is a read-time label.
	assert.Equal(t, StateActive, p.State)
}

func TestCanExecute(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p, err := NewProposal(id.MustAddress("0x1111111111111111111111111111111111111111"), "d", KindBinary, nil, now)
	require.NoError(t, err)

	t.Run("not executable at the gate", func(t *testing.T) {
		err := p.CanExecute(now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	p.ApplyRelease(now, time.Hour)

	t.Run("not executable while the window is open", func(t *testing.T) {
		err := p.CanExecute(now.Add(time.Minute))
		assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	t.Run("executable after the window", func(t *testing.T) {
		assert.NoError(t, p.CanExecute(now.Add(2*time.Hour)))
	})

	t.Run("execution is once only", func(t *testing.T) {
		p.ApplyExecution()
		err := p.CanExecute(now.Add(2 * time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
