package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want *big.Int
	}{
		{"1", OneToken},
		{"0", big.NewInt(0)},
		{"2.5", new(big.Int).Mul(big.NewInt(25), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))},
		{".5", new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))},
		{"0.000000000000000001", big.NewInt(1)},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.raw)
		require.NoError(t, err, "input %q", tc.raw)
		assert.Zero(t, tc.want.Cmp(got), "input %q: want %s got %s", tc.raw, tc.want, got)
	}

	t.Run("rejects bad input", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "-1", "1.2.3", "0.0000000000000000001"} {
			_, err := ParseAmount(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})
}

func TestFormatAmount(t *testing.T) {
	half := new(big.Int).Div(OneToken, big.NewInt(2))
	assert.Equal(t, "0", FormatAmount(nil))
	assert.Equal(t, "0", FormatAmount(big.NewInt(0)))
	assert.Equal(t, "1", FormatAmount(OneToken))
	assert.Equal(t, "0.5", FormatAmount(half))
	assert.Equal(t, "2.5", FormatAmount(new(big.Int).Add(OneToken, new(big.Int).Add(OneToken, half))))
	assert.Equal(t, "0.000000000000000001", FormatAmount(big.NewInt(1)))
}

func TestAmountRoundTrip(t *testing.T) {
	for _, raw := range []string{"1", "2.5", "0.000000000000000001", "1000000"} {
		parsed, err := ParseAmount(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, FormatAmount(parsed))
	}
}
