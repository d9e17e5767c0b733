package signature

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "dasigov/pkg/domain"
)

type PersonalSignSuite struct {
	suite.Suite
	verifier PersonalSign
}

func TestPersonalSignSuite(t *testing.T) {
	suite.Run(t, new(PersonalSignSuite))
}

func (s *PersonalSignSuite) SetupTest() {
	s.verifier = NewPersonalSign()
}

func (s *PersonalSignSuite) sign(t *testing.T, message string) ([]byte, id.Address) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	addr := id.MustAddress(crypto.PubkeyToAddress(key.PublicKey).Hex())
	return sig, addr
}

func (s *PersonalSignSuite) TestVerify() {
	const message = "I am Alice (key-1) and I control this wallet: 0xabc"

	s.Run("valid signature with raw recovery id", func() {
		sig, addr := s.sign(s.T(), message)
		s.True(s.verifier.Verify(message, sig, addr))
	})

	s.Run("valid signature with wallet-style recovery id", func() {
		sig, addr := s.sign(s.T(), message)
		// Browser wallets emit V as 27/28.
		sig[crypto.RecoveryIDOffset] += 27
		s.True(s.verifier.Verify(message, sig, addr))
	})

	s.Run("wrong claimed address fails", func() {
		sig, _ := s.sign(s.T(), message)
		other := id.MustAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b")
		s.False(s.verifier.Verify(message, sig, other))
	})

	s.Run("tampered message fails", func() {
		sig, addr := s.sign(s.T(), message)
		s.False(s.verifier.Verify(strings.Replace(message, "Alice", "Mallory", 1), sig, addr))
	})

	s.Run("truncated signature fails", func() {
		sig, addr := s.sign(s.T(), message)
		s.False(s.verifier.Verify(message, sig[:32], addr))
	})

	s.Run("zero claimed address fails", func() {
		sig, _ := s.sign(s.T(), message)
		s.False(s.verifier.Verify(message, sig, ""))
	})
}
