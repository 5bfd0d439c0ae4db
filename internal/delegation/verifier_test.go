package delegation

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	"docreg/internal/access"
	dErrors "docreg/pkg/domain-errors"
)

var (
	target    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	recipient = common.HexToAddress("0x2000000000000000000000000000000000000002")
	admin     = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

type VerifierSuite struct {
	suite.Suite
	ctx      context.Context
	roles    *access.Registry
	verifier *Verifier
	key      *ecdsa.PrivateKey
	signer   common.Address
}

func (s *VerifierSuite) SetupTest() {
	s.ctx = context.Background()
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.key = key
	s.signer = crypto.PubkeyToAddress(key.PublicKey)

	s.roles = access.New(admin)
	s.Require().NoError(s.roles.Grant(s.ctx, admin, access.MinterRole, s.signer))
	s.verifier = NewVerifier(s.roles)
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) sign(m Message) []byte {
	sig, err := Sign(m, s.key)
	s.Require().NoError(err)
	return sig
}

func (s *VerifierSuite) TestEncoding() {
	s.Run("mint packs action and two addresses", func() {
		packed := MintMessage(target, recipient).Pack()
		s.Len(packed, 4+20+20)
		s.Equal([]byte("mint"), packed[:4])
		s.Equal(target.Bytes(), packed[4:24])
	})

	s.Run("batch appends a 32-byte amount", func() {
		packed := BatchMessage(target, recipient, 4).Pack()
		s.Len(packed, 5+20+20+32)
		s.Equal(byte(4), packed[len(packed)-1])
		s.Equal(make([]byte, 31), packed[len(packed)-32:len(packed)-1])
	})

	s.Run("digest carries the personal-message prefix", func() {
		m := MintMessage(target, recipient)
		h := m.Hash()
		want := crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), h.Bytes())
		s.Equal(want, m.Digest())
	})
}

func (s *VerifierSuite) TestVerifyMint() {
	s.Run("accepts a signature from a role holder", func() {
		got, err := s.verifier.VerifyMint(s.sign(MintMessage(target, recipient)), target, recipient)
		s.Require().NoError(err)
		s.Equal(s.signer, got)
	})

	s.Run("accepts recovery ids 0 and 1", func() {
		sig := s.sign(MintMessage(target, recipient))
		sig[64] -= 27
		got, err := s.verifier.VerifyMint(sig, target, recipient)
		s.Require().NoError(err)
		s.Equal(s.signer, got)
	})

	s.Run("a different recipient recovers a different signer", func() {
		other := common.HexToAddress("0x4000000000000000000000000000000000000004")
		_, err := s.verifier.VerifyMint(s.sign(MintMessage(target, recipient)), target, other)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("a batch signature does not authorize a mint", func() {
		_, err := s.verifier.VerifyMint(s.sign(BatchMessage(target, recipient, 1)), target, recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("signer without the role is rejected", func() {
		key, err := crypto.GenerateKey()
		s.Require().NoError(err)
		sig, err := Sign(MintMessage(target, recipient), key)
		s.Require().NoError(err)

		got, err := s.verifier.VerifyMint(sig, target, recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(crypto.PubkeyToAddress(key.PublicKey), got)
	})

	s.Run("revocation invalidates earlier signatures", func() {
		sig := s.sign(MintMessage(target, recipient))
		s.Require().NoError(s.roles.Revoke(s.ctx, admin, access.MinterRole, s.signer))

		_, err := s.verifier.VerifyMint(sig, target, recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *VerifierSuite) TestVerifyBatch() {
	sig := s.sign(BatchMessage(target, recipient, 4))

	s.Run("matching amount is accepted", func() {
		got, err := s.verifier.VerifyBatch(sig, target, recipient, 4)
		s.Require().NoError(err)
		s.Equal(s.signer, got)
	})

	s.Run("amount is bound into the signature", func() {
		_, err := s.verifier.VerifyBatch(sig, target, recipient, 1000)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *VerifierSuite) TestMalformedSignatures() {
	good := s.sign(MintMessage(target, recipient))

	s.Run("wrong length", func() {
		_, err := s.verifier.VerifyMint(good[:64], target, recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("bad recovery id", func() {
		sig := append([]byte(nil), good...)
		sig[64] = 5
		_, err := s.verifier.VerifyMint(sig, target, recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("zero r and s", func() {
		sig := make([]byte, SignatureLength)
		sig[64] = 27
		_, err := s.verifier.VerifyMint(sig, target, recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})

	s.Run("high-s twin is rejected", func() {
		n := crypto.S256().Params().N
		sVal := new(big.Int).SetBytes(good[32:64])
		flipped := new(big.Int).Sub(n, sVal)

		sig := append([]byte(nil), good...)
		copy(sig[32:64], common.LeftPadBytes(flipped.Bytes(), 32))
		sig[64] = 55 - sig[64] // 27 <-> 28
		_, err := s.verifier.VerifyMint(sig, target, recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	})
}
