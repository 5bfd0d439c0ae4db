// Package delegation verifies signatures with which a MINTER_ROLE holder lets
// someone else mint on their behalf.
//
// The signed value is keccak256(action ‖ target ‖ recipient [‖ uint256 amount])
// using tight packing, wrapped in the EIP-191 personal-message prefix. Nothing
// else is bound: no nonce, no expiry, no chain id.
package delegation

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	dErrors "docreg/pkg/domain-errors"
)

// Action names the operation a signature authorizes.
type Action string

const (
	ActionMint  Action = "mint"
	ActionBatch Action = "batch"
)

// SignatureLength is r ‖ s ‖ v.
const SignatureLength = 65

// Message is the delegation payload reconstructed from call arguments.
// Amount is only encoded for ActionBatch.
type Message struct {
	Action    Action
	Target    common.Address
	Recipient common.Address
	Amount    uint64
}

func MintMessage(target, recipient common.Address) Message {
	return Message{Action: ActionMint, Target: target, Recipient: recipient}
}

func BatchMessage(target, recipient common.Address, amount uint64) Message {
	return Message{Action: ActionBatch, Target: target, Recipient: recipient, Amount: amount}
}

// Pack returns the tightly packed encoding.
func (m Message) Pack() []byte {
	out := make([]byte, 0, len(m.Action)+2*common.AddressLength+32)
	out = append(out, m.Action...)
	out = append(out, m.Target.Bytes()...)
	out = append(out, m.Recipient.Bytes()...)
	if m.Action == ActionBatch {
		out = append(out, common.LeftPadBytes(new(big.Int).SetUint64(m.Amount).Bytes(), 32)...)
	}
	return out
}

// Hash is keccak256 of the packed encoding.
func (m Message) Hash() common.Hash {
	return crypto.Keccak256Hash(m.Pack())
}

// Digest is the EIP-191 personal-message hash of Hash, which is what signers
// actually sign.
func (m Message) Digest() []byte {
	h := m.Hash()
	return accounts.TextHash(h.Bytes())
}

// Sign produces a 65-byte signature with v in {27, 28}.
func Sign(m Message, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(m.Digest(), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the address that signed m. Malformed signatures, high-s
// values and failed recoveries all yield CodeInvalidSignature.
func Recover(m Message, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidSignature, "signature must be 65 bytes")
	}
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	v := normalized[crypto.RecoveryIDOffset]
	switch v {
	case 27, 28:
		v -= 27
	case 0, 1:
	default:
		return common.Address{}, dErrors.New(dErrors.CodeInvalidSignature, "signature recovery id must be 0, 1, 27 or 28")
	}
	normalized[crypto.RecoveryIDOffset] = v

	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidSignature, "signature values out of range")
	}

	pub, err := crypto.SigToPub(m.Digest(), normalized)
	if err != nil {
		return common.Address{}, dErrors.Wrap(err, dErrors.CodeInvalidSignature, "signature does not recover")
	}
	return crypto.PubkeyToAddress(*pub), nil
}
