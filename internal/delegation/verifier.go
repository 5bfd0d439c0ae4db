package delegation

import (
	"github.com/ethereum/go-ethereum/common"

	"docreg/internal/access"
	dErrors "docreg/pkg/domain-errors"
)

// RoleChecker reports live role membership.
type RoleChecker interface {
	HasRole(role access.Role, account common.Address) bool
}

// Verifier accepts a delegation when the recovered signer holds the required
// role at verification time. Revoking the signer's role invalidates every
// signature it issued earlier.
type Verifier struct {
	roles RoleChecker
	role  access.Role
}

type VerifierOption func(*Verifier)

// WithRole overrides the role a signer must hold. Defaults to MinterRole.
func WithRole(role access.Role) VerifierOption {
	return func(v *Verifier) {
		v.role = role
	}
}

func NewVerifier(roles RoleChecker, opts ...VerifierOption) *Verifier {
	v := &Verifier{roles: roles, role: access.MinterRole}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyMint checks a single-mint delegation and returns the signer.
func (v *Verifier) VerifyMint(sig []byte, target, recipient common.Address) (common.Address, error) {
	return v.Verify(MintMessage(target, recipient), sig)
}

// VerifyBatch checks a batch delegation. The amount is part of the signed
// message, so a signature for 4 records never authorizes 1000.
func (v *Verifier) VerifyBatch(sig []byte, target, recipient common.Address, amount uint64) (common.Address, error) {
	return v.Verify(BatchMessage(target, recipient, amount), sig)
}

func (v *Verifier) Verify(m Message, sig []byte) (common.Address, error) {
	signer, err := Recover(m, sig)
	if err != nil {
		return common.Address{}, err
	}
	if !v.roles.HasRole(v.role, signer) {
		return signer, dErrors.New(dErrors.CodeUnauthorized, "delegation signer is missing "+v.role.String())
	}
	return signer, nil
}
