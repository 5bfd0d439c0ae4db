// Package replay optionally makes delegation signatures single-use.
//
// Delegation messages carry no nonce, so without a guard the same signature
// can mint again and again while its signer holds the role. A Guard records
// consumed (message, signer) pairs for a retention window.
package replay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Guard consumes a delegation key. Consume returns a CodeReplayed error when
// the key was already consumed within the retention window.
type Guard interface {
	Consume(ctx context.Context, key common.Hash) error
}

// Key identifies a delegation by what it authorizes and who signed it, so
// the two malleable encodings of one signature map to the same key.
func Key(messageHash common.Hash, signer common.Address) common.Hash {
	return crypto.Keccak256Hash(messageHash.Bytes(), signer.Bytes())
}

// Noop accepts every delegation, any number of times.
type Noop struct{}

func (Noop) Consume(context.Context, common.Hash) error { return nil }
