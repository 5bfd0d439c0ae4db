package replay

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docreg/pkg/domain-errors"
)

func TestMemoryGuard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 8, 29, 14, 35, 1, 0, time.UTC)
	clock := func() time.Time { return now }

	msg := crypto.Keccak256Hash([]byte("mint"))
	signer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	key := Key(msg, signer)

	t.Run("second consume within ttl is a replay", func(t *testing.T) {
		g := NewMemory(time.Hour, WithClock(clock))
		require.NoError(t, g.Consume(ctx, key))
		err := g.Consume(ctx, key)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeReplayed))
	})

	t.Run("key is usable again after expiry", func(t *testing.T) {
		g := NewMemory(time.Hour, WithClock(clock))
		require.NoError(t, g.Consume(ctx, key))

		now = now.Add(2 * time.Hour)
		require.NoError(t, g.Consume(ctx, key))
		assert.Equal(t, 1, g.Len())
	})

	t.Run("zero ttl never forgets", func(t *testing.T) {
		g := NewMemory(0, WithClock(clock))
		require.NoError(t, g.Consume(ctx, key))
		now = now.Add(24 * 365 * time.Hour)
		assert.True(t, dErrors.HasCode(g.Consume(ctx, key), dErrors.CodeReplayed))
	})

	t.Run("keys differ per signer", func(t *testing.T) {
		other := common.HexToAddress("0x00000000000000000000000000000000000000bb")
		assert.NotEqual(t, key, Key(msg, other))
	})

	t.Run("noop accepts repeats", func(t *testing.T) {
		var g Guard = Noop{}
		require.NoError(t, g.Consume(ctx, key))
		require.NoError(t, g.Consume(ctx, key))
	})
}
