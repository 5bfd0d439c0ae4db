package replay

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	dErrors "docreg/pkg/domain-errors"
)

const defaultKeyPrefix = "docreg:delegation:"

// Redis shares consumed keys across processes with SET NX.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

type RedisOption func(*Redis)

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis keeps consumed keys for ttl. A non-positive ttl keeps them forever.
func NewRedis(client redis.Cmdable, ttl time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{client: client, ttl: ttl, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Consume(ctx context.Context, key common.Hash) error {
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	ok, err := r.client.SetNX(ctx, r.prefix+key.Hex(), 1, ttl).Result()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "replay guard unavailable")
	}
	if !ok {
		return dErrors.New(dErrors.CodeReplayed, "delegation signature already used")
	}
	return nil
}
