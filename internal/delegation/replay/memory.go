package replay

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	dErrors "docreg/pkg/domain-errors"
)

// Memory is a process-local Guard. Expired entries are pruned lazily on
// Consume.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	seen     map[common.Hash]time.Time
	now      func() time.Time
	lastScan time.Time
}

type MemoryOption func(*Memory)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory keeps consumed keys for ttl. A non-positive ttl keeps them forever.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		ttl:  ttl,
		seen: make(map[common.Hash]time.Time),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Consume(_ context.Context, key common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(now)

	if expires, ok := m.seen[key]; ok && (m.ttl <= 0 || now.Before(expires)) {
		return dErrors.New(dErrors.CodeReplayed, "delegation signature already used")
	}
	m.seen[key] = now.Add(m.ttl)
	return nil
}

// Len reports the number of retained keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func (m *Memory) prune(now time.Time) {
	if m.ttl <= 0 || now.Sub(m.lastScan) < m.ttl {
		return
	}
	for k, expires := range m.seen {
		if !now.Before(expires) {
			delete(m.seen, k)
		}
	}
	m.lastScan = now
}
