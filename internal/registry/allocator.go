package registry

import "sync"

// Allocator issues record ids 1, 2, 3, ... and never reuses one.
type Allocator struct {
	mu   sync.Mutex
	last uint64
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next issues one id.
func (a *Allocator) Next() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last++
	return a.last
}

// NextBatch issues n contiguous ids. n == 0 returns an empty slice and leaves
// the counter where it was.
func (a *Allocator) NextBatch(n uint64) []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]uint64, n)
	for i := range ids {
		a.last++
		ids[i] = a.last
	}
	return ids
}

// Last returns the most recently issued id, 0 before the first.
func (a *Allocator) Last() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
