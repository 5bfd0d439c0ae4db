package metadata

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	dErrors "docreg/pkg/domain-errors"
	"docreg/pkg/platform/sentinel"
)

// Directory resolves provider handles. A handle is the address a provider was
// deployed under.
type Directory struct {
	mu        sync.RWMutex
	providers map[common.Address]Provider
}

func NewDirectory() *Directory {
	return &Directory{providers: make(map[common.Address]Provider)}
}

// Register binds handle to p. Re-registering a handle returns sentinel.ErrConflict.
func (d *Directory) Register(handle common.Address, p Provider) error {
	if handle == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata handle is required")
	}
	if p == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata provider is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.providers[handle]; exists {
		return sentinel.ErrConflict
	}
	d.providers[handle] = p
	return nil
}

// Lookup returns sentinel.ErrNotFound for unknown handles.
func (d *Directory) Lookup(handle common.Address) (Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.providers[handle]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p, nil
}

func (d *Directory) Handles() []common.Address {
	d.mu.RLock()
	out := make([]common.Address, 0, len(d.providers))
	for h := range d.providers {
		out = append(out, h)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
