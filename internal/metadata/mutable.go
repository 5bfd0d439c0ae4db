package metadata

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"docreg/internal/access"
	dErrors "docreg/pkg/domain-errors"
)

// RoleChecker reports live role membership.
type RoleChecker interface {
	HasRole(role access.Role, account common.Address) bool
}

// Mutable is a provider whose descriptor CURATOR_ROLE holders can replace.
type Mutable struct {
	mu    sync.RWMutex
	desc  Descriptor
	roles RoleChecker
}

func NewMutable(desc Descriptor, roles RoleChecker) (*Mutable, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Mutable{desc: desc, roles: roles}, nil
}

func (m *Mutable) Describe() Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.desc
}

func (m *Mutable) URIFor(id uint64) string {
	return m.Describe().URIFor(id)
}

// Update swaps the descriptor.
func (m *Mutable) Update(_ context.Context, caller common.Address, desc Descriptor) error {
	if !m.roles.HasRole(access.CuratorRole, caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is missing CURATOR_ROLE")
	}
	if err := desc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.desc = desc
	m.mu.Unlock()
	return nil
}
