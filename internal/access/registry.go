package access

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	dErrors "docreg/pkg/domain-errors"
)

// ChangeKind classifies a committed role mutation.
type ChangeKind string

const (
	ChangeGranted      ChangeKind = "role_granted"
	ChangeRevoked      ChangeKind = "role_revoked"
	ChangeAdminChanged ChangeKind = "role_admin_changed"
)

// Change describes one committed mutation. Account is zero for admin changes;
// PreviousAdmin and NewAdmin are only set for admin changes.
type Change struct {
	Kind          ChangeKind
	Role          Role
	Account       common.Address
	Sender        common.Address
	PreviousAdmin Role
	NewAdmin      Role
}

// Observer is called after a mutation commits. It runs outside the role lock
// but while every lock attached with AddLockedObserver is still held, so it
// must not call back into the role registry's mutators.
type Observer func(ctx context.Context, change Change)

type hook struct {
	lock sync.Locker
	fn   Observer
}

// Registry maps roles to member sets. Each role is administered by another
// role, DefaultAdminRole unless changed with SetRoleAdmin.
type Registry struct {
	mu        sync.RWMutex
	members   map[Role]map[common.Address]struct{}
	admins    map[Role]Role
	observers []hook
	logger    *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithObserver registers fn to be told about every effective change.
func WithObserver(fn Observer) Option {
	return func(r *Registry) {
		r.observers = append(r.observers, hook{fn: fn})
	}
}

// New creates a registry where admin holds DefaultAdminRole. A zero admin
// yields a registry nobody can administer.
func New(admin common.Address, opts ...Option) *Registry {
	r := &Registry{
		members: make(map[Role]map[common.Address]struct{}),
		admins:  make(map[Role]Role),
	}
	for _, opt := range opts {
		opt(r)
	}
	if admin != (common.Address{}) {
		r.add(DefaultAdminRole, admin)
	}
	return r
}

// AddObserver attaches fn after construction, for owners that are built after
// their role registry.
func (r *Registry) AddObserver(fn Observer) {
	r.AddLockedObserver(nil, fn)
}

// AddLockedObserver attaches fn together with the lock guarding the state fn
// writes. Every mutation takes lock before the role lock and keeps it until
// all observers have run, so a role change and its observation form one
// critical section for lock's owner. Lock order is lock, then the role lock:
// owners may call HasRole while holding lock but must never mutate roles.
func (r *Registry) AddLockedObserver(lock sync.Locker, fn Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, hook{lock: lock, fn: fn})
}

func (r *Registry) HasRole(role Role, account common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.has(role, account)
}

// RoleAdmin returns the role whose holders may grant and revoke role.
func (r *Registry) RoleAdmin(role Role) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admins[role]
}

// Members lists the holders of role in byte order.
func (r *Registry) Members(role Role) []common.Address {
	r.mu.RLock()
	out := make([]common.Address, 0, len(r.members[role]))
	for addr := range r.members[role] {
		out = append(out, addr)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// Grant gives role to account. Granting a role the account already holds
// succeeds without emitting a change.
func (r *Registry) Grant(ctx context.Context, caller common.Address, role Role, account common.Address) error {
	if account == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	observers, release := r.acquire()
	defer release()

	r.mu.Lock()
	if !r.has(r.admins[role], caller) {
		r.mu.Unlock()
		r.logDenied(ctx, "grant", caller, role)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is missing the admin role for "+role.String())
	}
	changed := r.add(role, account)
	r.mu.Unlock()

	if changed {
		r.notify(ctx, observers, Change{Kind: ChangeGranted, Role: role, Account: account, Sender: caller})
	}
	return nil
}

// Revoke removes role from account; revoking a missing role is a no-op.
func (r *Registry) Revoke(ctx context.Context, caller common.Address, role Role, account common.Address) error {
	observers, release := r.acquire()
	defer release()

	r.mu.Lock()
	if !r.has(r.admins[role], caller) {
		r.mu.Unlock()
		r.logDenied(ctx, "revoke", caller, role)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is missing the admin role for "+role.String())
	}
	changed := r.remove(role, account)
	r.mu.Unlock()

	if changed {
		r.notify(ctx, observers, Change{Kind: ChangeRevoked, Role: role, Account: account, Sender: caller})
	}
	return nil
}

// Renounce drops role from the caller itself. No admin is needed.
func (r *Registry) Renounce(ctx context.Context, caller common.Address, role Role) error {
	observers, release := r.acquire()
	defer release()

	r.mu.Lock()
	changed := r.remove(role, caller)
	r.mu.Unlock()

	if changed {
		r.notify(ctx, observers, Change{Kind: ChangeRevoked, Role: role, Account: caller, Sender: caller})
	}
	return nil
}

// SetRoleAdmin makes adminRole the administering role of role. Only holders of
// DefaultAdminRole may re-parent roles.
func (r *Registry) SetRoleAdmin(ctx context.Context, caller common.Address, role, adminRole Role) error {
	observers, release := r.acquire()
	defer release()

	r.mu.Lock()
	if !r.has(DefaultAdminRole, caller) {
		r.mu.Unlock()
		r.logDenied(ctx, "set_role_admin", caller, role)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is missing DEFAULT_ADMIN_ROLE")
	}
	previous := r.admins[role]
	if previous == adminRole {
		r.mu.Unlock()
		return nil
	}
	if adminRole == DefaultAdminRole {
		delete(r.admins, role)
	} else {
		r.admins[role] = adminRole
	}
	r.mu.Unlock()

	r.notify(ctx, observers, Change{
		Kind:          ChangeAdminChanged,
		Role:          role,
		Sender:        caller,
		PreviousAdmin: previous,
		NewAdmin:      adminRole,
	})
	return nil
}

func (r *Registry) has(role Role, account common.Address) bool {
	_, ok := r.members[role][account]
	return ok
}

func (r *Registry) add(role Role, account common.Address) bool {
	set, ok := r.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		r.members[role] = set
	}
	if _, exists := set[account]; exists {
		return false
	}
	set[account] = struct{}{}
	return true
}

func (r *Registry) remove(role Role, account common.Address) bool {
	set := r.members[role]
	if _, exists := set[account]; !exists {
		return false
	}
	delete(set, account)
	if len(set) == 0 {
		delete(r.members, role)
	}
	return true
}

// acquire snapshots the observers and takes their locks in attach order.
func (r *Registry) acquire() ([]hook, func()) {
	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()

	locked := make([]sync.Locker, 0, len(observers))
	for _, h := range observers {
		if h.lock != nil {
			h.lock.Lock()
			locked = append(locked, h.lock)
		}
	}
	return observers, func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}

func (r *Registry) notify(ctx context.Context, observers []hook, change Change) {
	if r.logger != nil {
		r.logger.InfoContext(ctx, string(change.Kind),
			"role", change.Role.String(),
			"account", change.Account.Hex(),
			"sender", change.Sender.Hex(),
		)
	}
	for _, h := range observers {
		h.fn(ctx, change)
	}
}

func (r *Registry) logDenied(ctx context.Context, op string, caller common.Address, role Role) {
	if r.logger == nil {
		return
	}
	r.logger.WarnContext(ctx, "role change denied",
		"operation", op,
		"caller", caller.Hex(),
		"role", role.String(),
	)
}
