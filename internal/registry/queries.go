package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"docreg/internal/access"
	"docreg/internal/metadata"
	dErrors "docreg/pkg/domain-errors"
)

func (r *Registry) Address() common.Address { return r.address }

func (r *Registry) Roles() *access.Registry { return r.roles }

// TotalSupply is the number of ids issued. Records are never burned.
func (r *Registry) TotalSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alloc.Last()
}

func (r *Registry) OwnerOf(id uint64) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return common.Address{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return rec.Owner, nil
}

func (r *Registry) BalanceOf(owner common.Address) (uint64, error) {
	if owner == (common.Address{}) {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "zero address is not a valid owner")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[owner], nil
}

// GetApproved returns the single-record approval of id, zero when unset.
func (r *Registry) GetApproved(id uint64) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return common.Address{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return rec.Approved, nil
}

func (r *Registry) IsApprovedForAll(owner, operator common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.operators[owner][operator]
	return ok
}

// Record returns a copy of record id.
func (r *Registry) Record(id uint64) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return rec.clone(), nil
}

// RecordsByExternalID returns every record tokenized under externalID, oldest
// first.
func (r *Registry) RecordsByExternalID(externalID string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byExternal[externalID]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.records[id].clone())
	}
	return out
}

func (r *Registry) Describe() metadata.Descriptor {
	return r.currentProvider().Describe()
}

func (r *Registry) Name() string { return r.Describe().Name }

func (r *Registry) Symbol() string { return r.Describe().Symbol }

func (r *Registry) ContractURI() string { return r.Describe().ContractURI }

// TokenURI asks the current metadata provider for the URI of id.
func (r *Registry) TokenURI(id uint64) (string, error) {
	r.mu.RLock()
	_, ok := r.records[id]
	p := r.provider
	r.mu.RUnlock()
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return p.URIFor(id), nil
}

func (r *Registry) MetadataHandle() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handle
}

// Events returns up to limit journal entries with Seq > after. A non-positive
// limit returns everything after the cursor. Compacted entries are gone.
func (r *Registry) Events(after uint64, limit int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var start uint64
	if after > r.journalBase {
		start = after - r.journalBase
	}
	if start >= uint64(len(r.journal)) {
		return nil
	}
	tail := r.journal[start:]
	if limit > 0 && limit < len(tail) {
		tail = tail[:limit]
	}
	return append([]Event(nil), tail...)
}

func (r *Registry) currentProvider() metadata.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.provider
}
