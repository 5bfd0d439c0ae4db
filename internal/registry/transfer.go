package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"docreg/internal/access"
	dErrors "docreg/pkg/domain-errors"
)

// TransferFrom moves record id from from to to. The caller must be the owner,
// the record's approved address, an operator of the owner, or an APPROVE_ROLE
// holder. The single-record approval is cleared.
func (r *Registry) TransferFrom(ctx context.Context, caller, from, to common.Address, id uint64) (err error) {
	ctx, done := r.begin(ctx, "transfer", caller)
	defer func() { done(err) }()

	if to == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "transfer to the zero address")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if !r.mayTransferLocked(caller, rec) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not owner nor approved")
	}
	if rec.Owner != from {
		return dErrors.New(dErrors.CodeNotOwner, "from is not the record owner")
	}

	rec.Approved = common.Address{}
	r.balances[from]--
	if r.balances[from] == 0 {
		delete(r.balances, from)
	}
	r.balances[to]++
	rec.Owner = to
	r.appendLocked(Event{Kind: EventTransfer, RecordID: id, From: from, To: to, Sender: caller})

	if r.metrics != nil {
		r.metrics.IncrementTransfers()
	}
	r.logInfo(ctx, "record transferred",
		"record_id", id,
		"from", from.Hex(),
		"to", to.Hex(),
		"caller", caller.Hex(),
	)
	return nil
}

// Approve sets the single-record approval of id. Only the owner may approve;
// the zero operator clears the approval.
func (r *Registry) Approve(ctx context.Context, caller, operator common.Address, id uint64) (err error) {
	ctx, done := r.begin(ctx, "approve", caller)
	defer func() { done(err) }()

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if rec.Owner != caller {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may approve")
	}
	if operator == rec.Owner {
		return dErrors.New(dErrors.CodeInvalidInput, "approval to current owner")
	}
	if rec.Approved == operator {
		return nil
	}
	rec.Approved = operator
	r.appendLocked(Event{Kind: EventApproval, RecordID: id, From: rec.Owner, Operator: operator, Sender: caller})

	r.logInfo(ctx, "record approval set", "record_id", id, "operator", operator.Hex())
	return nil
}

// SetApprovalForAll makes operator able to transfer every record of caller.
func (r *Registry) SetApprovalForAll(ctx context.Context, caller, operator common.Address, enabled bool) (err error) {
	ctx, done := r.begin(ctx, "set_approval_for_all", caller)
	defer func() { done(err) }()

	if operator == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "operator is required")
	}
	if operator == caller {
		return dErrors.New(dErrors.CodeInvalidInput, "approve to caller")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ops := r.operators[caller]
	_, current := ops[operator]
	if current == enabled {
		return nil
	}
	if enabled {
		if ops == nil {
			ops = make(map[common.Address]struct{})
			r.operators[caller] = ops
		}
		ops[operator] = struct{}{}
	} else {
		delete(ops, operator)
		if len(ops) == 0 {
			delete(r.operators, caller)
		}
	}
	r.appendLocked(Event{Kind: EventApprovalForAll, From: caller, Operator: operator, Approved: enabled, Sender: caller})

	r.logInfo(ctx, "operator approval changed", "owner", caller.Hex(), "operator", operator.Hex(), "approved", enabled)
	return nil
}

func (r *Registry) mayTransferLocked(caller common.Address, rec *Record) bool {
	if caller == rec.Owner || (rec.Approved != common.Address{} && caller == rec.Approved) {
		return true
	}
	if _, ok := r.operators[rec.Owner][caller]; ok {
		return true
	}
	return r.roles.HasRole(access.ApproveRole, caller)
}
