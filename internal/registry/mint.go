package registry

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"docreg/internal/access"
	"docreg/internal/delegation"
	"docreg/internal/delegation/replay"
	dErrors "docreg/pkg/domain-errors"
)

const (
	pathDirect    = "direct"
	pathDelegated = "delegated"
	pathTokenize  = "tokenize"
)

// MintDirect mints one record to recipient. The caller must hold MINTER_ROLE.
func (r *Registry) MintDirect(ctx context.Context, caller, target, recipient common.Address) (id uint64, err error) {
	ctx, done := r.begin(ctx, "mint", caller)
	defer func() { done(err) }()

	if err := requireRecipient(recipient); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireRoleLocked(access.MinterRole, caller); err != nil {
		return 0, err
	}
	id = r.alloc.Next()
	r.mintLocked(id, recipient, target, caller, false)

	r.afterMint(ctx, pathDirect, caller, recipient, id, id)
	return id, nil
}

// MintDelegated mints one record on the authority of a MINTER_ROLE holder's
// signature. Any caller may submit it.
func (r *Registry) MintDelegated(ctx context.Context, caller, target, recipient common.Address, sig []byte) (id uint64, err error) {
	ctx, done := r.begin(ctx, "mint_delegated", caller)
	defer func() { done(err) }()

	if err := requireRecipient(recipient); err != nil {
		return 0, err
	}
	msg := delegation.MintMessage(target, recipient)

	r.mu.Lock()
	defer r.mu.Unlock()
	signer, err := r.authorizeDelegationLocked(ctx, msg, sig)
	if err != nil {
		return 0, err
	}
	id = r.alloc.Next()
	r.mintLocked(id, recipient, target, signer, true)

	r.afterMint(ctx, pathDelegated, caller, recipient, id, id, "signer", signer.Hex())
	return id, nil
}

// BatchDirect mints amount records with contiguous ids to recipient.
func (r *Registry) BatchDirect(ctx context.Context, caller, target, recipient common.Address, amount uint64) (ids []uint64, err error) {
	ctx, done := r.begin(ctx, "batch", caller)
	defer func() { done(err) }()

	if err := requireRecipient(recipient); err != nil {
		return nil, err
	}
	if err := r.checkAmount(amount); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireRoleLocked(access.MinterRole, caller); err != nil {
		return nil, err
	}
	ids = r.alloc.NextBatch(amount)
	for _, id := range ids {
		r.mintLocked(id, recipient, target, caller, false)
	}

	r.afterMint(ctx, pathDirect, caller, recipient, ids[0], ids[len(ids)-1])
	return ids, nil
}

// BatchDelegated mints amount records on the authority of a signature that
// binds the amount.
func (r *Registry) BatchDelegated(ctx context.Context, caller, target, recipient common.Address, amount uint64, sig []byte) (ids []uint64, err error) {
	ctx, done := r.begin(ctx, "batch_delegated", caller)
	defer func() { done(err) }()

	if err := requireRecipient(recipient); err != nil {
		return nil, err
	}
	if err := r.checkAmount(amount); err != nil {
		return nil, err
	}
	msg := delegation.BatchMessage(target, recipient, amount)

	r.mu.Lock()
	defer r.mu.Unlock()
	signer, err := r.authorizeDelegationLocked(ctx, msg, sig)
	if err != nil {
		return nil, err
	}
	ids = r.alloc.NextBatch(amount)
	for _, id := range ids {
		r.mintLocked(id, recipient, target, signer, true)
	}

	r.afterMint(ctx, pathDelegated, caller, recipient, ids[0], ids[len(ids)-1], "signer", signer.Hex())
	return ids, nil
}

// Tokenize mints one record carrying a structured payload. It is additive:
// a repeated external id gets a new record. The caller, usually a schema
// adapter, must hold MINTER_ROLE and becomes the record's Source.
func (r *Registry) Tokenize(ctx context.Context, caller common.Address, req TokenizeRequest) (id uint64, err error) {
	ids, err := r.tokenize(ctx, "tokenize", caller, []TokenizeRequest{req})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// TokenizeBatch tokenizes every request or none of them.
func (r *Registry) TokenizeBatch(ctx context.Context, caller common.Address, reqs []TokenizeRequest) ([]uint64, error) {
	return r.tokenize(ctx, "tokenize_batch", caller, reqs)
}

type preparedPayload struct {
	req       TokenizeRequest
	canonical []byte
	cid       string
}

func (r *Registry) tokenize(ctx context.Context, op string, caller common.Address, reqs []TokenizeRequest) (ids []uint64, err error) {
	ctx, done := r.begin(ctx, op, caller)
	defer func() { done(err) }()

	if err := r.checkAmount(uint64(len(reqs))); err != nil {
		return nil, err
	}
	prepared := make([]preparedPayload, len(reqs))
	for i, req := range reqs {
		p, err := prepare(req)
		if err != nil {
			return nil, err
		}
		prepared[i] = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireRoleLocked(access.MinterRole, caller); err != nil {
		return nil, err
	}
	ids = r.alloc.NextBatch(uint64(len(prepared)))
	for i, p := range prepared {
		id := ids[i]
		rec := r.mintLocked(id, p.req.Recipient, caller, caller, false)
		rec.Schema = p.req.Schema
		rec.ExternalID = p.req.ExternalID
		rec.Payload = p.canonical
		rec.PayloadCID = p.cid
		rec.ReleasedAt = p.req.ReleasedAt
		r.byExternal[p.req.ExternalID] = append(r.byExternal[p.req.ExternalID], id)
		r.appendLocked(Event{
			Kind:       EventTokenized,
			RecordID:   id,
			To:         p.req.Recipient,
			Sender:     caller,
			Schema:     p.req.Schema,
			ExternalID: p.req.ExternalID,
		})
	}

	r.afterMint(ctx, pathTokenize, caller, common.Address{}, ids[0], ids[len(ids)-1])
	return ids, nil
}

func prepare(req TokenizeRequest) (preparedPayload, error) {
	if err := requireRecipient(req.Recipient); err != nil {
		return preparedPayload{}, err
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.ExternalID == "" {
		return preparedPayload{}, dErrors.New(dErrors.CodeInvalidInput, "external id is required")
	}
	canonical, err := canonicalPayload(req.Payload)
	if err != nil {
		return preparedPayload{}, err
	}
	p := preparedPayload{req: req, canonical: canonical}
	if canonical != nil {
		if p.cid, err = PayloadCID(canonical); err != nil {
			return preparedPayload{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to address payload")
		}
	}
	return p, nil
}

// mintLocked writes a new record and its transfer-from-zero event.
func (r *Registry) mintLocked(id uint64, to, source, mintedBy common.Address, delegated bool) *Record {
	now := r.now()
	rec := &Record{
		ID:        id,
		Owner:     to,
		Source:    source,
		MintedBy:  mintedBy,
		Delegated: delegated,
		MintedAt:  now,
	}
	r.records[id] = rec
	r.balances[to]++
	r.appendLocked(Event{Kind: EventTransfer, RecordID: id, To: to, At: now})
	return rec
}

// authorizeDelegationLocked verifies sig and consumes it in the replay guard.
// The guard runs last so a signature is only spent by a mint that happens.
func (r *Registry) authorizeDelegationLocked(ctx context.Context, msg delegation.Message, sig []byte) (common.Address, error) {
	signer, err := r.verifier.Verify(msg, sig)
	if err != nil {
		return common.Address{}, err
	}
	if err := r.guard.Consume(ctx, replay.Key(msg.Hash(), signer)); err != nil {
		return common.Address{}, err
	}
	return signer, nil
}

func (r *Registry) requireRoleLocked(role access.Role, account common.Address) error {
	if !r.roles.HasRole(role, account) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is missing "+role.String())
	}
	return nil
}

func (r *Registry) checkAmount(amount uint64) error {
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	if amount > r.maxBatch {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount exceeds the batch limit")
	}
	return nil
}

func requireRecipient(recipient common.Address) error {
	if recipient == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient is required")
	}
	return nil
}

func (r *Registry) afterMint(ctx context.Context, path string, caller, recipient common.Address, first, last uint64, extra ...any) {
	count := int(last - first + 1)
	if r.metrics != nil {
		r.metrics.AddMinted(path, count)
		r.metrics.SetTotalSupply(r.alloc.Last())
	}
	if r.logger == nil {
		return
	}
	args := []any{
		"path", path,
		"caller", caller.Hex(),
		"first_id", first,
		"last_id", last,
		"count", count,
	}
	if recipient != (common.Address{}) {
		args = append(args, "recipient", recipient.Hex())
	}
	r.logger.InfoContext(ctx, "records minted", append(args, extra...)...)
}
