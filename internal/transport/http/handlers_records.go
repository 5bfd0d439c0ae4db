package httptransport

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"docreg/internal/registry"
	dErrors "docreg/pkg/domain-errors"
	"docreg/pkg/platform/httputil"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req MintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid mint request", err)
		return
	}
	id, err := h.documents.MintDirect(r.Context(), caller, h.target(req), req.Recipient)
	if err != nil {
		h.fail(w, r, "mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MintedResponse{ID: id})
}

func (h *Handler) handleMintDelegated(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req MintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid delegated mint request", err)
		return
	}
	id, err := h.documents.MintDelegated(r.Context(), caller, h.target(req), req.Recipient, req.Signature)
	if err != nil {
		h.fail(w, r, "delegated mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MintedResponse{ID: id})
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req MintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid batch request", err)
		return
	}
	ids, err := h.documents.BatchDirect(r.Context(), caller, h.target(req), req.Recipient, req.Amount)
	if err != nil {
		h.fail(w, r, "batch mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, BatchResponse{IDs: ids})
}

func (h *Handler) handleBatchDelegated(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req MintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid delegated batch request", err)
		return
	}
	ids, err := h.documents.BatchDelegated(r.Context(), caller, h.target(req), req.Recipient, req.Amount, req.Signature)
	if err != nil {
		h.fail(w, r, "delegated batch mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, BatchResponse{IDs: ids})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid transfer request", err)
		return
	}
	if err := h.documents.TransferFrom(r.Context(), caller, req.From, req.To, req.ID); err != nil {
		h.fail(w, r, "transfer failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "invalid approve request", err)
		return
	}
	var req ApproveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid approve request", err)
		return
	}
	if err := h.documents.Approve(r.Context(), caller, req.Operator, id); err != nil {
		h.fail(w, r, "approve failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req OperatorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid operator request", err)
		return
	}
	if err := h.documents.SetApprovalForAll(r.Context(), caller, req.Operator, req.Approved); err != nil {
		h.fail(w, r, "set operator failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req MetadataRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid metadata request", err)
		return
	}
	if err := h.documents.UpdateMetadata(r.Context(), caller, req.Handle); err != nil {
		h.fail(w, r, "metadata update failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "invalid record id", err)
		return
	}
	rec, err := h.documents.Record(id)
	if err != nil {
		h.fail(w, r, "record lookup failed", err)
		return
	}
	uri, err := h.documents.TokenURI(id)
	if err != nil {
		h.fail(w, r, "token uri lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RecordResponse{Record: rec, TokenURI: uri})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		h.fail(w, r, "invalid owner address", dErrors.New(dErrors.CodeBadRequest, "owner must be a hex address"))
		return
	}
	owner := common.HexToAddress(raw)
	balance, err := h.documents.BalanceOf(owner)
	if err != nil {
		h.fail(w, r, "balance lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Owner: owner, Balance: balance})
}

func (h *Handler) handleDescribe(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, RegistryResponse{
		Address:        h.documents.Address(),
		TotalSupply:    h.documents.TotalSupply(),
		MetadataHandle: h.documents.MetadataHandle(),
		Descriptor:     h.documents.Describe(),
	})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	after, err := queryUint(r, "after", 0)
	if err != nil {
		h.fail(w, r, "invalid events query", err)
		return
	}
	limit, err := queryUint(r, "limit", defaultEventsLimit)
	if err != nil {
		h.fail(w, r, "invalid events query", err)
		return
	}
	if limit == 0 {
		limit = defaultEventsLimit
	}
	limit = min(limit, maxEventsLimit)

	events := h.documents.Events(after, int(limit))
	if events == nil {
		events = []registry.Event{}
	}
	next := after
	if n := len(events); n > 0 {
		next = events[n-1].Seq
	}
	httputil.WriteJSON(w, http.StatusOK, EventsResponse{Events: events, Next: next})
}

func (h *Handler) target(req MintRequest) common.Address {
	if req.Target == (common.Address{}) {
		return h.documents.Address()
	}
	return req.Target
}

func queryUint(r *http.Request, key string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be a non-negative integer")
	}
	return v, nil
}
