package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	dErrors "docreg/pkg/domain-errors"
	"docreg/pkg/platform/httputil"
)

// SchemaAdapter is a typed front-end reached by name.
type SchemaAdapter interface {
	Name() string
	MintJSON(ctx context.Context, caller, recipient common.Address, contentID string, raw json.RawMessage, releasedAt string) (uint64, error)
	BatchJSON(ctx context.Context, caller, recipient common.Address, contentIDs []string, raw []json.RawMessage, releasedAt []string) ([]uint64, error)
	View(id uint64) (any, error)
}

func (h *Handler) schema(w http.ResponseWriter, r *http.Request) (SchemaAdapter, bool) {
	name := chi.URLParam(r, "schema")
	adapter, ok := h.schemas[name]
	if !ok {
		h.fail(w, r, "unknown schema", dErrors.New(dErrors.CodeNotFound, "unknown schema "+name))
		return nil, false
	}
	return adapter, true
}

func (h *Handler) handleSchemaMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	adapter, ok := h.schema(w, r)
	if !ok {
		return
	}
	var req SchemaMintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid schema mint request", err)
		return
	}
	id, err := adapter.MintJSON(r.Context(), caller, req.Recipient, req.ContentID, req.Data, req.ReleasedAt)
	if err != nil {
		h.fail(w, r, "schema mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MintedResponse{ID: id})
}

func (h *Handler) handleSchemaBatch(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	adapter, ok := h.schema(w, r)
	if !ok {
		return
	}
	var req SchemaBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid schema batch request", err)
		return
	}
	ids, err := adapter.BatchJSON(r.Context(), caller, req.Recipient, req.ContentIDs, req.Data, req.ReleasedAt)
	if err != nil {
		h.fail(w, r, "schema batch failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, BatchResponse{IDs: ids})
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	adapter, ok := h.schema(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "invalid document id", err)
		return
	}
	doc, err := adapter.View(id)
	if err != nil {
		h.fail(w, r, "document lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}
