package httptransport

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"docreg/internal/access"
	"docreg/pkg/platform/httputil"
)

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid grant request", err)
		return
	}
	if err := h.roles.Grant(r.Context(), caller, req.Role, req.Account); err != nil {
		h.fail(w, r, "grant role failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid revoke request", err)
		return
	}
	if err := h.roles.Revoke(r.Context(), caller, req.Role, req.Account); err != nil {
		h.fail(w, r, "revoke role failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenounceRole ignores any account in the body; callers only renounce
// for themselves.
func (h *Handler) handleRenounceRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid renounce request", err)
		return
	}
	if err := h.roles.Renounce(r.Context(), caller, req.Role); err != nil {
		h.fail(w, r, "renounce role failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	role, err := access.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		h.fail(w, r, "invalid role", err)
		return
	}
	members := h.roles.Members(role)
	if members == nil {
		members = []common.Address{}
	}
	httputil.WriteJSON(w, http.StatusOK, MembersResponse{
		Role:    role,
		Admin:   h.roles.RoleAdmin(role),
		Members: members,
	})
}
