package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docreg/internal/access"
	"docreg/internal/metadata"
	"docreg/internal/platform/metrics"
	"docreg/internal/platform/middleware"
	"docreg/internal/registry"
	dErrors "docreg/pkg/domain-errors"
	"docreg/pkg/platform/httputil"
	"docreg/pkg/requestcontext"
)

const requestTimeout = 30 * time.Second

// Documents is the record registry surface served over HTTP.
type Documents interface {
	Address() common.Address
	MintDirect(ctx context.Context, caller, target, recipient common.Address) (uint64, error)
	MintDelegated(ctx context.Context, caller, target, recipient common.Address, sig []byte) (uint64, error)
	BatchDirect(ctx context.Context, caller, target, recipient common.Address, amount uint64) ([]uint64, error)
	BatchDelegated(ctx context.Context, caller, target, recipient common.Address, amount uint64, sig []byte) ([]uint64, error)
	TransferFrom(ctx context.Context, caller, from, to common.Address, id uint64) error
	Approve(ctx context.Context, caller, operator common.Address, id uint64) error
	SetApprovalForAll(ctx context.Context, caller, operator common.Address, enabled bool) error
	UpdateMetadata(ctx context.Context, caller, handle common.Address) error
	Record(id uint64) (registry.Record, error)
	TokenURI(id uint64) (string, error)
	BalanceOf(owner common.Address) (uint64, error)
	TotalSupply() uint64
	Describe() metadata.Descriptor
	MetadataHandle() common.Address
	Events(after uint64, limit int) []registry.Event
}

// Roles is the role registry surface served over HTTP.
type Roles interface {
	Grant(ctx context.Context, caller common.Address, role access.Role, account common.Address) error
	Revoke(ctx context.Context, caller common.Address, role access.Role, account common.Address) error
	Renounce(ctx context.Context, caller common.Address, role access.Role) error
	RoleAdmin(role access.Role) access.Role
	Members(role access.Role) []common.Address
}

// Handler is the thin HTTP layer over the registry services.
type Handler struct {
	logger    *slog.Logger
	documents Documents
	roles     Roles
	schemas   map[string]SchemaAdapter
}

// New creates a Handler. Schemas are addressed by Name().
func New(documents Documents, roles Roles, schemas []SchemaAdapter, logger *slog.Logger) *Handler {
	h := &Handler{
		logger:    logger,
		documents: documents,
		roles:     roles,
		schemas:   make(map[string]SchemaAdapter, len(schemas)),
	}
	for _, s := range schemas {
		h.schemas[s.Name()] = s
	}
	return h
}

// NewRouter wires the middleware chain, /metrics and the v1 API. Reads are
// public; every mutation requires a bearer token naming the caller.
func NewRouter(h *Handler, auth middleware.CallerValidator, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(h.logger, m))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.Timeout(requestTimeout))
		v1.Use(middleware.ContentTypeJSON)
		h.Register(v1, middleware.RequireAuth(auth, h.logger))
	})
	return r
}

// Register mounts the v1 routes. requireAuth guards the mutating routes.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/registry", h.handleDescribe)
	r.Get("/records/{id}", h.handleGetRecord)
	r.Get("/owners/{address}/balance", h.handleBalance)
	r.Get("/roles/{role}/members", h.handleMembers)
	r.Get("/schemas/{schema}/documents/{id}", h.handleGetDocument)
	r.Get("/events", h.handleEvents)

	r.Group(func(w chi.Router) {
		w.Use(requireAuth)
		w.Post("/records/mint", h.handleMint)
		w.Post("/records/mint/delegated", h.handleMintDelegated)
		w.Post("/records/batch", h.handleBatch)
		w.Post("/records/batch/delegated", h.handleBatchDelegated)
		w.Post("/records/transfer", h.handleTransfer)
		w.Post("/records/{id}/approve", h.handleApprove)
		w.Post("/operators", h.handleSetOperator)
		w.Post("/registry/metadata", h.handleUpdateMetadata)
		w.Post("/roles/grant", h.handleGrantRole)
		w.Post("/roles/revoke", h.handleRevokeRole)
		w.Post("/roles/renounce", h.handleRenounceRole)
		w.Post("/schemas/{schema}/mint", h.handleSchemaMint)
		w.Post("/schemas/{schema}/batch", h.handleSchemaBatch)
	})
}

// caller returns the authenticated address. RequireAuth guarantees presence
// on mutating routes.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return common.Address{}, false
	}
	return caller, true
}

// fail writes err and logs it at a level matching its code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.GetCode(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}

func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "record id must be a positive integer")
	}
	return id, nil
}
