// Package registry is the record registry: it mints sequentially numbered
// document records, tracks their owners and approvals, and journals every
// state change for downstream indexers.
//
// All mutations run under one write lock. Each operation validates
// everything (roles, signatures, amounts, replay) before its first write, so
// a failed call leaves the registry exactly as it was.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docreg/internal/access"
	"docreg/internal/delegation"
	"docreg/internal/delegation/replay"
	"docreg/internal/metadata"
	"docreg/internal/registry/metrics"
	dErrors "docreg/pkg/domain-errors"
	"docreg/pkg/platform/sentinel"
)

// DefaultMaxBatch bounds a single batch mint.
const DefaultMaxBatch = 1000

// DefaultJournalRetention is how many delivered events Compact keeps for
// readers of Events.
const DefaultJournalRetention = 1024

const tracerName = "docreg/internal/registry"

// Registry holds the records of one document collection.
type Registry struct {
	mu sync.RWMutex

	address   common.Address
	roles     *access.Registry
	verifier  *delegation.Verifier
	guard     replay.Guard
	alloc     *Allocator
	directory *metadata.Directory
	handle    common.Address
	provider  metadata.Provider

	records    map[uint64]*Record
	balances   map[common.Address]uint64
	operators  map[common.Address]map[common.Address]struct{}
	byExternal map[string][]uint64

	// journal[i] has Seq journalBase+i+1.
	epoch       string
	journal     []Event
	journalBase uint64
	lastSeq     uint64
	retain      int

	maxBatch uint64
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithReplayGuard makes delegation signatures single-use. Without it the
// registry accepts a valid delegation any number of times.
func WithReplayGuard(g replay.Guard) Option {
	return func(r *Registry) {
		r.guard = g
	}
}

func WithMaxBatch(n uint64) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxBatch = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

// WithEpoch fixes the journal epoch instead of generating one per instance.
func WithEpoch(epoch string) Option {
	return func(r *Registry) {
		if epoch != "" {
			r.epoch = epoch
		}
	}
}

// WithJournalRetention sets how many delivered events survive Compact.
func WithJournalRetention(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.retain = n
		}
	}
}

// WithClock overrides time.Now for MintedAt and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates a registry deployed at address, governed by roles, whose
// metadata is read from the provider registered under handle in directory.
func New(address common.Address, roles *access.Registry, directory *metadata.Directory, handle common.Address, opts ...Option) (*Registry, error) {
	if address == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "registry address is required")
	}
	if roles == nil || directory == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role registry and metadata directory are required")
	}
	provider, err := directory.Lookup(handle)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "metadata provider not registered")
	}

	r := &Registry{
		address:    address,
		roles:      roles,
		verifier:   delegation.NewVerifier(roles),
		guard:      replay.Noop{},
		alloc:      NewAllocator(),
		directory:  directory,
		handle:     handle,
		provider:   provider,
		records:    make(map[uint64]*Record),
		balances:   make(map[common.Address]uint64),
		operators:  make(map[common.Address]map[common.Address]struct{}),
		byExternal: make(map[string][]uint64),
		epoch:      uuid.NewString(),
		retain:     DefaultJournalRetention,
		maxBatch:   DefaultMaxBatch,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	roles.AddLockedObserver(&r.mu, r.onRoleChange)
	return r, nil
}

// Epoch identifies this journal. Sequences restart at 1 in every epoch, so
// durable consumers key events by registry, epoch and sequence.
func (r *Registry) Epoch() string { return r.epoch }

// UpdateMetadata repoints the registry at the provider registered under
// handle. Records are untouched; reads use the new provider immediately.
func (r *Registry) UpdateMetadata(ctx context.Context, caller, handle common.Address) (err error) {
	ctx, done := r.begin(ctx, "update_metadata", caller)
	defer func() { done(err) }()

	provider, err := r.directory.Lookup(handle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "metadata provider not registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve metadata provider")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.roles.HasRole(access.CuratorRole, caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is missing CURATOR_ROLE")
	}
	r.provider = provider
	r.handle = handle
	r.appendLocked(Event{Kind: EventMetadataUpdated, Sender: caller, MetadataHandle: handle})

	r.logInfo(ctx, "metadata updated", "caller", caller.Hex(), "metadata_handle", handle.Hex())
	return nil
}

// onRoleChange runs with r.mu held by the role registry.
func (r *Registry) onRoleChange(_ context.Context, c access.Change) {
	ev := Event{Role: c.Role, Account: c.Account, Sender: c.Sender}
	switch c.Kind {
	case access.ChangeGranted:
		ev.Kind = EventRoleGranted
	case access.ChangeRevoked:
		ev.Kind = EventRoleRevoked
	case access.ChangeAdminChanged:
		ev.Kind = EventRoleAdminChanged
		ev.PreviousAdmin = c.PreviousAdmin
		ev.NewAdmin = c.NewAdmin
	default:
		return
	}
	r.appendLocked(ev)
}

func (r *Registry) appendLocked(ev Event) {
	r.lastSeq++
	ev.Seq = r.lastSeq
	ev.Epoch = r.epoch
	ev.Registry = r.address
	if ev.At.IsZero() {
		ev.At = r.now()
	}
	r.journal = append(r.journal, ev)
}

// Compact drops delivered events with Seq <= through, keeping the newest
// retained ones for Events readers. It returns how many were dropped.
func (r *Registry) Compact(through uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if through <= r.journalBase {
		return 0
	}
	n := through - r.journalBase
	if n > uint64(len(r.journal)) {
		n = uint64(len(r.journal))
	}
	droppable := len(r.journal) - r.retain
	if droppable <= 0 {
		return 0
	}
	if n > uint64(droppable) {
		n = uint64(droppable)
	}
	if n == 0 {
		return 0
	}
	r.journal = append([]Event(nil), r.journal[n:]...)
	r.journalBase += n
	return int(n)
}

// begin opens a span for a mutation and returns a completion func that ends
// it, records duration and counts denials.
func (r *Registry) begin(ctx context.Context, op string, caller common.Address) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "registry."+op, trace.WithAttributes(
		attribute.String("registry", r.address.Hex()),
		attribute.String("caller", caller.Hex()),
	))
	return ctx, func(err error) {
		if err != nil {
			code := dErrors.GetCode(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, string(code))
			if r.metrics != nil {
				r.metrics.IncrementDenied(op, string(code))
			}
			if r.logger != nil {
				r.logger.WarnContext(ctx, "registry operation rejected",
					"operation", op,
					"caller", caller.Hex(),
					"code", string(code),
					"error", err,
				)
			}
		}
		if r.metrics != nil {
			r.metrics.ObserveOperation(op, start)
		}
		span.End()
	}
}

func (r *Registry) logInfo(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.InfoContext(ctx, msg, args...)
	}
}
