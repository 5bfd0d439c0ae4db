// Package events relays the registry journal to downstream sinks.
//
// The registry appends events inside its write lock; the relay drains them
// afterwards, so sink latency or outages never block a mint. Delivery is
// at-least-once: the cursor only advances after a sink accepts a batch.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"docreg/internal/platform/metrics"
	"docreg/internal/registry"
)

const (
	DefaultInterval  = time.Second
	DefaultBatchSize = 256
)

// Source is the journal being drained.
type Source interface {
	Events(after uint64, limit int) []registry.Event
}

// Compactor is implemented by sources that can release delivered events.
type Compactor interface {
	Compact(through uint64) int
}

// Sink receives ordered batches of events. A returned error means none of the
// batch may be considered delivered.
type Sink interface {
	Publish(ctx context.Context, events []registry.Event) error
}

// Relay moves events from a Source to a Sink.
type Relay struct {
	source   Source
	sink     Sink
	interval time.Duration
	batch    int
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	cursor uint64
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

// WithStartAfter resumes delivery after seq, typically the last sequence a
// durable sink reports.
func WithStartAfter(seq uint64) Option {
	return func(r *Relay) {
		r.cursor = seq
	}
}

func NewRelay(source Source, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		source:   source,
		sink:     sink,
		interval: DefaultInterval,
		batch:    DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains on every tick until ctx is done. Sink failures are logged and
// retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil && r.logger != nil {
				r.logger.WarnContext(ctx, "event relay publish failed",
					"cursor", r.Cursor(),
					"error", err,
				)
			}
		}
	}
}

// Flush delivers everything currently in the journal and returns how many
// events were published. On error the events before the failing batch stay
// delivered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	if r.metrics != nil {
		defer r.metrics.ObserveRelayFlush(start)
	}

	published := 0
	for {
		batch := r.source.Events(r.cursor, r.batch)
		if len(batch) == 0 {
			return published, nil
		}
		if err := r.sink.Publish(ctx, batch); err != nil {
			if r.metrics != nil {
				r.metrics.IncrementRelayFailures()
			}
			return published, err
		}
		r.cursor = batch[len(batch)-1].Seq
		if c, ok := r.source.(Compactor); ok {
			c.Compact(r.cursor)
		}
		published += len(batch)
		if r.metrics != nil {
			r.metrics.AddRelayPublished(len(batch), r.cursor)
		}
	}
}

// Cursor is the sequence of the last delivered event.
func (r *Relay) Cursor() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}
