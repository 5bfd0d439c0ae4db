// Package postgres persists relayed registry events so indexers can query
// a record's history and the relay can resume after a restart.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"docreg/internal/registry"
	txcontext "docreg/pkg/platform/tx"
)

const schema = `
CREATE TABLE IF NOT EXISTS registry_events (
	registry    TEXT        NOT NULL,
	epoch       TEXT        NOT NULL,
	seq         BIGINT      NOT NULL,
	kind        TEXT        NOT NULL,
	record_id   BIGINT,
	payload     JSONB       NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (registry, epoch, seq)
);
CREATE INDEX IF NOT EXISTS registry_events_record_idx
	ON registry_events (registry, epoch, record_id)
	WHERE record_id IS NOT NULL;
`

// Store is an idempotent event sink: redelivered sequences of an epoch are
// ignored. Record ids and sequences restart with every epoch.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Migrate creates the events table and its index.
func (s *Store) Migrate(ctx context.Context) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.execer(ctx).ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("migrate registry_events: %w", err)
		}
		return nil
	})
}

// Publish inserts events in one round trip.
func (s *Store) Publish(ctx context.Context, events []registry.Event) error {
	if len(events) == 0 {
		return nil
	}
	n := len(events)
	registries := make([]string, n)
	epochs := make([]string, n)
	seqs := make([]int64, n)
	kinds := make([]string, n)
	recordIDs := make([]int64, n)
	payloads := make([]string, n)
	occurred := make([]string, n)
	for i, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", ev.Seq, err)
		}
		registries[i] = ev.Registry.Hex()
		epochs[i] = ev.Epoch
		seqs[i] = int64(ev.Seq)
		kinds[i] = string(ev.Kind)
		recordIDs[i] = int64(ev.RecordID)
		payloads[i] = string(payload)
		occurred[i] = ev.At.UTC().Format(time.RFC3339Nano)
	}

	query := `
		INSERT INTO registry_events (registry, epoch, seq, kind, record_id, payload, occurred_at)
		SELECT r, e, s, k, NULLIF(rid, 0), p, t
		FROM unnest($1::text[], $2::text[], $3::bigint[], $4::text[], $5::bigint[], $6::jsonb[], $7::timestamptz[])
			AS u(r, e, s, k, rid, p, t)
		ON CONFLICT (registry, epoch, seq) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		pq.Array(registries),
		pq.Array(epochs),
		pq.Array(seqs),
		pq.Array(kinds),
		pq.Array(recordIDs),
		pq.Array(payloads),
		pq.Array(occurred),
	)
	if err != nil {
		return fmt.Errorf("insert registry events: %w", err)
	}
	return nil
}

// LastSeq returns the highest stored sequence of reg in epoch, 0 when none.
func (s *Store) LastSeq(ctx context.Context, reg common.Address, epoch string) (uint64, error) {
	var seq int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM registry_events WHERE registry = $1 AND epoch = $2`,
		reg.Hex(), epoch,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return uint64(seq), nil
}

// ListByRecord returns the history of one record of epoch in sequence order.
func (s *Store) ListByRecord(ctx context.Context, reg common.Address, epoch string, recordID uint64) ([]registry.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT payload
		FROM registry_events
		WHERE registry = $1 AND epoch = $2 AND record_id = $3
		ORDER BY seq
	`, reg.Hex(), epoch, int64(recordID))
	if err != nil {
		return nil, fmt.Errorf("query record events: %w", err)
	}
	defer rows.Close()

	var out []registry.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record event: %w", err)
		}
		var ev registry.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode record event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record events: %w", err)
	}
	return out, nil
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
