package events

import (
	"context"
	"log/slog"

	"docreg/internal/registry"
)

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, events []registry.Event) error {
	for _, ev := range events {
		args := []any{
			"seq", ev.Seq,
			"kind", string(ev.Kind),
			"registry", ev.Registry.Hex(),
		}
		if ev.RecordID != 0 {
			args = append(args, "record_id", ev.RecordID)
		}
		switch ev.Kind {
		case registry.EventTransfer:
			args = append(args, "from", ev.From.Hex(), "to", ev.To.Hex())
		case registry.EventRoleGranted, registry.EventRoleRevoked:
			args = append(args, "role", ev.Role.String(), "account", ev.Account.Hex())
		case registry.EventTokenized:
			args = append(args, "schema", ev.Schema, "external_id", ev.ExternalID)
		}
		s.logger.InfoContext(ctx, "registry event", args...)
	}
	return nil
}

// MultiSink publishes to every sink in order and stops at the first error.
// Sinks earlier in the list may therefore see a batch more than once.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, events []registry.Event) error {
	for _, s := range m {
		if err := s.Publish(ctx, events); err != nil {
			return err
		}
	}
	return nil
}
