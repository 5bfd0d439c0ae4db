// Package kafka publishes registry events to a Kafka topic for search and
// index consumers.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"docreg/internal/registry"
)

// Producer is the part of *kgo.Client the sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Envelope is the message value. ID is derived from registry, epoch and
// sequence so consumers can deduplicate redeliveries.
type Envelope struct {
	ID          uuid.UUID      `json:"id"`
	Seq         uint64         `json:"seq"`
	Kind        string         `json:"kind"`
	Event       registry.Event `json:"event"`
	PublishedAt time.Time      `json:"published_at"`
}

// Sink produces one record per event, keyed so all events of a record land on
// the same partition.
type Sink struct {
	producer Producer
	topic    string
	now      func() time.Time
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic, now: time.Now}
}

func (s *Sink) Publish(ctx context.Context, events []registry.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	now := s.now().UTC()
	for _, ev := range events {
		env := Envelope{
			ID:          EventID(ev),
			Seq:         ev.Seq,
			Kind:        string(ev.Kind),
			Event:       ev,
			PublishedAt: now,
		}
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", ev.Seq, err)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(PartitionKey(ev)),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_kind", Value: []byte(ev.Kind)},
				{Key: "event_epoch", Value: []byte(ev.Epoch)},
				{Key: "event_seq", Value: []byte(strconv.FormatUint(ev.Seq, 10))},
			},
		})
	}
	if err := s.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce registry events: %w", err)
	}
	return nil
}

// EventID is a stable UUIDv5 of registry address, epoch and sequence.
func EventID(ev registry.Event) uuid.UUID {
	name := ev.Registry.Hex() + "/" + ev.Epoch + "/" + strconv.FormatUint(ev.Seq, 10)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// PartitionKey groups record events by record and everything else by
// registry. Record ids restart with the epoch, so it is part of the key.
func PartitionKey(ev registry.Event) string {
	if ev.RecordID != 0 {
		return ev.Registry.Hex() + "/" + ev.Epoch + "/" + strconv.FormatUint(ev.RecordID, 10)
	}
	return ev.Registry.Hex()
}

// NewClient connects to brokers with topic as the default produce topic.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic unless it already exists.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
