package events

//go:generate mockgen -source=relay.go -destination=mocks/mocks.go -package=mocks Source,Sink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docreg/internal/access"
	"docreg/internal/events/mocks"
	"docreg/internal/metadata"
	"docreg/internal/platform/metrics"
	"docreg/internal/registry"
)

// =============================================================================
// Relay Test Suite
// =============================================================================
// Justification for unit tests: the relay owns the delivery cursor. Tests pin
// down batching, cursor advancement on success only, and resume behavior.

type RelaySuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	source  *mocks.MockSource
	sink    *mocks.MockSink
	metrics *metrics.Metrics
	ctx     context.Context
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockSource(s.ctrl)
	s.sink = mocks.NewMockSink(s.ctrl)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.ctx = context.Background()
}

func (s *RelaySuite) TearDownTest() {
	s.ctrl.Finish()
}

func seqs(from, to uint64) []registry.Event {
	var out []registry.Event
	for i := from; i <= to; i++ {
		out = append(out, registry.Event{Seq: i, Kind: registry.EventTransfer, RecordID: i})
	}
	return out
}

func (s *RelaySuite) newRelay(opts ...Option) *Relay {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithBatchSize(2),
	}
	return NewRelay(s.source, s.sink, append(base, opts...)...)
}

func (s *RelaySuite) TestFlush() {
	s.Run("drains in batches and advances the cursor", func() {
		relay := s.newRelay()
		gomock.InOrder(
			s.source.EXPECT().Events(uint64(0), 2).Return(seqs(1, 2)),
			s.sink.EXPECT().Publish(gomock.Any(), seqs(1, 2)).Return(nil),
			s.source.EXPECT().Events(uint64(2), 2).Return(seqs(3, 3)),
			s.sink.EXPECT().Publish(gomock.Any(), seqs(3, 3)).Return(nil),
			s.source.EXPECT().Events(uint64(3), 2).Return(nil),
		)

		n, err := relay.Flush(s.ctx)
		s.Require().NoError(err)
		s.Equal(3, n)
		s.Equal(uint64(3), relay.Cursor())
		s.Equal(float64(3), promtest.ToFloat64(s.metrics.RelayPublished))
		s.Equal(float64(3), promtest.ToFloat64(s.metrics.RelayCursor))
	})

	s.Run("failed batch is retried from the same cursor", func() {
		relay := s.newRelay(WithStartAfter(3))
		gomock.InOrder(
			s.source.EXPECT().Events(uint64(3), 2).Return(seqs(4, 5)),
			s.sink.EXPECT().Publish(gomock.Any(), seqs(4, 5)).Return(errors.New("broker down")),
		)
		_, err := relay.Flush(s.ctx)
		s.Require().Error(err)
		s.Equal(uint64(3), relay.Cursor())
		s.Equal(float64(1), promtest.ToFloat64(s.metrics.RelayFailures))

		gomock.InOrder(
			s.source.EXPECT().Events(uint64(3), 2).Return(seqs(4, 5)),
			s.sink.EXPECT().Publish(gomock.Any(), seqs(4, 5)).Return(nil),
			s.source.EXPECT().Events(uint64(5), 2).Return(nil),
		)
		n, err := relay.Flush(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, n)
		s.Equal(uint64(5), relay.Cursor())
	})
}

func (s *RelaySuite) TestFlushCompactsDeliveredEvents() {
	admin := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	handle := common.HexToAddress("0x5e00000000000000000000000000000000000001")
	roles := access.New(admin)
	dir := metadata.NewDirectory()
	static, err := metadata.NewStatic(metadata.DocumentDescriptor())
	s.Require().NoError(err)
	s.Require().NoError(dir.Register(handle, static))
	doc, err := registry.New(common.HexToAddress("0xd0c0"), roles, dir, handle, registry.WithJournalRetention(1))
	s.Require().NoError(err)

	s.Require().NoError(roles.Grant(s.ctx, admin, access.MinterRole, admin))
	_, err = doc.BatchDirect(s.ctx, admin, doc.Address(), admin, 4)
	s.Require().NoError(err)

	s.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	relay := NewRelay(doc, s.sink, WithBatchSize(2))
	n, err := relay.Flush(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, n)

	remaining := doc.Events(0, 0)
	s.Require().Len(remaining, 1)
	s.Equal(uint64(5), remaining[0].Seq)
}

func (s *RelaySuite) TestRunStopsOnCancel() {
	s.source.EXPECT().Events(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	relay := s.newRelay(WithInterval(5 * time.Millisecond))

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Millisecond)
	defer cancel()
	err := relay.Run(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *RelaySuite) TestSinks() {
	s.Run("multi sink stops at the first failure", func() {
		second := mocks.NewMockSink(s.ctrl)
		s.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("boom"))
		err := MultiSink{s.sink, second}.Publish(s.ctx, seqs(1, 1))
		s.EqualError(err, "boom")
	})

	s.Run("log sink writes one line per event", func() {
		var buf bytes.Buffer
		sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
		s.Require().NoError(sink.Publish(s.ctx, seqs(1, 2)))
		s.Equal(2, bytes.Count(buf.Bytes(), []byte("\n")))
		s.Contains(buf.String(), `"kind":"transfer"`)
	})
}
