package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"docreg/internal/access"
	"docreg/internal/events"
	"docreg/internal/events/kafka"
	"docreg/internal/events/postgres"
	jwttoken "docreg/internal/jwt_token"
	"docreg/internal/metadata"
	"docreg/internal/platform/config"
	"docreg/internal/platform/httpserver"
	"docreg/internal/platform/logger"
	"docreg/internal/platform/metrics"
	"docreg/internal/platform/redis"
	"docreg/internal/registry"
	registrymetrics "docreg/internal/registry/metrics"
	"docreg/internal/schema"
	httptransport "docreg/internal/transport/http"
)

const (
	jwtIssuer       = "docreg"
	jwtAudience     = "docreg-api"
	kafkaPartitions = 3
	kafkaReplicas   = 1
)

// main wires dependencies and runs the HTTP server and the event relay until
// SIGINT or SIGTERM. Business logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("docreg stopped", "error", err)
		os.Exit(1)
	}
	log.Info("docreg stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	admin := cfg.Registry.Admin

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var guardStore goredis.Cmdable
	if redisClient != nil {
		defer redisClient.Close()
		guardStore = redisClient.Client
	}

	directory := metadata.NewDirectory()
	static, err := metadata.NewStatic(metadata.DocumentDescriptor())
	if err != nil {
		return err
	}
	if err := directory.Register(cfg.Registry.MetadataHandle, static); err != nil {
		return err
	}

	roles := access.New(admin, access.WithLogger(log))
	document, err := registry.New(cfg.Registry.Address, roles, directory, cfg.Registry.MetadataHandle,
		registry.WithLogger(log),
		registry.WithMetrics(registrymetrics.New()),
		registry.WithReplayGuard(cfg.Replay.GuardFor(guardStore)),
		registry.WithMaxBatch(cfg.Registry.MaxBatch),
		registry.WithTracer(otel.Tracer("docreg/registry")),
	)
	if err != nil {
		return err
	}

	nca := schema.NewNCA(cfg.Registry.NCAAddress, cfg.Registry.BaseURI, document, admin, schema.WithLogger(log))
	saro := schema.NewSARO(cfg.Registry.SAROAddress, cfg.Registry.BaseURI, document, admin, schema.WithLogger(log))
	if err := grantMinters(ctx, cfg, roles, nca.Roles(), saro.Roles()); err != nil {
		return err
	}

	platformMetrics := metrics.New()
	sink, closeSinks, err := buildSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	relay := events.NewRelay(document, sink,
		events.WithLogger(log),
		events.WithMetrics(platformMetrics),
		events.WithInterval(cfg.Relay.Interval),
		events.WithBatchSize(cfg.Relay.BatchSize),
	)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer, jwtAudience)
	handler := httptransport.New(document, roles, []httptransport.SchemaAdapter{nca, saro}, log)
	router := httptransport.NewRouter(handler, tokens, platformMetrics, prometheus.DefaultGatherer)
	srv := httpserver.New(cfg.Addr, router)

	log.InfoContext(ctx, "starting docreg",
		"addr", cfg.Addr,
		"registry", document.Address().Hex(),
		"journal_epoch", document.Epoch(),
		"replay_guard", cfg.Replay.Mode,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpserver.Serve(gctx, srv) })
	g.Go(func() error { return relay.Run(gctx) })
	err = g.Wait()

	// Deliver whatever the last tick missed.
	if _, flushErr := relay.Flush(context.WithoutCancel(ctx)); flushErr != nil {
		log.Warn("final relay flush failed", "error", flushErr)
	}
	return err
}

// grantMinters gives both adapters MINTER_ROLE on the document registry and
// the configured minters MINTER_ROLE everywhere.
func grantMinters(ctx context.Context, cfg config.Server, document *access.Registry, adapters ...*access.Registry) error {
	admin := cfg.Registry.Admin
	for _, addr := range []common.Address{cfg.Registry.NCAAddress, cfg.Registry.SAROAddress} {
		if err := document.Grant(ctx, admin, access.MinterRole, addr); err != nil {
			return fmt.Errorf("grant adapter %s: %w", addr.Hex(), err)
		}
	}
	minters, err := cfg.Registry.Minters()
	if err != nil {
		return err
	}
	for _, m := range minters {
		for _, roles := range append([]*access.Registry{document}, adapters...) {
			if err := roles.Grant(ctx, admin, access.MinterRole, m); err != nil {
				return fmt.Errorf("grant minter %s: %w", m.Hex(), err)
			}
		}
	}
	return nil
}

// buildSink fans journal events out to the log and, when configured, to
// Postgres and Kafka.
func buildSink(ctx context.Context, cfg config.Server, log *slog.Logger) (events.Sink, func(), error) {
	sinks := events.MultiSink{events.NewLogSink(log)}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, closeAll, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		store := postgres.New(db)
		if err := store.Ping(ctx); err != nil {
			return nil, closeAll, err
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, store)
	}

	if brokers := cfg.Kafka.Brokers(); len(brokers) > 0 {
		client, err := kafka.NewClient(brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, client.Close)
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, kafkaPartitions, kafkaReplicas); err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, kafka.NewSink(client, cfg.Kafka.Topic))
	}
	return sinks, closeAll, nil
}
