package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"arbor/internal/jwt_token"
	plantinghandler "arbor/internal/planting/handler"
	plantingmetrics "arbor/internal/planting/metrics"
	plantingmodels "arbor/internal/planting/models"
	plantingservice "arbor/internal/planting/service"
	"arbor/internal/platform/config"
	"arbor/internal/platform/httpserver"
	"arbor/internal/platform/kafka"
	"arbor/internal/platform/logger"
	"arbor/internal/platform/metrics"
	"arbor/internal/platform/redis"
	ratelimitmetrics "arbor/internal/ratelimit/metrics"
	ratelimitmw "arbor/internal/ratelimit/middleware"
	ratelimitmodels "arbor/internal/ratelimit/models"
	"arbor/internal/ratelimit/store/bucket"
	httptransport "arbor/internal/transport/http"
	treehandler "arbor/internal/tree/handler"
	treemetrics "arbor/internal/tree/metrics"
	treemodels "arbor/internal/tree/models"
	treeservice "arbor/internal/tree/service"
	"arbor/pkg/platform/audit/outbox"
	"arbor/pkg/platform/audit/publisher"
	"arbor/pkg/platform/circuit"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the stores, services and transport, then blocks until ctx is
// cancelled or a background component fails.
func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	defer func() { _ = store.close() }()

	checks := map[string]httptransport.HealthCheck{"storage": store.health}

	auditPublisher := publisher.New(store.audit,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)

	treeOpts := []treeservice.Option{
		treeservice.WithLogger(log),
		treeservice.WithAuditPublisher(auditPublisher),
		treeservice.WithMetrics(treemetrics.New(reg)),
		treeservice.WithTx(store.runner),
	}
	plantingOpts := []plantingservice.Option{
		plantingservice.WithLogger(log),
		plantingservice.WithAuditPublisher(auditPublisher),
		plantingservice.WithMetrics(plantingmetrics.New(reg)),
		plantingservice.WithTx(store.runner),
	}

	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var limits ratelimitmw.Store = bucket.NewInMemory()
	if cache != nil {
		defer func() { _ = cache.Close() }()
		cacheMetrics := redis.NewCacheMetrics(reg)
		treeOpts = append(treeOpts, treeservice.WithCache(redis.NewJSONCache[treemodels.Tree](
			cache, "arbor:tree", cfg.CacheTTL,
			redis.WithBreaker(circuit.New("redis-trees")),
			redis.WithCacheMetrics(cacheMetrics),
			redis.WithCacheLogger(log),
		)))
		plantingOpts = append(plantingOpts, plantingservice.WithSiteCache(redis.NewJSONCache[plantingmodels.PlantingSite](
			cache, "arbor:site", cfg.CacheTTL,
			redis.WithBreaker(circuit.New("redis-sites")),
			redis.WithCacheMetrics(cacheMetrics),
			redis.WithCacheLogger(log),
		)))
		limits = bucket.NewRedis(cache, "arbor:ratelimit")
		checks["redis"] = cache.Health
		log.InfoContext(ctx, "redis cache enabled", "ttl", cfg.CacheTTL)
	}

	trees := treeservice.New(store.trees, store.history, treeOpts...)
	planting := plantingservice.New(store.planting, plantingOpts...)

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 && store.outbox != nil {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		checks["kafka"] = producer.Health

		relay := outbox.NewWorker(store.outbox, producer, store.runner, cfg.OutboxPollInterval, outbox.WithLogger(log))
		g.Go(func() error { return relay.Run(gctx) })
		log.InfoContext(ctx, "audit outbox relay enabled", "topic", cfg.Kafka.AuditTopic)
	}

	limiter := ratelimitmw.New(limits,
		ratelimitmodels.Policy{Limit: cfg.RateLimit.Mutations, Window: cfg.RateLimit.Window},
		log, ratelimitmw.WithMetrics(ratelimitmetrics.New(reg)),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:    log,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Checks:    checks,
		RateLimit: limiter.LimitMutations,
		Modules: []httptransport.Module{
			treehandler.New(trees, log),
			plantinghandler.New(planting, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error { return httpserver.Serve(gctx, srv, log) })

	log.InfoContext(ctx, "arbor started", "addr", cfg.Addr, "storage", cfg.Storage)
	return g.Wait()
}
