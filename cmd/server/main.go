package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dicri/internal/auth/revocation"
	exphandler "dicri/internal/expediente/handler"
	expmetrics "dicri/internal/expediente/metrics"
	expmodels "dicri/internal/expediente/models"
	expservice "dicri/internal/expediente/service"
	indhandler "dicri/internal/indicio/handler"
	indservice "dicri/internal/indicio/service"
	jwttoken "dicri/internal/jwt_token"
	"dicri/internal/platform/config"
	"dicri/internal/platform/httpserver"
	"dicri/internal/platform/logger"
	"dicri/internal/platform/metrics"
	"dicri/internal/platform/postgres"
	"dicri/internal/platform/redis"
	"dicri/internal/storage"
	httptransport "dicri/internal/transport/http"
	audit "dicri/pkg/platform/audit"
	auditpublisher "dicri/pkg/platform/audit/publisher"
	"dicri/pkg/platform/audit/store/failover"
	kafkastore "dicri/pkg/platform/audit/store/kafka"
	auditmemory "dicri/pkg/platform/audit/store/memory"
	"dicri/pkg/platform/circuit"
	authmw "dicri/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development JWT signing key; set DICRI_JWT_SIGNING_KEY")
	}
	healthChecks := map[string]httptransport.HealthCheck{}

	records, closeStore, err := openStore(ctx, cfg, log, healthChecks)
	if err != nil {
		return err
	}
	defer closeStore()

	auditPub, closeAudit, err := openAudit(ctx, cfg, log, healthChecks)
	if err != nil {
		return err
	}
	defer closeAudit()

	var revocationChecker authmw.TokenRevocationChecker
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocationChecker = revocation.NewRedisTRL(redisClient.Client)
		healthChecks["redis"] = redisClient.Health
		log.Info("token revocation enabled")
	} else {
		log.Warn("DICRI_REDIS_URL not set; revoked tokens are accepted until they expire")
	}

	domainMetrics := expmetrics.New()
	expedientes := expservice.New(records,
		expservice.WithLogger(log),
		expservice.WithAuditPublisher(auditPub),
		expservice.WithMetrics(domainMetrics),
		expservice.WithTransitionRules(expmodels.TransitionRules{EnforceReviewState: cfg.EnforceReviewState}),
	)
	indicios := indservice.New(records,
		indservice.WithLogger(log),
		indservice.WithAuditPublisher(auditPub),
		indservice.WithMetrics(domainMetrics),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:            log,
		Metrics:           metrics.New(),
		Validator:         jwttoken.NewJWTServiceAdapter(jwtService),
		RevocationChecker: revocationChecker,
		HealthChecks:      healthChecks,
		RequestTimeout:    cfg.Database.StoreTimeout * 3,
		APIHandlers: []httptransport.Registrar{
			exphandler.New(expedientes, log),
			indhandler.New(indicios, log),
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	return g.Wait()
}

// openStore selects Postgres when a database URL is configured and the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (storage.RecordStore, func(), error) {
	if cfg.Database.URL == "" {
		log.Warn("DICRI_DATABASE_URL not set; using the in-memory store")
		return storage.NewInMemoryStore(), func() {}, nil
	}

	if err := postgres.Migrate(cfg.Database.URL, log); err != nil {
		return nil, nil, err
	}
	db, err := postgres.Open(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	checks["database"] = postgres.NewReadinessChecker(db).CheckReady
	return storage.NewPostgres(db, storage.WithTimeout(cfg.Database.StoreTimeout)), closeDB(db, log), nil
}

func closeDB(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error("close database", "error", err)
		}
	}
}

// openAudit streams audit events to Kafka when brokers are configured and
// keeps them in memory otherwise.
func openAudit(ctx context.Context, cfg *config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (*auditpublisher.Publisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		pub := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(), auditpublisher.WithLogger(log))
		return pub, pub.Close, nil
	}

	ks, err := kafkastore.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	if err != nil {
		return nil, nil, err
	}
	if err := ks.EnsureTopic(ctx, cfg.Kafka.TopicPartitions, cfg.Kafka.ReplicationFactor); err != nil {
		ks.Close()
		return nil, nil, err
	}
	checks["kafka"] = ks.Ping

	var sink audit.Store = failover.New(ks, failover.NewLogSink(log),
		circuit.New("kafka-audit", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		failover.WithLogger(log),
	)
	pub := auditpublisher.NewPublisher(sink,
		auditpublisher.WithAsyncBuffer(cfg.Kafka.AuditBuffer),
		auditpublisher.WithLogger(log),
	)
	log.Info("audit events streaming to kafka",
		"topic", cfg.Kafka.AuditTopic,
		"brokers", cfg.Kafka.Brokers,
	)
	return pub, func() {
		// drain buffered events before the client goes away
		pub.Close()
		ks.Close()
	}, nil
}
