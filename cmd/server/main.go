package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"crossgate/internal/audit"
	"crossgate/internal/escalation"
	escalationHandler "crossgate/internal/escalation/handler"
	"crossgate/internal/evidence"
	"crossgate/internal/intake"
	intakeHandler "crossgate/internal/intake/handler"
	"crossgate/internal/notify"
	"crossgate/internal/platform/config"
	"crossgate/internal/platform/httpserver"
	"crossgate/internal/platform/logger"
	"crossgate/internal/platform/metrics"
	"crossgate/internal/platform/middleware"
	platformredis "crossgate/internal/platform/redis"
	"crossgate/internal/policy"
	"crossgate/internal/review"
	reviewHandler "crossgate/internal/review/handler"
	"crossgate/internal/transfer"
	httptransport "crossgate/internal/transport/http"
)

// main wires the stores, services, and transport, then runs the server and
// the audit stream worker until shutdown. Business logic lives in the
// internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	pol, err := policy.Load(cfg.EscalationPolicyJSON)
	if err != nil {
		log.Error("invalid escalation policy override", "error", err)
		os.Exit(1)
	}

	// Persistence: Postgres when a DSN is configured, then Redis, then the
	// in-memory stores for development.
	var (
		transferStore transfer.Store
		evidenceStore evidence.Store
		auditStore    audit.Store
	)
	switch {
	case cfg.Postgres.DSN != "":
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres audit connection", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		transferStore = transfer.NewPostgresStore(pool)
		evidenceStore = evidence.NewPostgresStore(pool)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres persistence")

	case cfg.Redis.URL != "":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connection", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		transferStore = transfer.NewRedisStore(client.Client)
		evidenceStore = evidence.NewRedisStore(client.Client)
		auditStore = audit.NewRedisStore(client.Client)
		log.Info("using redis persistence")

	default:
		transferStore = transfer.NewInMemoryStore()
		evidenceStore = evidence.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Warn("using in-memory stores, records will not survive restarts")
	}

	auditOpts := []audit.Option{audit.WithMetrics(m)}
	var (
		stream *audit.Stream
		inbox  chan audit.Entry
	)
	notifier := notify.Dispatcher(notify.NewLogDispatcher(log))
	if len(cfg.Kafka.Brokers) > 0 {
		stream, err = audit.NewStream(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("audit stream", "error", err)
			os.Exit(1)
		}
		defer stream.Close()

		inbox = make(chan audit.Entry, 256)
		auditOpts = append(auditOpts, audit.WithStreamInbox(inbox))

		notifyClient, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Kafka.Brokers...),
			kgo.DefaultProduceTopic(cfg.Kafka.NotificationTopic),
		)
		if err != nil {
			log.Error("notification producer", "error", err)
			os.Exit(1)
		}
		defer notifyClient.Close()
		notifier = notify.NewKafkaDispatcher(notifyClient, cfg.Kafka.NotificationTopic)
	}
	auditor := audit.NewPublisher(auditStore, auditOpts...)

	reviewSvc, err := review.NewService(transferStore, evidenceStore, auditor, notifier, m, log)
	if err != nil {
		log.Error("review service", "error", err)
		os.Exit(1)
	}
	escalationSvc, err := escalation.NewService(transferStore, evidenceStore, auditor, pol, notifier, m, log)
	if err != nil {
		log.Error("escalation service", "error", err)
		os.Exit(1)
	}
	intakeSvc, err := intake.NewService(transferStore, evidenceStore, log)
	if err != nil {
		log.Error("intake service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(
		httptransport.RouterConfig{
			Logger:          log,
			Actor:           middleware.NewActorExtractor(cfg.JWTSigningKey, log),
			AdminAPIKeyHash: cfg.AdminAPIKeyHash,
		},
		reviewHandler.New(reviewSvc, log),
		escalationHandler.New(escalationSvc, log),
		intakeHandler.New(intakeSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting crossgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if stream != nil {
		worker := audit.NewWorker(stream, inbox, log)
		g.Go(func() error { return worker.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
