package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"proovd/internal/audit"
	"proovd/internal/jwtauth"
	"proovd/internal/platform/config"
	"proovd/internal/platform/dnsresolver"
	"proovd/internal/platform/httpserver"
	"proovd/internal/platform/kafka"
	"proovd/internal/platform/logger"
	"proovd/internal/platform/metrics"
	platformpostgres "proovd/internal/platform/postgres"
	platformredis "proovd/internal/platform/redis"
	"proovd/internal/verification"
	"proovd/internal/verification/service"
	"proovd/internal/verification/store"
	"proovd/internal/verification/verifier"
)

// main wires dependencies and owns process lifecycle. Business logic lives
// in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Store selection: memory unless a backend is configured.
	st, cleanup, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Audit pipeline: events flow through a buffered channel to the sink so
	// emission never blocks request handling.
	sink, sinkCleanup, err := newAuditSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sinkCleanup()

	publisher := audit.NewChannelPublisher(256, log)
	worker := audit.NewWorker(sink, publisher.Inbox(), log)

	var resolver verifier.Resolver = dnsresolver.NewNet()
	if cfg.DNSServer != "" {
		resolver = dnsresolver.NewMiekg(cfg.DNSServer, 5*time.Second)
	}

	v := verifier.New(resolver,
		verifier.WithLogger(log),
		verifier.WithMetrics(m),
		verifier.WithProduction(cfg.IsProduction()),
		verifier.WithHTTPTimeout(cfg.HTTPCheckTimeout),
	)

	svc := verification.NewService(st, v,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithTracer(otel.Tracer("proovd/verification")),
	)

	jwtService := jwtauth.New(cfg.JWTSigningKey, "proovd", "proovd-api")
	handler := verification.NewHandler(svc, log, jwtService)

	router := chi.NewRouter()
	handler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(st))

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		// Run returns ctx.Err() on shutdown, which is not a failure here.
		_ = worker.Run(ctx)
		return nil
	})

	group.Go(func() error {
		log.Info("starting proovd", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func newStore(cfg config.Server) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := platformpostgres.Open(cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgres(db)
		if err := pg.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, func() { db.Close() }, nil
	case "redis":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client), func() { client.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

func newAuditSink(ctx context.Context, cfg config.Server, log *slog.Logger) (audit.Sink, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewMemorySink(), func() {}, nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, log)
	if err != nil {
		return nil, nil, err
	}
	if err := producer.EnsureTopic(ctx, cfg.KafkaAuditTopic, 3); err != nil {
		producer.Close()
		return nil, nil, err
	}
	return audit.NewKafkaSink(producer, cfg.KafkaAuditTopic), func() { producer.Close() }, nil
}

func healthz(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Health(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
