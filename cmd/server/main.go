package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	cachehandler "caseflow/internal/cachens/handler"
	cachemetrics "caseflow/internal/cachens/metrics"
	cachemw "caseflow/internal/cachens/middleware"
	cacheservice "caseflow/internal/cachens/service"
	"caseflow/internal/cachens/store/kv"
	invoicehandler "caseflow/internal/invoice/handler"
	invoicemetrics "caseflow/internal/invoice/metrics"
	invoiceservice "caseflow/internal/invoice/service"
	"caseflow/internal/invoice/sequence"
	invoicepostgres "caseflow/internal/invoice/store/postgres"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/logger"
	"caseflow/internal/platform/postgres"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/internal/platform/token"
	cacheports "caseflow/internal/cachens/ports"
	auditpublisher "caseflow/pkg/platform/audit/publisher"
	auditkafka "caseflow/pkg/platform/audit/publishers/kafka"
	auditmemory "caseflow/pkg/platform/audit/store/memory"
	adminmw "caseflow/pkg/platform/middleware/admin"
	authmw "caseflow/pkg/platform/middleware/auth"
	"caseflow/pkg/platform/middleware/metadata"
	requestmw "caseflow/pkg/platform/middleware/request"
	"caseflow/pkg/platform/middleware/requesttime"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient == nil {
		log.Error("REDIS_URL is required")
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db == nil {
		log.Error("POSTGRES_DSN is required")
		os.Exit(1)
	}
	defer db.Close()

	// Audit events go to Kafka when brokers are configured, otherwise they
	// stay in process memory behind the same publisher interface.
	var auditSink cacheports.AuditPublisher
	var closeAudit func()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := auditkafka.NewPublisher(ctx, cfg.Kafka.Brokers, auditkafka.WithTopic(cfg.Kafka.Topic))
		if err != nil {
			log.Error("kafka audit publisher failed", "error", err)
			os.Exit(1)
		}
		auditSink = kafkaPub
		closeAudit = kafkaPub.Close
	} else {
		memPub := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(), auditpublisher.WithAsyncBuffer(256))
		auditSink = memPub
		closeAudit = memPub.Close
	}
	defer closeAudit()

	kvStore := kv.NewRedis(redisClient.Client)
	invoiceStore := invoicepostgres.New(db)

	cacheSvc, err := cacheservice.New(kvStore,
		cacheservice.WithLogger(log),
		cacheservice.WithMetrics(cachemetrics.New()),
		cacheservice.WithAuditPublisher(auditSink),
	)
	if err != nil {
		log.Error("cache namespace service init failed", "error", err)
		os.Exit(1)
	}

	seqGen, err := sequence.New(kvStore, invoiceStore, sequence.WithLogger(log))
	if err != nil {
		log.Error("sequence generator init failed", "error", err)
		os.Exit(1)
	}

	invoiceSvc, err := invoiceservice.New(invoiceStore, seqGen,
		invoiceservice.WithLogger(log),
		invoiceservice.WithMetrics(invoicemetrics.New()),
		invoiceservice.WithAuditPublisher(auditSink),
	)
	if err != nil {
		log.Error("invoice service init failed", "error", err)
		os.Exit(1)
	}

	validator := token.NewValidator(cfg.JWTSigningKey)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestmw.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Health(r.Context()); err != nil {
			http.Error(w, "cache store unreachable", http.StatusServiceUnavailable)
			return
		}
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "durable store unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(authmw.RequireAuth(validator, log))
		api.Use(cachemw.CacheNamespace(cacheSvc, log))
		cachehandler.New(cacheSvc, log).Register(api)
		invoicehandler.New(invoiceSvc, log).Register(api)
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(adminmw.RequireAdminToken(cfg.AdminToken, log))
		cachehandler.New(cacheSvc, log).RegisterAdmin(admin)
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting caseflow", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("caseflow stopped")
}
