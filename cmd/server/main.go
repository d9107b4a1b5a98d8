package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"basalt/internal/audit"
	"basalt/internal/compliance"
	"basalt/internal/identity"
	identitycache "basalt/internal/identity/cache"
	identitystore "basalt/internal/identity/store"
	"basalt/internal/jwttoken"
	"basalt/internal/ledger"
	ledgerstore "basalt/internal/ledger/store"
	"basalt/internal/platform/config"
	"basalt/internal/platform/httpserver"
	"basalt/internal/platform/logger"
	"basalt/internal/platform/metrics"
	platformredis "basalt/internal/platform/redis"
	httptransport "basalt/internal/transport/http"
	"basalt/pkg/domain"
	"basalt/pkg/requestcontext"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	admin := domain.ZeroAddress
	if cfg.InitialAdmin != "" {
		parsed, err := domain.ParseAddress(cfg.InitialAdmin)
		if err != nil {
			return fmt.Errorf("parse initial admin: %w", err)
		}
		admin = parsed
	} else {
		log.Warn("no initial admin configured; role-gated operations will be unusable")
	}

	// Stores. Postgres backs the identity directory and the audit trail when
	// configured; the ledger state itself lives in the transactional
	// in-memory store.
	var (
		identityStore identity.Store = identitystore.NewInMemory()
		auditStore    audit.Store    = audit.NewInMemoryStore()
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		identityPG := identitystore.NewPostgres(db)
		auditPG := audit.NewPostgresStore(db)
		if err := identityPG.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := auditPG.EnsureSchema(ctx); err != nil {
			return err
		}
		identityStore = identityPG
		auditStore = auditPG
	}
	store := ledgerstore.NewMemory()

	// Audit pipeline. Without Kafka the publisher writes to the store only.
	publisherOpts := []audit.PublisherOption{audit.WithLogger(log)}
	var (
		sink   *audit.KafkaSink
		outbox chan audit.Event
	)
	if len(cfg.KafkaBrokers) > 0 {
		s, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("kafka sink: %w", err)
		}
		sink = s
		defer sink.Close()
		outbox = make(chan audit.Event, 256)
		publisherOpts = append(publisherOpts, audit.WithOutbox(outbox))
	}
	publisher := audit.NewPublisher(auditStore, publisherOpts...)

	// Verification cache is optional.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	identityOpts := []identity.Option{
		identity.WithLogger(log),
		identity.WithAuditPublisher(publisher),
		identity.WithMetrics(m),
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache := identitycache.NewRedisVerificationCache(redisClient.Client, config.VerificationCacheTTL, log)
		identityOpts = append(identityOpts, identity.WithCache(cache))
	}

	// The directory checks agent roles against the ledger, and the ledger
	// checks verification against the directory. The func adapter breaks
	// the construction cycle.
	var ledgerSvc *ledger.Service
	agents := identity.AgentCheckerFunc(func(ctx context.Context, account domain.Address) (bool, error) {
		return ledgerSvc.IsAgent(ctx, account)
	})
	identitySvc := identity.New(identityStore, agents, identityOpts...)

	policy := compliance.NewPolicy(admin, compliance.WithLogger(log))
	ledgerSvc = ledger.New(store, identitySvc, policy, cfg.LedgerRef,
		ledger.WithLogger(log),
		ledger.WithAuditPublisher(publisher),
		ledger.WithMetrics(m),
	)

	if err := ledgerstore.SeedAdmin(ctx, store, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !admin.IsZero() {
		if err := policy.Bind(requestcontext.WithActor(ctx, admin), cfg.LedgerRef); err != nil {
			return fmt.Errorf("bind policy: %w", err)
		}
	}

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, "basalt")

	router := httptransport.NewRouter(httptransport.Handlers{
		Assets:     httptransport.NewAssetHandler(ledgerSvc),
		Ledger:     httptransport.NewLedgerHandler(ledgerSvc),
		Identity:   httptransport.NewIdentityHandler(identitySvc),
		Compliance: httptransport.NewComplianceHandler(policy),
	}, jwtService, log, m)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	if sink != nil {
		worker := audit.NewWorker(sink, outbox, log)
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
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

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
