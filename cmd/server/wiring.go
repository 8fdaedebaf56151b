package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/twmb/franz-go/pkg/kgo"

	flagsentity "kycgate/internal/flags/entity"
	flagshandler "kycgate/internal/flags/handler"
	flagsmetrics "kycgate/internal/flags/metrics"
	flagsservice "kycgate/internal/flags/service"
	flagsstore "kycgate/internal/flags/store"
	"kycgate/internal/identity"
	kychandler "kycgate/internal/kyc/handler"
	kycmetrics "kycgate/internal/kyc/metrics"
	kycservice "kycgate/internal/kyc/service"
	kycstore "kycgate/internal/kyc/store"
	"kycgate/internal/platform/config"
	"kycgate/internal/platform/postgres"
	"kycgate/internal/platform/redis"
	"kycgate/internal/risk"
	"kycgate/internal/screening"
	screeningmetrics "kycgate/internal/screening/metrics"
	audit "kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/audit/publishers/compliance"
	auditmemory "kycgate/pkg/platform/audit/store/memory"
	auditpostgres "kycgate/pkg/platform/audit/store/postgres"
	"kycgate/pkg/platform/audit/worker"
	"kycgate/pkg/platform/tx"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
)

type kycStore interface {
	kycservice.Store
	flagsentity.KYCStatusLookup
}

type dependencies struct {
	storeKind string
	db        *sqlx.DB
	redis     *redis.Client
	kafka     *kgo.Client
	relay     *worker.Worker

	kycHandler   *kychandler.Handler
	flagsHandler *flagshandler.Handler
}

// buildDependencies selects Postgres or in-memory stores from configuration
// and wires every module against them.
func buildDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*dependencies, error) {
	deps := &dependencies{storeKind: "memory"}

	var (
		kycRecords  kycStore
		flagRecords flagsservice.Store
		auditStore  audit.Store
		runner      tx.Runner
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		deps.db = db
		deps.storeKind = "postgres"
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(db); err != nil {
				deps.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		outbox := auditpostgres.New(db)
		kycRecords = kycstore.NewPostgres(db)
		flagRecords = flagsstore.NewPostgres(db)
		auditStore = outbox
		runner = tx.NewSQLRunner(db)

		if len(cfg.Kafka.Brokers) > 0 {
			if err := deps.startRelay(ctx, cfg, outbox, log); err != nil {
				deps.Close()
				return nil, err
			}
		}
	} else {
		kycRecords = kycstore.NewInMemoryStore()
		flagRecords = flagsstore.NewInMemoryStore()
		auditStore = auditmemory.NewInMemoryStore()
		runner = tx.NewLockRunner()
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.redis = redisClient

	fingerprinter, err := identity.NewFingerprinter(cfg.Identity.FingerprintKey)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var screener screening.Provider = screening.NewDenylist(cfg.Screening.Denylist)
	if redisClient != nil {
		screener = screening.NewCachedProvider(screener, redisClient, fingerprinter, cfg.Screening.CacheTTL,
			screening.WithCacheLogger(log),
			screening.WithCacheMetrics(screeningmetrics.New()),
		)
	}

	auditor := compliance.New(auditStore,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics()),
	)

	kycSvc, err := kycservice.New(kycRecords,
		identity.NewValidator(identity.WithSAIDChecksum(cfg.Identity.EnforceSAIDChecksum)),
		screener,
		risk.NewScorer(risk.WithHighRiskCountries(cfg.Risk.HighRiskCountries)),
		kycservice.WithLogger(log),
		kycservice.WithMetrics(kycmetrics.New()),
		kycservice.WithAuditPublisher(auditor),
		kycservice.WithTxRunner(runner),
		kycservice.WithFingerprinter(fingerprinter),
		kycservice.WithMaxListLimit(cfg.KYC.ListMaxLimit),
	)
	if err != nil {
		deps.Close()
		return nil, err
	}

	flagSvc, err := flagsservice.New(flagRecords,
		flagsservice.WithLogger(log),
		flagsservice.WithMetrics(flagsmetrics.New()),
		flagsservice.WithAuditPublisher(auditor),
		flagsservice.WithTxRunner(runner),
		flagsservice.WithEntityResolver(flagsentity.NewResolver(kycRecords)),
	)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.kycHandler = kychandler.New(kycSvc, log)
	deps.flagsHandler = flagshandler.New(flagSvc, log)
	return deps, nil
}

func (d *dependencies) startRelay(ctx context.Context, cfg *config.Config, outbox *auditpostgres.Store, log *slog.Logger) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
	if err != nil {
		return fmt.Errorf("kafka client: %w", err)
	}
	d.kafka = client
	if err := worker.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, auditTopicPartitions, auditTopicReplication); err != nil {
		return err
	}
	d.relay = worker.NewWorker(outbox, client, cfg.Kafka.AuditTopic,
		worker.WithInterval(cfg.Kafka.RelayInterval),
		worker.WithLogger(log),
	)
	return nil
}

// Close releases external connections. Safe on partially built dependencies.
func (d *dependencies) Close() {
	if d.kafka != nil {
		d.kafka.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}
