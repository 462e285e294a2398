package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"sovereign/internal/audit"
	"sovereign/internal/compliance"
	complianceMetrics "sovereign/internal/compliance/metrics"
	"sovereign/internal/deployment"
	"sovereign/internal/events"
	"sovereign/internal/keys"
	keysMetrics "sovereign/internal/keys/metrics"
	"sovereign/internal/platform/config"
	"sovereign/internal/platform/httpserver"
	"sovereign/internal/platform/logger"
	"sovereign/internal/platform/middleware"
	platformRedis "sovereign/internal/platform/redis"
	"sovereign/internal/registry"
	registryMetrics "sovereign/internal/registry/metrics"
	"sovereign/internal/residency"
	residencyMetrics "sovereign/internal/residency/metrics"
	"sovereign/internal/routing"
	routingMetrics "sovereign/internal/routing/metrics"
	"sovereign/internal/transfer"
	transferMetrics "sovereign/internal/transfer/metrics"
	httptransport "sovereign/internal/transport/http"
	id "sovereign/pkg/domain"
)

// main wires stores, services and transport. Business logic lives in the
// internal service packages; everything here is dependency assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Stores: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		auditStore      audit.Store         = audit.NewInMemoryStore()
		residencyStore  residency.RuleStore = residency.NewInMemoryStore()
		deploymentStore deployment.Store    = deployment.NewInMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		auditStore = audit.NewPostgresStore(db)
		residencyStore = residency.NewPostgresStore(db)
		deploymentStore = deployment.NewPostgresStore(db)
		log.Info("using postgres stores")
	}

	// Event publisher: Kafka when brokers are configured, no-op otherwise.
	var publisher events.Publisher = events.Nop{}
	if kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka, log); err != nil {
		log.Error("connect kafka", "error", err)
		os.Exit(1)
	} else if kafkaPublisher != nil {
		publisher = kafkaPublisher
		log.Info("kafka publisher connected", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	// Routing analytics: Redis when configured, in-memory otherwise.
	var analytics routing.Analytics = routing.NewInMemoryAnalytics()
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		analytics = routing.NewRedisAnalytics(redisClient.Client, log)
		log.Info("redis analytics connected")
	}

	auditor := audit.NewService(auditStore, log)
	residencySvc := residency.NewService(residencyStore, auditor, publisher, residencyMetrics.New(), log)
	transferSvc := transfer.NewService(transfer.NewInMemoryStore(), auditor, publisher, transferMetrics.New(), log)
	deploymentSvc := deployment.NewService(deploymentStore, deployment.StaticOrchestrator{}, residencySvc, publisher, log)
	routingSvc := routing.NewService(routing.NewInMemoryStore(), deploymentSvc, auditor, publisher, analytics, routingMetrics.New(), log)
	complianceSvc := compliance.NewService(compliance.NewInMemoryReportStore(), compliance.NewInMemoryMapStore(), publisher, complianceMetrics.New(), log)
	registrySvc := registry.NewService(registry.NewInMemoryStore(), registry.NewInMemoryCertificationStore(), publisher, registryMetrics.New(), log)
	keysSvc := keys.NewService(keys.NewInMemoryStore(), publisher, keysMetrics.New(), log)

	handler := httptransport.NewHandler(residencySvc, transferSvc, routingSvc, deploymentSvc, complianceSvc, registrySvc, keysSvc, auditor, log)
	validator := middleware.NewHMACValidator(cfg.JWTSigningKey)

	defaultJurisdiction, err := id.ParseJurisdiction(cfg.DefaultJurisdiction)
	if err != nil {
		log.Error("invalid default jurisdiction", "value", cfg.DefaultJurisdiction, "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(handler, validator, defaultJurisdiction)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting sovereign service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
