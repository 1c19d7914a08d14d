package app

import (
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/clubedata/matchsheet/external/matchfeed"
	"github.com/clubedata/matchsheet/internal/config"
	"github.com/clubedata/matchsheet/internal/domain/athletestat"
	"github.com/clubedata/matchsheet/internal/domain/fixture"
	cachedrepo "github.com/clubedata/matchsheet/internal/infrastructure/repository/cache"
	"github.com/clubedata/matchsheet/internal/infrastructure/repository/postgres"
	"github.com/clubedata/matchsheet/internal/interfaces/httpapi"
	"github.com/clubedata/matchsheet/internal/pdftext"
	"github.com/clubedata/matchsheet/internal/platform/cache"
	idgen "github.com/clubedata/matchsheet/internal/platform/id"
	"github.com/clubedata/matchsheet/internal/platform/logging"
	"github.com/clubedata/matchsheet/internal/platform/objstore"
	"github.com/clubedata/matchsheet/internal/platform/resilience"
	"github.com/clubedata/matchsheet/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)

	docRepo := postgres.NewDocumentRepository(db)
	eventRepo := postgres.NewMatchEventRepository(db)
	athleteRepo := postgres.NewAthleteRepository(db)
	runRepo := postgres.NewRunLedgerRepository(db)
	syncStateRepo := postgres.NewSyncStateRepository(db)

	var statRepo athletestat.Repository = postgres.NewAthleteStatRepository(db)
	var fixtureRepo fixture.Repository = postgres.NewFixtureRepository(db)
	if cfg.CacheTTL > 0 {
		store := cache.NewStore(cfg.CacheTTL)
		statRepo = cachedrepo.NewAthleteStatRepository(statRepo, store)
		fixtureRepo = cachedrepo.NewFixtureRepository(fixtureRepo, store)
	}

	store := objstore.NewFilesystemStore(cfg.StorageRoot)

	ids := idgen.NewRandomGenerator()

	feedClient := matchfeed.NewClient(matchfeed.ClientConfig{
		Source:        cfg.FeedSource,
		UserAgent:     cfg.FeedUserAgent,
		Timeout:       cfg.FeedTimeout,
		DetailTimeout: cfg.FeedDetailTimeout,
		MaxRetries:    cfg.FeedMaxRetries,
		DetailWorkers: cfg.FeedDetailWorkers,
		Logger:        logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenReq,
		},
	})

	documentSvc := usecase.NewDocumentService(docRepo, store, pdftext.Extract, ids, cfg.StorageBucket, logger)
	ingestionSvc := usecase.NewIngestionService(docRepo, eventRepo, athleteRepo, runRepo, ids, logger)
	statsSvc := usecase.NewStatsService(eventRepo, statRepo, docRepo, runRepo, ids, logger)
	athleteSvc := usecase.NewAthleteService(athleteRepo, ids)
	syncSvc := usecase.NewFixtureSyncService(feedClient, fixtureRepo, syncStateRepo, runRepo, ids, cfg.Competitions, logger)
	runSvc := usecase.NewRunService(runRepo)

	handler := httpapi.NewHandler(documentSvc, ingestionSvc, statsSvc, athleteSvc, syncSvc, runSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	server.RegisterOnShutdown(func() {
		if err := db.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	})

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
