package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/drrm-training-api/api/swagger"
	"github.com/noah-isme/drrm-training-api/internal/handler"
	"github.com/noah-isme/drrm-training-api/internal/repository"
	"github.com/noah-isme/drrm-training-api/internal/service"
	"github.com/noah-isme/drrm-training-api/pkg/cache"
	"github.com/noah-isme/drrm-training-api/pkg/config"
	"github.com/noah-isme/drrm-training-api/pkg/database"
	"github.com/noah-isme/drrm-training-api/pkg/jobs"
	"github.com/noah-isme/drrm-training-api/pkg/logger"
	"github.com/noah-isme/drrm-training-api/pkg/realtime"
	"github.com/noah-isme/drrm-training-api/pkg/storage"
)

// @title DRRM Training Portal API
// @version 1.0.0
// @description Training programs, calendar, applicant coverage and report exports
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	app, err := buildApp(cfg, logr, db, redisClient)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	app.start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	app.stop()
	logr.Info("server stopped")
}

type application struct {
	cfg     *config.Config
	router  *gin.Engine
	queue   *jobs.Queue[string]
	reports *service.ReportService
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()
	loc := cfg.Calendar.Location()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Coverage.CacheTTL, logr.Named("cache"), cacheRepo != nil)

	var hub *realtime.Hub
	var events eventPublisher
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(logr.Named("realtime"))
		events = hub
	}

	auditRepo := repository.NewAuditRepository(db)
	programRepo := repository.NewProgramRepository(db)
	applicantRepo := repository.NewApplicantRepository(db)
	configRepo := repository.NewConfigurationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	programSvc := service.NewProgramService(programRepo, cacheSvc, events, auditRepo, validate, logr.Named("programs"), loc)
	calendarSvc := service.NewCalendarService(programSvc, cacheSvc, metrics, logr.Named("calendar"), service.CalendarServiceConfig{
		Location: loc,
		CacheTTL: cfg.Calendar.CacheTTL,
	})
	applicantSvc := service.NewApplicantService(applicantRepo, programSvc, cacheSvc, events, validate, logr.Named("applicants"))
	configSvc := service.NewConfigurationService(configRepo, auditRepo, cacheSvc, events, validate, logr.Named("configuration"), service.ConfigurationServiceConfig{})
	coverageSvc := service.NewCoverageService(applicantSvc, configSvc, cacheSvc, metrics, logr.Named("coverage"), cfg.Coverage.CacheTTL)

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(programSvc, coverageSvc, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
		Location:  loc,
	}, logr.Named("export"), nil, nil)

	worker := service.NewReportWorker(reportRepo, exportSvc, metrics, events, logr.Named("report-worker"))
	queue := jobs.NewQueue[string]("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr.Named("queue"),
	})
	queue.OnExhausted(worker.Exhausted)
	reportSvc := service.NewReportService(reportRepo, queue, exportSvc, auditRepo, validate, logr.Named("reports"), service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})

	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
	}

	router := newRouter(routerDeps{
		cfg:        cfg,
		logger:     logr,
		metrics:    metrics,
		auth:       authSvc,
		audit:      auditRepo,
		hub:        hub,
		authH:      handler.NewAuthHandler(authSvc),
		programH:   handler.NewProgramHandler(programSvc),
		calendarH:  handler.NewCalendarHandler(calendarSvc),
		applicantH: handler.NewApplicantHandler(applicantSvc),
		coverageH:  handler.NewCoverageHandler(coverageSvc),
		configH:    handler.NewConfigurationHandler(configSvc),
		reportH:    handler.NewReportHandler(reportSvc),
		metricsH:   handler.NewMetricsHandler(metrics, checks),
	})

	return &application{cfg: cfg, router: router, queue: queue, reports: reportSvc}, nil
}

type eventPublisher interface {
	Publish(evt realtime.Event)
}

func (a *application) start(ctx context.Context) {
	if !a.cfg.Reports.Enabled {
		return
	}
	a.queue.Start(ctx)
	a.reports.RecoverPendingJobs(ctx)
	a.reports.StartCleanup(ctx)
}

func (a *application) stop() {
	a.queue.Stop()
}
