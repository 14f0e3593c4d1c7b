package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/civic-report-api/api/swagger"
	"github.com/noah-isme/civic-report-api/internal/handler"
	"github.com/noah-isme/civic-report-api/internal/repository"
	"github.com/noah-isme/civic-report-api/internal/router"
	"github.com/noah-isme/civic-report-api/internal/service"
	"github.com/noah-isme/civic-report-api/pkg/cache"
	"github.com/noah-isme/civic-report-api/pkg/config"
	"github.com/noah-isme/civic-report-api/pkg/database"
	"github.com/noah-isme/civic-report-api/pkg/jobs"
	"github.com/noah-isme/civic-report-api/pkg/logger"
	"github.com/noah-isme/civic-report-api/pkg/mailer"
	"github.com/noah-isme/civic-report-api/pkg/storage"
)

// @title Civic Issue Reporting API
// @version 1.0.0
// @description Citizen issue submission, admin triage, authority notification and analytics
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		logr.Fatal("failed to migrate database", zap.Error(err))
	}
	cancelMigrate()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare upload directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	transport, err := mailer.New(cfg.Mail, logr)
	if err != nil {
		logr.Fatal("failed to init mailer", zap.Error(err))
	}

	issueRepo := repository.NewIssueRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	validate := service.NewValidator()

	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
	})
	dashboardSvc := service.NewDashboardService(issueRepo, cacheSvc, metricsSvc, cfg.Dashboard.CacheTTL, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheSvc, metricsSvc, cfg.Analytics.CacheTTL, logr)
	notifier := service.NewNotificationService(issueRepo, transport, cacheSvc, metricsSvc, cfg.Mail.AdminPanelURL, logr)

	issueOpts := service.IssueServiceOptions{Validator: validate, Cache: cacheSvc, Metrics: metricsSvc, Logger: logr}
	var retryQueue *jobs.Queue
	if cfg.Notifications.RetryEnabled {
		worker := service.NewNotificationRetryWorker(issueRepo, notifier, logr)
		giveUp := func(job jobs.Job, err error) {
			metricsSvc.NotificationSent("authority_retry_exhausted", err)
		}
		retryQueue = jobs.NewQueue("notification-retry", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Notifications.Workers,
			MaxRetries:  cfg.Notifications.MaxRetries,
			RetryDelay:  cfg.Notifications.RetryDelay,
			Logger:      logr,
			OnExhausted: giveUp,
		})
		issueOpts.Retry = retryQueue
	}
	issueSvc := service.NewIssueService(issueRepo, files, notifier, dashboardSvc, issueOpts)
	exportSvc := service.NewExportService(issueRepo, logr)

	readiness := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		readiness["redis"] = handler.PingerFunc(cacheRepo.Ping)
	}

	engine := router.New(router.Options{
		Handlers: router.Handlers{
			Issues:    handler.NewIssueHandler(issueSvc, signer, cfg.Uploads.MaxBytes, logr),
			Admin:     handler.NewAdminHandler(authSvc, handler.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}, logr),
			Analytics: handler.NewAnalyticsHandler(analyticsSvc),
			Uploads:   handler.NewUploadHandler(signer, files, logr),
			Export:    handler.NewExportHandler(exportSvc),
			Metrics:   handler.NewMetricsHandler(metricsSvc, readiness),
		},
		Auth:           authSvc,
		CookieName:     cfg.Session.CookieName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateCounter:    cacheRepo,
		SubmitPerDay:   cfg.RateLimit.SubmitPerDay,
		MetricsService: metricsSvc,
		Logger:         logr,
		EnableDocs:     cfg.Env != config.EnvProduction,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if retryQueue != nil {
		retryQueue.Start(ctx)
		defer retryQueue.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
