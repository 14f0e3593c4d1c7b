// Command setup-admin creates the first administrator from ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD. It refuses to run once any admin exists.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/internal/models"
	"github.com/noah-isme/civic-report-api/internal/repository"
	"github.com/noah-isme/civic-report-api/internal/service"
	"github.com/noah-isme/civic-report-api/pkg/config"
	"github.com/noah-isme/civic-report-api/pkg/database"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/logger"
)

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

	if cfg.Bootstrap.Password == "" {
		logr.Fatal("ADMIN_PASSWORD must be set")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}

	auth := service.NewAuthService(repository.NewAdminRepository(db), service.NewValidator(), logr, service.AuthConfig{
		SessionSecret: cfg.Session.Secret,
	})

	admin, err := auth.Bootstrap(ctx, models.CreateAdminRequest{
		Username: cfg.Bootstrap.Username,
		Email:    cfg.Bootstrap.Email,
		Password: cfg.Bootstrap.Password,
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrAdminExists) {
			logr.Info("admin account already exists, nothing to do")
			return
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && len(appErr.Details) > 0 {
			logr.Fatal("invalid admin settings", zap.Any("details", appErr.Details))
		}
		logr.Fatal("failed to create admin", zap.Error(err))
	}

	logr.Info("admin account created", zap.Int64("id", admin.ID), zap.String("username", admin.Username))
}
