package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mgallego/posada/internal/api"
	"github.com/mgallego/posada/internal/app"
	"github.com/mgallego/posada/internal/app/maintenance"
	"github.com/mgallego/posada/internal/database"
	"github.com/mgallego/posada/internal/notify"
	"github.com/mgallego/posada/internal/services"
	"github.com/mgallego/posada/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Service  *services.NotificationService
	Notifier *services.Notifier
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// bootstrapRuntime initialises the database, notification services, and the
// HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	store, err := services.NewNotificationStore(stack.DB, cfg.Notifications.TTL())
	if err != nil {
		return nil, fmt.Errorf("initialise notification store: %w", err)
	}

	reads, err := services.NewReadTracker(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise read tracker: %w", err)
	}

	audit, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	registry := notify.NewRegistry(
		notify.GoalSummaryFormatter{},
		notify.LedgerEntryFormatter{},
	)

	stack.Service, err = services.NewNotificationService(store, reads, registry, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise notification service: %w", err)
	}

	directory, err := services.NewUserDirectory(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user directory: %w", err)
	}

	resolver := notify.NewResolver(cfg.Notifications.FallbackAdminID)

	stack.Notifier, err = services.NewNotifier(stack.Service, directory, resolver, nil)
	if err != nil {
		return nil, fmt.Errorf("initialise notifier: %w", err)
	}

	if cfg.Notifications.Enabled {
		stack.Cleaner = maintenance.NewCleaner(store, audit,
			maintenance.WithSweepSchedule(cfg.Notifications.SweepSchedule),
			maintenance.WithAuditRetentionDays(cfg.Notifications.AuditRetentionDays),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:   cfg,
		DB:       stack.DB,
		Service:  stack.Service,
		Notifier: stack.Notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseSettings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
