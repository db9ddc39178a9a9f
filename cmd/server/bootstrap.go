package main

import (
	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/internal/handlers"
	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/internal/services"
	"github.com/huangang/ideahub/backend/internal/utils"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/huangang/ideahub/backend/pkg/metrics"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg           *config.Config
	taskQueue     services.TaskQueue
	worker        *services.Worker
	logCleanup    *services.LogCleanupScheduler
	authHandler   *handlers.AuthHandler
	notifications *services.NotificationService
}

// bootstrap initializes all application dependencies: database, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if sqlDB, err := models.GetDB().DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.Driver); err != nil {
			logger.Warn().Err(err).Msg("Failed to register database metrics")
		}
	}

	services.InitSystemLogger(models.GetDB())

	logCleanup, err := services.NewLogCleanupScheduler(models.GetDB(), cfg.Log.CleanupCron, cfg.Log.RetentionDays)
	if err != nil {
		logger.Fatalf("Invalid log cleanup schedule %q: %v", cfg.Log.CleanupCron, err)
	}
	logCleanup.Start()

	// Decision emails go through Redis when enabled, otherwise in-process.
	emailService := services.NewEmailService(&cfg.SMTP)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(emailService.ProcessNotification)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(emailService.ProcessNotification)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start notification worker")
			}
		}
	}

	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:           cfg,
		taskQueue:     taskQueue,
		worker:        worker,
		logCleanup:    logCleanup,
		authHandler:   authHandler,
		notifications: services.NewNotificationService(taskQueue),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.logCleanup.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
}
