package main

import (
	"os"

	"github.com/huangang/caseeval/internal/config"
	"github.com/huangang/caseeval/internal/handlers"
	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/internal/utils"
	"github.com/huangang/caseeval/pkg/logger"
)

// appServices holds the long-lived services and handlers shared by the routes.
type appServices struct {
	cfg            *config.Config
	summaryService *services.SummaryService
	taskQueue      services.TaskQueue
	worker         *services.Worker
	authHandler    *handlers.AuthHandler
}

// bootstrap initializes database, queue and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	services.InitSystemLogger(db)
	services.StartLogCleanupScheduler(db)

	// Recalculation runs on Redis when enabled, otherwise in-process.
	evaluationService := services.NewEvaluationService(db)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(evaluationService.ProcessRecalculateTask)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(evaluationService.ProcessRecalculateTask)
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start recalculation worker")
			}
		}
	}

	summaryService := services.NewSummaryService(db, cfg.Evaluation.SummaryCron)
	if err := summaryService.StartScheduler(); err != nil {
		logger.Error().Err(err).Str("cron", cfg.Evaluation.SummaryCron).Msg("Failed to start summary scheduler")
	}

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(os.Getenv("ADMIN_PASSWORD")); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:            cfg,
		summaryService: summaryService,
		taskQueue:      taskQueue,
		worker:         worker,
		authHandler:    authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.summaryService.StopScheduler()
	services.StopLogCleanupScheduler()
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
