package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/handlers"
	"github.com/huangang/caseeval/internal/middleware"
	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine. The
// returned limiter must be stopped on shutdown.
func registerRoutes(r *gin.Engine, svc *appServices) *middleware.RateLimiter {
	db := models.GetDB()

	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.Server.AllowOrigins...))

	loginLimiter := middleware.NewRateLimiter(1, 5)

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/health", healthHandler.CheckHealth)

	caseHandler := handlers.NewCaseHandler(db)
	evaluationHandler := handlers.NewEvaluationHandler(db, svc.cfg.Evaluation.RecalcBatchSize)
	evaluationConfigHandler := handlers.NewEvaluationConfigHandler(db)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", loginLimiter.Middleware(), svc.authHandler.Login)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Cases (reporters see their own, admins see all)
			protected.POST("/cases", caseHandler.Create)
			protected.GET("/cases", caseHandler.List)
			protected.GET("/cases/:id", caseHandler.GetByID)
			protected.PUT("/cases/:id", caseHandler.Update)
			protected.PATCH("/cases/:id/status", caseHandler.UpdateStatus)
			protected.GET("/cases/:id/evaluation", evaluationHandler.GetBreakdown)

			// Evaluation config (read for all users)
			protected.GET("/evaluation-config", evaluationConfigHandler.ListGrouped)
			protected.GET("/evaluation-config/snapshot", evaluationConfigHandler.Snapshot)
			protected.GET("/evaluation-config/resolve", evaluationConfigHandler.ResolveLabel)
			protected.GET("/evaluation-config/options/:id", evaluationConfigHandler.GetByID)
		}

		// Live evaluation events; EventSource passes ?token=
		stream := api.Group("")
		stream.Use(middleware.StreamAuthRequired())
		{
			sseHandler := handlers.NewSSEHandler(services.GetSSEHub())
			stream.GET("/events", sseHandler.StreamEvaluationEvents)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.DELETE("/cases/:id", caseHandler.Delete)
			admin.PUT("/cases/:id/evaluation/admin", evaluationHandler.RecordAdminAssessment)
			admin.POST("/evaluations/recalculate", evaluationHandler.Recalculate)

			admin.POST("/evaluation-config/options", evaluationConfigHandler.Create)
			admin.PUT("/evaluation-config/options/:id", evaluationConfigHandler.Update)
			admin.DELETE("/evaluation-config/options/:id", evaluationConfigHandler.Delete)

			dashboardHandler := handlers.NewDashboardHandler(db)
			admin.GET("/dashboard/stats", dashboardHandler.GetStats)

			summaryHandler := handlers.NewSummaryHandler(svc.summaryService)
			admin.GET("/summaries", summaryHandler.List)
			admin.GET("/summaries/schedule", summaryHandler.Schedule)
			admin.POST("/summaries/generate", summaryHandler.Generate)

			userHandler := handlers.NewUserHandler(db)
			admin.GET("/users", userHandler.List)
			admin.POST("/users", userHandler.Create)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)

			systemLogHandler := handlers.NewSystemLogHandler(db)
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
			admin.GET("/system-logs/retention", systemLogHandler.GetRetentionDays)
			admin.PUT("/system-logs/retention", systemLogHandler.SetRetentionDays)
			admin.POST("/system-logs/cleanup", systemLogHandler.Cleanup)

			systemConfigHandler := handlers.NewSystemConfigHandler(db)
			admin.GET("/system-config/evaluation", systemConfigHandler.GetEvaluationSettings)
			admin.PUT("/system-config/evaluation", systemConfigHandler.UpdateEvaluationSettings)
			admin.GET("/system-config/holiday-countries", systemConfigHandler.GetHolidayCountries)
		}
	}

	return loginLimiter
}
