package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the database, queue and SSE hub.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// CheckHealth GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "none"
	if taskQueue := services.GetTaskQueue(); taskQueue != nil {
		queueMode = "sync"
		if taskQueue.IsAsync() {
			queueMode = "async (Redis)"
		}
	}

	var pendingReview int64
	if dbStatus == "ok" {
		h.db.Model(&models.CaseEvaluation{}).
			Where("admin_difficulty_level IS NULL AND admin_estimated_time IS NULL AND admin_impact_level IS NULL AND admin_urgency_level IS NULL").
			Count(&pendingReview)
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "caseeval",
		"components": gin.H{
			"database":       dbStatus,
			"queue_mode":     queueMode,
			"sse_clients":    services.GetSSEHub().ClientCount(),
			"pending_review": pendingReview,
		},
	})
}
