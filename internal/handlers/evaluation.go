package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/middleware"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/logger"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

type EvaluationHandler struct {
	evaluationService *services.EvaluationService
	recalcBatchSize   int
	taskQueue         func() services.TaskQueue
}

func NewEvaluationHandler(db *gorm.DB, recalcBatchSize int) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: services.NewEvaluationService(db),
		recalcBatchSize:   recalcBatchSize,
		taskQueue:         services.GetTaskQueue,
	}
}

// RecordAdminAssessment stores (or overwrites) the admin review of a case
// PUT /api/cases/:id/evaluation/admin
func (h *EvaluationHandler) RecordAdminAssessment(c *gin.Context) {
	id, ok := pathID(c, "case")
	if !ok {
		return
	}

	var req services.AdminAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	result, err := h.evaluationService.RecordAdminAssessment(id, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBreakdown returns subtotals, final score and resolved labels
// GET /api/cases/:id/evaluation
func (h *EvaluationHandler) GetBreakdown(c *gin.Context) {
	id, ok := pathID(c, "case")
	if !ok {
		return
	}

	result, err := h.evaluationService.GetBreakdown(id, viewerOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

type recalculateRequest struct {
	BatchSize int    `json:"batch_size" binding:"omitempty,min=1,max=5000"`
	Reason    string `json:"reason" binding:"max=500"`
}

// Recalculate enqueues a recomputation of every stored score
// POST /api/evaluations/recalculate
func (h *EvaluationHandler) Recalculate(c *gin.Context) {
	var req recalculateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, err)
			return
		}
	}
	if req.BatchSize == 0 {
		req.BatchSize = h.recalcBatchSize
	}

	queue := h.taskQueue()
	if queue == nil {
		response.ServerError(c, "task queue not initialized")
		return
	}

	task := &services.RecalculateTask{
		RequestedBy: middleware.GetUserID(c),
		BatchSize:   req.BatchSize,
		Reason:      req.Reason,
		RequestedAt: time.Now(),
	}
	if err := queue.Enqueue(task); err != nil {
		if errors.Is(err, services.ErrRecalculationQueued) {
			response.Accepted(c, gin.H{
				"batch_size":     task.BatchSize,
				"async":          queue.IsAsync(),
				"already_queued": true,
			})
			return
		}
		logger.Errorf("[Evaluation] Failed to enqueue recalculation: %v", err)
		response.ServerError(c, "failed to enqueue recalculation")
		return
	}

	response.Accepted(c, gin.H{
		"batch_size":     task.BatchSize,
		"async":          queue.IsAsync(),
		"already_queued": false,
	})
}
