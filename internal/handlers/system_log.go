package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

type SystemLogHandler struct {
	systemLogService *services.SystemLogService
}

func NewSystemLogHandler(db *gorm.DB) *SystemLogHandler {
	return &SystemLogHandler{
		systemLogService: services.NewSystemLogService(db),
	}
}

func (h *SystemLogHandler) List(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	resp, err := h.systemLogService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

func (h *SystemLogHandler) GetModules(c *gin.Context) {
	modules, err := h.systemLogService.GetModules()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"modules": modules})
}

func (h *SystemLogHandler) GetRetentionDays(c *gin.Context) {
	response.Success(c, gin.H{"days": h.systemLogService.GetRetentionDays()})
}

type retentionRequest struct {
	Days int `json:"days" binding:"min=0,max=3650"`
}

func (h *SystemLogHandler) SetRetentionDays(c *gin.Context) {
	var req retentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.systemLogService.SetRetentionDays(req.Days); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"days": req.Days})
}

// Cleanup removes logs older than the retention window right away.
func (h *SystemLogHandler) Cleanup(c *gin.Context) {
	deleted, err := h.systemLogService.CleanupOldLogs(h.systemLogService.GetRetentionDays())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}
