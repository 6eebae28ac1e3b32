package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(db *gorm.DB) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
	}
}

// GetEvaluationSettings GET /api/system-config/evaluation
func (h *SystemConfigHandler) GetEvaluationSettings(c *gin.Context) {
	response.Success(c, h.configService.GetEvaluationSettings())
}

// UpdateEvaluationSettings PUT /api/system-config/evaluation
func (h *SystemConfigHandler) UpdateEvaluationSettings(c *gin.Context) {
	var req services.UpdateEvaluationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.configService.UpdateEvaluationSettings(&req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, h.configService.GetEvaluationSettings())
}

// GetHolidayCountries lists the calendars the summary job can skip holidays by
// GET /api/system-config/holiday-countries
func (h *SystemConfigHandler) GetHolidayCountries(c *gin.Context) {
	response.Success(c, services.NewHolidayService().SupportedCountries())
}
