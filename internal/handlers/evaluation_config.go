package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/scoring"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

type EvaluationConfigHandler struct {
	configService *services.EvaluationConfigService
}

func NewEvaluationConfigHandler(db *gorm.DB) *EvaluationConfigHandler {
	return &EvaluationConfigHandler{
		configService: services.NewEvaluationConfigService(db),
	}
}

// ListGrouped returns the options of every category
// GET /api/evaluation-config
func (h *EvaluationConfigHandler) ListGrouped(c *gin.Context) {
	groups, err := h.configService.ListGrouped()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, groups)
}

// Snapshot returns the config in the category -> options shape the engine uses
// GET /api/evaluation-config/snapshot
func (h *EvaluationConfigHandler) Snapshot(c *gin.Context) {
	cfg, err := h.configService.Snapshot()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cfg)
}

// GetByID GET /api/evaluation-config/options/:id
func (h *EvaluationConfigHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "option")
	if !ok {
		return
	}
	option, err := h.configService.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, option)
}

// Create POST /api/evaluation-config/options
func (h *EvaluationConfigHandler) Create(c *gin.Context) {
	var req services.CreateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	option, err := h.configService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, option)
}

// Update PUT /api/evaluation-config/options/:id
func (h *EvaluationConfigHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "option")
	if !ok {
		return
	}

	var req services.UpdateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	option, err := h.configService.Update(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, option)
}

// Delete DELETE /api/evaluation-config/options/:id
func (h *EvaluationConfigHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "option")
	if !ok {
		return
	}
	if err := h.configService.Delete(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "option deleted"})
}

// ResolveLabel maps a stored point value to its display label.
// A missing points parameter resolves to the not-yet-evaluated sentinel.
// GET /api/evaluation-config/resolve?category=DIFFICULTY&points=3
func (h *EvaluationConfigHandler) ResolveLabel(c *gin.Context) {
	category := scoring.Category(strings.ToUpper(c.Query("category")))
	if category == "" {
		response.BadRequest(c, "category is required")
		return
	}

	var points *int
	if raw := c.Query("points"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "points must be an integer")
			return
		}
		points = &v
	}

	resolved, err := h.configService.ResolveLabel(category, points)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resolved)
}
