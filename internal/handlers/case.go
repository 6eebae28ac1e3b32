package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/middleware"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

type CaseHandler struct {
	caseService *services.CaseService
}

func NewCaseHandler(db *gorm.DB) *CaseHandler {
	return &CaseHandler{
		caseService: services.NewCaseService(db),
	}
}

// Create opens a case together with the reporter's self-assessment
// POST /api/cases
func (h *CaseHandler) Create(c *gin.Context) {
	var req services.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	created, err := h.caseService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// List returns paginated cases visible to the caller
// GET /api/cases
func (h *CaseHandler) List(c *gin.Context) {
	var req services.CaseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	resp, err := h.caseService.List(&req, viewerOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns a case with its score breakdown
// GET /api/cases/:id
func (h *CaseHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "case")
	if !ok {
		return
	}

	detail, err := h.caseService.GetByID(id, viewerOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, detail)
}

// Update edits descriptive fields; assessment fields are not editable here
// PUT /api/cases/:id
func (h *CaseHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "case")
	if !ok {
		return
	}

	var req services.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	updated, err := h.caseService.Update(id, &req, viewerOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, updated)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves a case through its lifecycle
// PATCH /api/cases/:id/status
func (h *CaseHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "case")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	updated, err := h.caseService.UpdateStatus(id, req.Status, viewerOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, updated)
}

// Delete soft-deletes a case
// DELETE /api/cases/:id
func (h *CaseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "case")
	if !ok {
		return
	}

	if err := h.caseService.Delete(id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "case deleted"})
}
