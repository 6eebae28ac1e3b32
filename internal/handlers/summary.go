package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/response"
)

type SummaryHandler struct {
	summaryService *services.SummaryService
}

func NewSummaryHandler(summaryService *services.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// List GET /api/summaries
func (h *SummaryHandler) List(c *gin.Context) {
	var req services.SummaryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	resp, err := h.summaryService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

type generateSummaryRequest struct {
	Date string `json:"date"`
}

// Generate builds the summaries of a day (today when no date is given)
// POST /api/summaries/generate
func (h *SummaryHandler) Generate(c *gin.Context) {
	var req generateSummaryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, err)
			return
		}
	}

	day := time.Now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			response.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summaries, err := h.summaryService.Generate(day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"date":      day.Format("2006-01-02"),
		"summaries": summaries,
	})
}

// Schedule reports the next scheduled summary run
// GET /api/summaries/schedule
func (h *SummaryHandler) Schedule(c *gin.Context) {
	next := h.summaryService.NextRun()
	resp := gin.H{"scheduled": !next.IsZero()}
	if !next.IsZero() {
		resp["next_run"] = next
	}
	response.Success(c, resp)
}
