package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/scoring"
	"github.com/huangang/caseeval/pkg/logger"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

// adminReviewedSQL matches evaluations carrying at least one admin factor.
const adminReviewedSQL = "(case_evaluations.admin_difficulty_level IS NOT NULL OR case_evaluations.admin_estimated_time IS NOT NULL OR " +
	"case_evaluations.admin_impact_level IS NOT NULL OR case_evaluations.admin_urgency_level IS NOT NULL)"

// Viewer identifies the caller of a case operation. Non-admin viewers only
// see the cases they reported.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

type CaseService struct {
	db        *gorm.DB
	configSvc *EvaluationConfigService
}

func NewCaseService(db *gorm.DB) *CaseService {
	return &CaseService{
		db:        db,
		configSvc: NewEvaluationConfigService(db),
	}
}

// CreateCaseRequest carries the case fields and the reporter's self-assessment.
// All five user factors are required here even though the engine treats
// missing factors as zero.
type CreateCaseRequest struct {
	Type        string     `json:"type" binding:"required"`
	Title       string     `json:"title" binding:"required,max=300"`
	Description string     `json:"description"`
	Customer    string     `json:"customer" binding:"max=200"`
	Location    string     `json:"location" binding:"max=300"`
	HandlerName string     `json:"handler_name" binding:"max=200"`
	StartedAt   *time.Time `json:"started_at"`

	DifficultyLevel int    `json:"difficulty_level" binding:"required,min=1,max=5"`
	EstimatedTime   int    `json:"estimated_time" binding:"required,min=1,max=5"`
	ImpactLevel     int    `json:"impact_level" binding:"required,min=1,max=5"`
	UrgencyLevel    int    `json:"urgency_level" binding:"required,min=1,max=5"`
	FormLabel       string `json:"form_label" binding:"required"`
}

type UpdateCaseRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=300"`
	Description *string `json:"description"`
	Customer    *string `json:"customer" binding:"omitempty,max=200"`
	Location    *string `json:"location" binding:"omitempty,max=300"`
	HandlerName *string `json:"handler_name" binding:"omitempty,max=200"`
}

type CaseListRequest struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Type        string `form:"type"`
	Status      string `form:"status"`
	Reviewed    *bool  `form:"reviewed"`
	Keyword     string `form:"keyword"`
	HandlerName string `form:"handler_name"`
	ReporterID  uint   `form:"reporter_id"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
}

type CaseListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.Case `json:"items"`
}

// CaseDetail is a case with its evaluation explained by the engine.
type CaseDetail struct {
	models.Case
	Breakdown *scoring.Breakdown `json:"breakdown"`
}

func (s *CaseService) Create(req *CreateCaseRequest, reporterID uint) (*models.Case, error) {
	if !models.IsValidCaseType(req.Type) {
		return nil, response.NewBadRequest("invalid case type: " + req.Type)
	}
	for name, v := range map[string]int{
		"difficulty_level": req.DifficultyLevel,
		"estimated_time":   req.EstimatedTime,
		"impact_level":     req.ImpactLevel,
		"urgency_level":    req.UrgencyLevel,
	} {
		if v < 1 || v > 5 {
			return nil, response.NewBadRequest(name + " must be between 1 and 5")
		}
	}
	formLabel := strings.TrimSpace(req.FormLabel)
	if formLabel == "" {
		return nil, response.NewBadRequest("form_label is required")
	}

	formOptions, err := s.configSvc.Options(scoring.CategoryForm)
	if err != nil {
		return nil, err
	}
	formScore := scoring.DeriveFormScore(formLabel, formOptions)

	now := time.Now()
	c := &models.Case{
		Code:        newCaseCode(),
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Customer:    req.Customer,
		Location:    req.Location,
		Status:      models.CaseStatusOpen,
		ReporterID:  reporterID,
		HandlerName: req.HandlerName,
		StartedAt:   req.StartedAt,
	}
	evaluation := &models.CaseEvaluation{
		UserDifficultyLevel: intPtr(req.DifficultyLevel),
		UserEstimatedTime:   intPtr(req.EstimatedTime),
		UserImpactLevel:     intPtr(req.ImpactLevel),
		UserUrgencyLevel:    intPtr(req.UrgencyLevel),
		UserForm:            formLabel,
		UserFormScore:       intPtr(formScore),
		UserAssessmentDate:  &now,
	}
	evaluation.ApplyScores()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("create case: %w", err)
		}
		evaluation.CaseID = c.ID
		if err := tx.Create(evaluation).Error; err != nil {
			return fmt.Errorf("create evaluation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.Evaluation = evaluation

	logger.Info().
		Uint("case_id", c.ID).
		Str("code", c.Code).
		Str("type", c.Type).
		Int("user_subtotal", evaluation.UserTotalScore).
		Msg("[Case] created")
	LogInfo(LogEntry{
		Module:  "case",
		Action:  "create",
		Message: fmt.Sprintf("Case %s created with user subtotal %d", c.Code, evaluation.UserTotalScore),
		CaseID:  uintPtr(c.ID),
		UserID:  uintPtr(reporterID),
	})
	publishEvaluationEvent(EventCaseCreated, c, evaluation)

	return c, nil
}

func (s *CaseService) List(req *CaseListRequest, viewer Viewer) (*CaseListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var cases []models.Case
	var total int64

	query := s.db.Model(&models.Case{}).
		Joins("LEFT JOIN case_evaluations ON case_evaluations.case_id = cases.id")

	if !viewer.IsAdmin {
		query = query.Where("cases.reporter_id = ?", viewer.UserID)
	} else if req.ReporterID > 0 {
		query = query.Where("cases.reporter_id = ?", req.ReporterID)
	}
	if req.Type != "" {
		query = query.Where("cases.type = ?", req.Type)
	}
	if req.Status != "" {
		query = query.Where("cases.status = ?", req.Status)
	}
	if req.Reviewed != nil {
		if *req.Reviewed {
			query = query.Where(adminReviewedSQL)
		} else {
			query = query.Where("NOT " + adminReviewedSQL)
		}
	}
	if req.Keyword != "" {
		like := "%" + req.Keyword + "%"
		query = query.Where("cases.code LIKE ? OR cases.title LIKE ? OR cases.customer LIKE ?", like, like, like)
	}
	if req.HandlerName != "" {
		query = query.Where("cases.handler_name LIKE ?", "%"+req.HandlerName+"%")
	}
	if start, ok := parseDate(req.StartDate); ok {
		query = query.Where("cases.created_at >= ?", start)
	}
	if end, ok := parseDate(req.EndDate); ok {
		query = query.Where("cases.created_at < ?", end.AddDate(0, 0, 1))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := query.Preload("Evaluation").Preload("Reporter").
		Offset(offset).Limit(req.PageSize).
		Order("cases.created_at DESC, cases.id DESC").
		Find(&cases).Error
	if err != nil {
		return nil, err
	}

	return &CaseListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    cases,
	}, nil
}

func (s *CaseService) GetByID(id uint, viewer Viewer) (*CaseDetail, error) {
	c, err := s.load(id, viewer)
	if err != nil {
		return nil, err
	}

	detail := &CaseDetail{Case: *c}
	if c.Evaluation != nil {
		cfg, err := s.configSvc.Snapshot()
		if err != nil {
			return nil, err
		}
		b := scoring.Explain(cfg, c.Evaluation.Scoring())
		detail.Breakdown = &b
	}
	return detail, nil
}

// Update edits descriptive fields. The reporter's assessment cannot change
// after creation.
func (s *CaseService) Update(id uint, req *UpdateCaseRequest, viewer Viewer) (*models.Case, error) {
	c, err := s.load(id, viewer)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Customer != nil {
		updates["customer"] = *req.Customer
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.HandlerName != nil {
		updates["handler_name"] = *req.HandlerName
	}
	if len(updates) > 0 {
		if err := s.db.Model(c).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.load(id, viewer)
}

func (s *CaseService) UpdateStatus(id uint, status string, viewer Viewer) (*models.Case, error) {
	if !models.IsValidCaseStatus(status) {
		return nil, response.NewBadRequest("invalid case status: " + status)
	}
	c, err := s.load(id, viewer)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}

	now := time.Now()
	updates := map[string]interface{}{"status": status}
	switch status {
	case models.CaseStatusInProgress:
		if c.StartedAt == nil {
			updates["started_at"] = now
		}
	case models.CaseStatusCompleted:
		updates["completed_at"] = now
		if c.StartedAt == nil {
			updates["started_at"] = now
		}
	case models.CaseStatusOpen:
		updates["completed_at"] = nil
	}
	if err := s.db.Model(c).Updates(updates).Error; err != nil {
		return nil, err
	}

	LogInfo(LogEntry{
		Module:  "case",
		Action:  "update_status",
		Message: fmt.Sprintf("Case %s status %s -> %s", c.Code, c.Status, status),
		CaseID:  uintPtr(c.ID),
		UserID:  uintPtr(viewer.UserID),
	})
	return s.load(id, viewer)
}

// Delete soft-deletes the case. Its evaluation row is kept for reporting.
func (s *CaseService) Delete(id uint) error {
	result := s.db.Delete(&models.Case{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("case not found")
	}
	return nil
}

func (s *CaseService) load(id uint, viewer Viewer) (*models.Case, error) {
	var c models.Case
	if err := s.db.Preload("Evaluation").Preload("Reporter").First(&c, id).Error; err != nil {
		return nil, err
	}
	if !viewer.IsAdmin && c.ReporterID != viewer.UserID {
		return nil, response.NewNotFound("case not found")
	}
	return &c, nil
}

func newCaseCode() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "CASE-" + strings.ToUpper(id[:8])
}
