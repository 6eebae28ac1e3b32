package services

import (
	"context"
	"fmt"
	"time"

	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/scoring"
	"github.com/huangang/caseeval/pkg/logger"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

const defaultRecalcBatchSize = 200

type EvaluationService struct {
	db        *gorm.DB
	configSvc *EvaluationConfigService
}

func NewEvaluationService(db *gorm.DB) *EvaluationService {
	return &EvaluationService{
		db:        db,
		configSvc: NewEvaluationConfigService(db),
	}
}

// AdminAssessmentRequest is the reviewer's assessment. All four factors are
// required; the admin side has no FORM factor.
type AdminAssessmentRequest struct {
	DifficultyLevel int    `json:"difficulty_level" binding:"required,min=1,max=5"`
	EstimatedTime   int    `json:"estimated_time" binding:"required,min=1,max=5"`
	ImpactLevel     int    `json:"impact_level" binding:"required,min=1,max=5"`
	UrgencyLevel    int    `json:"urgency_level" binding:"required,min=1,max=5"`
	Notes           string `json:"notes" binding:"max=2000"`
}

// EvaluationResult is a stored evaluation with its engine breakdown.
type EvaluationResult struct {
	CaseID     uint                   `json:"case_id"`
	CaseCode   string                 `json:"case_code"`
	Evaluation *models.CaseEvaluation `json:"evaluation"`
	Breakdown  scoring.Breakdown      `json:"breakdown"`
}

// RecordAdminAssessment writes the admin factors of a case, replacing any
// earlier admin values, and refreshes the stored totals. The previous values
// only survive in the system log.
func (s *EvaluationService) RecordAdminAssessment(caseID uint, req *AdminAssessmentRequest, reviewerID uint) (*EvaluationResult, error) {
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

	var c models.Case
	if err := s.db.Preload("Evaluation").First(&c, caseID).Error; err != nil {
		return nil, err
	}
	if c.Evaluation == nil {
		return nil, response.NewNotFound("case has no evaluation")
	}

	ev := c.Evaluation
	previous := map[string]interface{}{
		"admin_difficulty_level": ev.AdminDifficultyLevel,
		"admin_estimated_time":   ev.AdminEstimatedTime,
		"admin_impact_level":     ev.AdminImpactLevel,
		"admin_urgency_level":    ev.AdminUrgencyLevel,
		"admin_total_score":      ev.AdminTotalScore,
		"final_score":            ev.FinalScore,
	}
	overwrite := scoring.AdminReviewed(ev.Scoring())

	now := time.Now()
	ev.AdminDifficultyLevel = intPtr(req.DifficultyLevel)
	ev.AdminEstimatedTime = intPtr(req.EstimatedTime)
	ev.AdminImpactLevel = intPtr(req.ImpactLevel)
	ev.AdminUrgencyLevel = intPtr(req.UrgencyLevel)
	ev.AdminAssessmentNotes = req.Notes
	ev.AdminAssessmentDate = &now
	ev.AdminReviewerID = uintPtr(reviewerID)
	ev.ApplyScores()

	err := s.db.Model(ev).Select(
		"admin_difficulty_level", "admin_estimated_time", "admin_impact_level", "admin_urgency_level",
		"admin_assessment_notes", "admin_assessment_date", "admin_reviewer_id",
		"user_total_score", "admin_total_score", "final_score", "updated_at",
	).Updates(ev).Error
	if err != nil {
		return nil, fmt.Errorf("save admin assessment: %w", err)
	}

	action := "admin_assess"
	if overwrite {
		action = "admin_reassess"
	}
	logger.Info().
		Uint("case_id", c.ID).
		Uint("reviewer_id", reviewerID).
		Int("admin_subtotal", ev.AdminTotalScore).
		Float64("final_score", ev.FinalScore).
		Bool("overwrite", overwrite).
		Msg("[Evaluation] admin assessment recorded")
	LogInfo(LogEntry{
		Module:  "evaluation",
		Action:  action,
		Message: fmt.Sprintf("Case %s admin subtotal %d, final score %.2f", c.Code, ev.AdminTotalScore, ev.FinalScore),
		CaseID:  uintPtr(c.ID),
		UserID:  uintPtr(reviewerID),
		Extra:   map[string]interface{}{"previous": previous},
	})
	publishEvaluationEvent(EventAdminAssessed, &c, ev)

	return s.result(&c, ev)
}

func (s *EvaluationService) GetBreakdown(caseID uint, viewer Viewer) (*EvaluationResult, error) {
	var c models.Case
	if err := s.db.Preload("Evaluation").First(&c, caseID).Error; err != nil {
		return nil, err
	}
	if !viewer.IsAdmin && c.ReporterID != viewer.UserID {
		return nil, response.NewNotFound("case not found")
	}
	if c.Evaluation == nil {
		return nil, response.NewNotFound("case has no evaluation")
	}
	return s.result(&c, c.Evaluation)
}

type RecalculateResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// Recalculate recomputes the stored totals of every evaluation in batches and
// rewrites the rows whose totals drifted from the engine.
func (s *EvaluationService) Recalculate(batchSize int) (*RecalculateResult, error) {
	if batchSize <= 0 {
		batchSize = defaultRecalcBatchSize
	}

	result := &RecalculateResult{}
	var rows []models.CaseEvaluation
	err := s.db.Order("id").FindInBatches(&rows, batchSize, func(tx *gorm.DB, batch int) error {
		for i := range rows {
			result.Scanned++
			ev := &rows[i]
			if !ev.ApplyScores() {
				continue
			}
			err := s.db.Model(ev).UpdateColumns(map[string]interface{}{
				"user_total_score":  ev.UserTotalScore,
				"admin_total_score": ev.AdminTotalScore,
				"final_score":       ev.FinalScore,
			}).Error
			if err != nil {
				return fmt.Errorf("update evaluation %d: %w", ev.ID, err)
			}
			result.Updated++
		}
		return nil
	}).Error
	if err != nil {
		return result, err
	}

	logger.Infof("[Evaluation] Recalculated %d evaluations, %d updated", result.Scanned, result.Updated)
	if result.Updated > 0 {
		GetSSEHub().Publish(EvaluationEvent{Type: EventScoresRecomputed})
	}
	return result, nil
}

// ProcessRecalculateTask is the queue processor for TaskTypeRecalculate.
func (s *EvaluationService) ProcessRecalculateTask(ctx context.Context, task *RecalculateTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.Recalculate(task.BatchSize)
	if err != nil {
		LogError(LogEntry{
			Module:  "evaluation",
			Action:  "recalculate",
			Message: fmt.Sprintf("Recalculation failed after %d rows: %v", result.Scanned, err),
			UserID:  uintPtr(task.RequestedBy),
		})
		return err
	}
	LogInfo(LogEntry{
		Module:  "evaluation",
		Action:  "recalculate",
		Message: fmt.Sprintf("Recalculated %d evaluations, %d updated", result.Scanned, result.Updated),
		UserID:  uintPtr(task.RequestedBy),
		Extra:   map[string]interface{}{"reason": task.Reason},
	})
	return nil
}

func (s *EvaluationService) result(c *models.Case, ev *models.CaseEvaluation) (*EvaluationResult, error) {
	cfg, err := s.configSvc.Snapshot()
	if err != nil {
		return nil, err
	}
	return &EvaluationResult{
		CaseID:     c.ID,
		CaseCode:   c.Code,
		Evaluation: ev,
		Breakdown:  scoring.Explain(cfg, ev.Scoring()),
	}, nil
}

func publishEvaluationEvent(eventType string, c *models.Case, ev *models.CaseEvaluation) {
	in := ev.Scoring()
	GetSSEHub().Publish(EvaluationEvent{
		Type:          eventType,
		CaseID:        c.ID,
		CaseCode:      c.Code,
		UserSubtotal:  ev.UserTotalScore,
		AdminSubtotal: ev.AdminTotalScore,
		FinalScore:    ev.FinalScore,
		AdminReviewed: scoring.AdminReviewed(in),
	})
}
