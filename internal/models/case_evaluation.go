package models

import (
	"time"

	"github.com/huangang/caseeval/internal/scoring"
)

// CaseEvaluation stores the user and admin factors of a case together with
// the totals derived from them at write time.
type CaseEvaluation struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	CaseID uint `gorm:"uniqueIndex;not null" json:"case_id"`

	UserDifficultyLevel *int       `json:"user_difficulty_level"`
	UserEstimatedTime   *int       `json:"user_estimated_time"`
	UserImpactLevel     *int       `json:"user_impact_level"`
	UserUrgencyLevel    *int       `json:"user_urgency_level"`
	UserForm            string     `gorm:"size:100" json:"user_form"`
	UserFormScore       *int       `json:"user_form_score"`
	UserAssessmentDate  *time.Time `json:"user_assessment_date"`

	AdminDifficultyLevel *int       `json:"admin_difficulty_level"`
	AdminEstimatedTime   *int       `json:"admin_estimated_time"`
	AdminImpactLevel     *int       `json:"admin_impact_level"`
	AdminUrgencyLevel    *int       `json:"admin_urgency_level"`
	AdminAssessmentDate  *time.Time `gorm:"index" json:"admin_assessment_date"`
	AdminAssessmentNotes string     `gorm:"type:text" json:"admin_assessment_notes"`
	AdminReviewerID      *uint      `json:"admin_reviewer_id"`

	UserTotalScore  int     `json:"user_total_score"`
	AdminTotalScore int     `json:"admin_total_score"`
	FinalScore      float64 `gorm:"index" json:"final_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CaseEvaluation) TableName() string { return "case_evaluations" }

// Scoring converts the row into the engine's input shape.
func (e *CaseEvaluation) Scoring() *scoring.Evaluation {
	return &scoring.Evaluation{
		UserDifficultyLevel:  e.UserDifficultyLevel,
		UserEstimatedTime:    e.UserEstimatedTime,
		UserImpactLevel:      e.UserImpactLevel,
		UserUrgencyLevel:     e.UserUrgencyLevel,
		UserFormScore:        e.UserFormScore,
		UserAssessmentDate:   e.UserAssessmentDate,
		AdminDifficultyLevel: e.AdminDifficultyLevel,
		AdminEstimatedTime:   e.AdminEstimatedTime,
		AdminImpactLevel:     e.AdminImpactLevel,
		AdminUrgencyLevel:    e.AdminUrgencyLevel,
		AdminAssessmentDate:  e.AdminAssessmentDate,
		AdminAssessmentNotes: e.AdminAssessmentNotes,
	}
}

// ApplyScores refreshes the stored totals from the current factors.
// It reports whether any stored value changed.
func (e *CaseEvaluation) ApplyScores() bool {
	in := e.Scoring()
	user := scoring.UserSubtotal(in)
	admin := scoring.AdminSubtotal(in)
	final := scoring.FinalScore(in)

	changed := user != e.UserTotalScore || admin != e.AdminTotalScore || final != e.FinalScore
	e.UserTotalScore = user
	e.AdminTotalScore = admin
	e.FinalScore = final
	return changed
}
