package models

import "time"

// EvaluationSummary is the per-day, per-case-type aggregate of evaluation scores.
type EvaluationSummary struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SummaryDate        time.Time `gorm:"uniqueIndex:idx_summary_date_type;not null" json:"summary_date"`
	CaseType           string    `gorm:"uniqueIndex:idx_summary_date_type;size:30;not null" json:"case_type"`
	CaseCount          int       `json:"case_count"`
	ReviewedCount      int       `json:"reviewed_count"`
	PendingReviewCount int       `json:"pending_review_count"`
	AvgUserTotalScore  float64   `json:"avg_user_total_score"`
	AvgAdminTotalScore float64   `json:"avg_admin_total_score"`
	AvgFinalScore      float64   `json:"avg_final_score"`
	AvgReviewedFinal   float64   `json:"avg_reviewed_final_score"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (EvaluationSummary) TableName() string { return "evaluation_summaries" }
