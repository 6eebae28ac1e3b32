package services

import (
	"time"

	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/scoring"
	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStatsRequest struct {
	StartDate    string `form:"start_date"`
	EndDate      string `form:"end_date"`
	HandlerLimit int    `form:"handler_limit"`
}

type DashboardStats struct {
	TotalCases       int64   `json:"total_cases"`
	ReviewedCases    int64   `json:"reviewed_cases"`
	PendingReview    int64   `json:"pending_review"`
	CompletedCases   int64   `json:"completed_cases"`
	Reporters        int64   `json:"reporters"`
	AvgUserTotal     float64 `json:"avg_user_total"`
	AvgAdminTotal    float64 `json:"avg_admin_total"`
	AvgFinalScore    float64 `json:"avg_final_score"`
	AvgReviewedFinal float64 `json:"avg_reviewed_final"`
}

type TypeStats struct {
	CaseType      string  `json:"case_type"`
	CaseCount     int64   `json:"case_count"`
	ReviewedCount int64   `json:"reviewed_count"`
	AvgUserTotal  float64 `json:"avg_user_total"`
	AvgFinalScore float64 `json:"avg_final_score"`
}

type HandlerStats struct {
	HandlerName   string  `json:"handler_name"`
	CaseCount     int64   `json:"case_count"`
	AvgUserTotal  float64 `json:"avg_user_total"`
	AvgFinalScore float64 `json:"avg_final_score"`
}

type DashboardResponse struct {
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	Stats        DashboardStats `json:"stats"`
	TypeStats    []TypeStats    `json:"type_stats"`
	HandlerStats []HandlerStats `json:"handler_stats"`
}

// GetStats aggregates the evaluations of cases created in [start, end].
// The range defaults to the last seven days.
func (s *DashboardService) GetStats(req *DashboardStatsRequest) (*DashboardResponse, error) {
	now := time.Now()
	startDate, ok := parseDate(req.StartDate)
	if !ok {
		startDate = startOfDay(now.AddDate(0, 0, -7))
	}
	endDate, ok := parseDate(req.EndDate)
	if !ok {
		endDate = startOfDay(now)
	}
	until := endDate.AddDate(0, 0, 1)

	handlerLimit := req.HandlerLimit
	if handlerLimit <= 0 || handlerLimit > 50 {
		handlerLimit = 10
	}

	base := func() *gorm.DB {
		return s.db.Model(&models.Case{}).
			Joins("JOIN case_evaluations ON case_evaluations.case_id = cases.id").
			Where("cases.created_at >= ? AND cases.created_at < ?", startDate, until)
	}

	var stats DashboardStats
	if err := base().Count(&stats.TotalCases).Error; err != nil {
		return nil, err
	}
	if err := base().Where(adminReviewedSQL).Count(&stats.ReviewedCases).Error; err != nil {
		return nil, err
	}
	stats.PendingReview = stats.TotalCases - stats.ReviewedCases

	if err := base().Distinct("cases.reporter_id").Count(&stats.Reporters).Error; err != nil {
		return nil, err
	}
	if err := base().Where("cases.status = ?", models.CaseStatusCompleted).Count(&stats.CompletedCases).Error; err != nil {
		return nil, err
	}

	var avgs struct {
		AvgUserTotal  float64
		AvgFinalScore float64
	}
	if err := base().
		Select("COALESCE(AVG(case_evaluations.user_total_score), 0) AS avg_user_total, COALESCE(AVG(case_evaluations.final_score), 0) AS avg_final_score").
		Scan(&avgs).Error; err != nil {
		return nil, err
	}
	stats.AvgUserTotal = scoring.Round2(avgs.AvgUserTotal)
	stats.AvgFinalScore = scoring.Round2(avgs.AvgFinalScore)

	var reviewed struct {
		AvgAdminTotal    float64
		AvgReviewedFinal float64
	}
	if err := base().Where(adminReviewedSQL).
		Select("COALESCE(AVG(case_evaluations.admin_total_score), 0) AS avg_admin_total, COALESCE(AVG(case_evaluations.final_score), 0) AS avg_reviewed_final").
		Scan(&reviewed).Error; err != nil {
		return nil, err
	}
	stats.AvgAdminTotal = scoring.Round2(reviewed.AvgAdminTotal)
	stats.AvgReviewedFinal = scoring.Round2(reviewed.AvgReviewedFinal)

	var typeStats []TypeStats
	if err := base().
		Select("cases.type AS case_type, COUNT(*) AS case_count, " +
			"SUM(CASE WHEN " + adminReviewedSQL + " THEN 1 ELSE 0 END) AS reviewed_count, " +
			"COALESCE(AVG(case_evaluations.user_total_score), 0) AS avg_user_total, " +
			"COALESCE(AVG(case_evaluations.final_score), 0) AS avg_final_score").
		Group("cases.type").
		Order("case_count DESC").
		Scan(&typeStats).Error; err != nil {
		return nil, err
	}
	for i := range typeStats {
		typeStats[i].AvgUserTotal = scoring.Round2(typeStats[i].AvgUserTotal)
		typeStats[i].AvgFinalScore = scoring.Round2(typeStats[i].AvgFinalScore)
	}

	var handlerStats []HandlerStats
	if err := base().
		Select("cases.handler_name AS handler_name, COUNT(*) AS case_count, " +
			"COALESCE(AVG(case_evaluations.user_total_score), 0) AS avg_user_total, " +
			"COALESCE(AVG(case_evaluations.final_score), 0) AS avg_final_score").
		Where("cases.handler_name <> ''").
		Group("cases.handler_name").
		Order("case_count DESC").
		Limit(handlerLimit).
		Scan(&handlerStats).Error; err != nil {
		return nil, err
	}
	for i := range handlerStats {
		handlerStats[i].AvgUserTotal = scoring.Round2(handlerStats[i].AvgUserTotal)
		handlerStats[i].AvgFinalScore = scoring.Round2(handlerStats[i].AvgFinalScore)
	}

	return &DashboardResponse{
		StartDate:    startDate.Format(dateLayout),
		EndDate:      endDate.Format(dateLayout),
		Stats:        stats,
		TypeStats:    typeStats,
		HandlerStats: handlerStats,
	}, nil
}
