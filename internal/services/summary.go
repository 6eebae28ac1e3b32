package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/scoring"
	"github.com/huangang/caseeval/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	summaryLockName = "evaluation_summary"
	// summaryCatchUpDays bounds how far back one scheduled run fills in.
	summaryCatchUpDays = 31
)

// SummaryService aggregates each day's evaluations per case type and stores
// one EvaluationSummary row per (day, type). The cron run on a working day
// fills in every completed day since the last stored summary.
type SummaryService struct {
	db            *gorm.DB
	configService *SystemConfigService
	holidays      *HolidayService
	cronExpr      string
	cronScheduler *cron.Cron
	entryID       cron.EntryID
	now           func() time.Time
}

func NewSummaryService(db *gorm.DB, cronExpr string) *SummaryService {
	return &SummaryService{
		db:            db,
		configService: NewSystemConfigService(db),
		holidays:      NewHolidayService(),
		cronExpr:      cronExpr,
		now:           time.Now,
	}
}

func (s *SummaryService) StartScheduler() error {
	s.cronScheduler = cron.New()

	entryID, err := s.cronScheduler.AddFunc(s.cronExpr, s.runScheduled)
	if err != nil {
		return fmt.Errorf("invalid summary cron %q: %w", s.cronExpr, err)
	}
	s.entryID = entryID

	s.cronScheduler.Start()
	logger.Infof("[Summary] Scheduler started (cron: %s)", s.cronExpr)
	return nil
}

func (s *SummaryService) StopScheduler() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
	}
}

// NextRun reports the next scheduled run, zero when the scheduler is stopped.
func (s *SummaryService) NextRun() time.Time {
	if s.cronScheduler == nil {
		return time.Time{}
	}
	return s.cronScheduler.Entry(s.entryID).Next
}

func (s *SummaryService) runScheduled() {
	if !s.configService.GetBool(ConfigEvaluationSummaryEnabled, true) {
		logger.Info().Msg("[Summary] Daily summary disabled, skipping")
		return
	}

	day := startOfDay(s.now())
	country := s.configService.GetWithDefault(ConfigEvaluationSummaryCountry, "VN")
	if !s.holidays.IsWorkday(day, country) {
		logger.Infof("[Summary] %s is not a working day in %s, skipping", day.Format(dateLayout), country)
		return
	}

	acquired, err := s.acquireLock(day)
	if err != nil {
		logger.Errorf("[Summary] Failed to acquire lock: %v", err)
		return
	}
	if !acquired {
		logger.Infof("[Summary] Summary for %s already claimed by another instance", day.Format(dateLayout))
		return
	}

	days, err := s.pendingDays(day)
	if err != nil {
		logger.Errorf("[Summary] Failed to find days to summarise: %v", err)
		return
	}
	for _, d := range days {
		if _, err := s.Generate(d); err != nil {
			logger.Errorf("[Summary] Failed to generate summary for %s: %v", d.Format(dateLayout), err)
			return
		}
	}
}

// pendingDays lists the completed days before today that still need a
// summary. The latest stored day is regenerated since it may have been
// summarised before it ended. Days the scheduler skipped are included.
func (s *SummaryService) pendingDays(today time.Time) ([]time.Time, error) {
	last := today.AddDate(0, 0, -1)
	first := today.AddDate(0, 0, -summaryCatchUpDays)

	var latest models.EvaluationSummary
	err := s.db.Order("summary_date DESC").First(&latest).Error
	switch {
	case err == nil:
		first = laterOf(first, startOfDay(latest.SummaryDate.In(today.Location())))
	case errors.Is(err, gorm.ErrRecordNotFound):
		var earliest models.Case
		err := s.db.Order("created_at").First(&earliest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load earliest case: %w", err)
		}
		first = laterOf(first, startOfDay(earliest.CreatedAt.In(today.Location())))
	default:
		return nil, fmt.Errorf("load latest summary: %w", err)
	}

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// acquireLock claims the run for day. Expired claims are cleared first.
func (s *SummaryService) acquireLock(day time.Time) (bool, error) {
	now := s.now()
	if err := s.db.Where("lock_name = ? AND expires_at < ?", summaryLockName, now).Delete(&models.SchedulerLock{}).Error; err != nil {
		return false, err
	}

	host, _ := os.Hostname()
	lock := &models.SchedulerLock{
		LockName:  summaryLockName,
		LockKey:   day.Format(dateLayout),
		LockedBy:  fmt.Sprintf("%s:%d", host, os.Getpid()),
		LockedAt:  now,
		ExpiresAt: now.Add(6 * time.Hour),
	}
	if err := s.db.Create(lock).Error; err != nil {
		var existing models.SchedulerLock
		lookup := s.db.Where("lock_name = ? AND lock_key = ?", lock.LockName, lock.LockKey).First(&existing).Error
		if lookup == nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Generate computes and stores the summaries of the cases created on day.
// Running it again for the same day overwrites the earlier rows.
func (s *SummaryService) Generate(day time.Time) ([]models.EvaluationSummary, error) {
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1)

	caseTypes := s.configService.GetEvaluationSettings().SummaryCaseTypes
	if len(caseTypes) == 0 {
		caseTypes = models.CaseTypes
	}

	var cases []models.Case
	err := s.db.Preload("Evaluation").
		Where("created_at >= ? AND created_at < ? AND type IN ?", start, end, caseTypes).
		Find(&cases).Error
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}

	byType := make(map[string][]*scoring.Evaluation)
	for _, c := range cases {
		if c.Evaluation == nil {
			continue
		}
		byType[c.Type] = append(byType[c.Type], c.Evaluation.Scoring())
	}

	summaries := make([]models.EvaluationSummary, 0, len(caseTypes))
	for _, caseType := range caseTypes {
		summary := aggregate(byType[caseType])
		summary.SummaryDate = start
		summary.CaseType = caseType
		if err := s.upsert(&summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	logger.Infof("[Summary] Generated %d summaries for %s from %d cases", len(summaries), start.Format(dateLayout), len(cases))
	LogInfo(LogEntry{
		Module:  "summary",
		Action:  "generate",
		Message: fmt.Sprintf("Evaluation summary for %s: %d cases", start.Format(dateLayout), len(cases)),
	})
	return summaries, nil
}

func (s *SummaryService) upsert(summary *models.EvaluationSummary) error {
	var existing models.EvaluationSummary
	err := s.db.Where("summary_date = ? AND case_type = ?", summary.SummaryDate, summary.CaseType).First(&existing).Error
	if err == nil {
		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
		return s.db.Save(summary).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(summary).Error
}

func aggregate(evaluations []*scoring.Evaluation) models.EvaluationSummary {
	var summary models.EvaluationSummary
	var userSum, adminSum, finalSum, reviewedFinalSum float64

	for _, e := range evaluations {
		summary.CaseCount++
		userSum += float64(scoring.UserSubtotal(e))
		final := scoring.FinalScore(e)
		finalSum += final
		if scoring.AdminReviewed(e) {
			summary.ReviewedCount++
			adminSum += float64(scoring.AdminSubtotal(e))
			reviewedFinalSum += final
		} else {
			summary.PendingReviewCount++
		}
	}

	if summary.CaseCount > 0 {
		summary.AvgUserTotalScore = scoring.Round2(userSum / float64(summary.CaseCount))
		summary.AvgFinalScore = scoring.Round2(finalSum / float64(summary.CaseCount))
	}
	if summary.ReviewedCount > 0 {
		summary.AvgAdminTotalScore = scoring.Round2(adminSum / float64(summary.ReviewedCount))
		summary.AvgReviewedFinal = scoring.Round2(reviewedFinalSum / float64(summary.ReviewedCount))
	}
	return summary
}

type SummaryListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	CaseType  string `form:"case_type"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type SummaryListResponse struct {
	Total    int64                      `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
	Items    []models.EvaluationSummary `json:"items"`
}

func (s *SummaryService) List(req *SummaryListRequest) (*SummaryListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var items []models.EvaluationSummary
	var total int64

	query := s.db.Model(&models.EvaluationSummary{})
	if req.CaseType != "" {
		query = query.Where("case_type = ?", req.CaseType)
	}
	if start, ok := parseDate(req.StartDate); ok {
		query = query.Where("summary_date >= ?", start)
	}
	if end, ok := parseDate(req.EndDate); ok {
		query = query.Where("summary_date < ?", end.AddDate(0, 0, 1))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("summary_date DESC, case_type").Find(&items).Error; err != nil {
		return nil, err
	}

	return &SummaryListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
