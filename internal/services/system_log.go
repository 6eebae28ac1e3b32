package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	globalDB   *gorm.DB
	globalDBMu sync.RWMutex
)

func InitSystemLogger(db *gorm.DB) {
	globalDBMu.Lock()
	defer globalDBMu.Unlock()
	globalDB = db
}

// LogEntry is one system log row to be written.
type LogEntry struct {
	Module    string
	Action    string
	Message   string
	CaseID    *uint
	UserID    *uint
	IP        string
	UserAgent string
	Extra     interface{}
}

func LogInfo(entry LogEntry) {
	writeLog("info", entry)
}

func LogWarning(entry LogEntry) {
	writeLog("warning", entry)
}

func LogError(entry LogEntry) {
	writeLog("error", entry)
}

func writeLog(level string, entry LogEntry) {
	globalDBMu.RLock()
	db := globalDB
	globalDBMu.RUnlock()
	if db == nil {
		return
	}

	var extra datatypes.JSON
	if entry.Extra != nil {
		if b, err := json.Marshal(entry.Extra); err == nil {
			extra = datatypes.JSON(b)
		}
	}

	row := &models.SystemLog{
		Level:     level,
		Module:    entry.Module,
		Action:    entry.Action,
		Message:   entry.Message,
		CaseID:    entry.CaseID,
		UserID:    entry.UserID,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
		Extra:     extra,
		CreatedAt: time.Now(),
	}
	if err := db.Create(row).Error; err != nil {
		logger.Warn().Err(err).Str("module", entry.Module).Msg("[SystemLog] write failed")
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	CaseID    uint   `form:"case_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.CaseID > 0 {
		query = query.Where("case_id = ?", req.CaseID)
	}
	if start, ok := parseDate(req.StartDate); ok {
		query = query.Where("created_at >= ?", start)
	}
	if end, ok := parseDate(req.EndDate); ok {
		query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

func (s *SystemLogService) GetModules() ([]string, error) {
	var modules []string
	if err := s.db.Model(&models.SystemLog{}).Distinct("module").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CleanupOldLogs deletes logs older than retentionDays and returns the count.
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (s *SystemLogService) GetRetentionDays() int {
	return NewSystemConfigService(s.db).GetInt(ConfigLogRetentionDays, 30)
}

func (s *SystemLogService) SetRetentionDays(days int) error {
	return NewSystemConfigService(s.db).Set(ConfigLogRetentionDays, itoa(days))
}

var (
	logCleanupStop chan struct{}
	logCleanupMu   sync.Mutex
)

// StartLogCleanupScheduler runs the retention cleanup now and then daily.
func StartLogCleanupScheduler(db *gorm.DB) {
	logCleanupMu.Lock()
	defer logCleanupMu.Unlock()
	if logCleanupStop != nil {
		return
	}
	stop := make(chan struct{})
	logCleanupStop = stop

	go func() {
		service := NewSystemLogService(db)
		runCleanup(service)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runCleanup(service)
			case <-stop:
				return
			}
		}
	}()
}

func StopLogCleanupScheduler() {
	logCleanupMu.Lock()
	defer logCleanupMu.Unlock()
	if logCleanupStop != nil {
		close(logCleanupStop)
		logCleanupStop = nil
	}
}

func runCleanup(service *SystemLogService) {
	retentionDays := service.GetRetentionDays()
	if retentionDays <= 0 {
		logger.Info().Msg("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return
	}

	deleted, err := service.CleanupOldLogs(retentionDays)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to cleanup old logs: %v", err)
		return
	}

	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, retentionDays)
	}
}
