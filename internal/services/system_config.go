package services

import (
	"errors"
	"strconv"
	"strings"

	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

const (
	ConfigLogRetentionDays          = "log_retention_days"
	ConfigEvaluationSummaryEnabled  = "evaluation_summary_enabled"
	ConfigEvaluationSummaryCaseType = "evaluation_summary_case_types"
	ConfigEvaluationSummaryCountry  = "evaluation_summary_holiday_country"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) GetInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(s.GetWithDefault(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return n
}

func (s *SystemConfigService) GetBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(s.GetWithDefault(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return b
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where("config_key = ?", key).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where("config_group = ?", group).Order("config_key").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

type EvaluationSettingsResponse struct {
	SummaryEnabled   bool     `json:"summary_enabled"`
	SummaryCaseTypes []string `json:"summary_case_types"`
	HolidayCountry   string   `json:"holiday_country"`
	LogRetentionDays int      `json:"log_retention_days"`
}

// GetEvaluationSettings returns the runtime settings of the summary job.
// An empty case type list means every case type.
func (s *SystemConfigService) GetEvaluationSettings() *EvaluationSettingsResponse {
	return &EvaluationSettingsResponse{
		SummaryEnabled:   s.GetBool(ConfigEvaluationSummaryEnabled, true),
		SummaryCaseTypes: splitAndTrim(s.GetWithDefault(ConfigEvaluationSummaryCaseType, ""), ","),
		HolidayCountry:   s.GetWithDefault(ConfigEvaluationSummaryCountry, "VN"),
		LogRetentionDays: s.GetInt(ConfigLogRetentionDays, 30),
	}
}

type UpdateEvaluationSettingsRequest struct {
	SummaryEnabled   *bool    `json:"summary_enabled"`
	SummaryCaseTypes []string `json:"summary_case_types"`
	HolidayCountry   *string  `json:"holiday_country"`
	LogRetentionDays *int     `json:"log_retention_days" binding:"omitempty,min=0,max=3650"`
}

func (s *SystemConfigService) UpdateEvaluationSettings(req *UpdateEvaluationSettingsRequest) error {
	if req.SummaryEnabled != nil {
		if err := s.Set(ConfigEvaluationSummaryEnabled, strconv.FormatBool(*req.SummaryEnabled)); err != nil {
			return err
		}
	}
	if req.SummaryCaseTypes != nil {
		for _, t := range req.SummaryCaseTypes {
			if !models.IsValidCaseType(t) {
				return response.NewBadRequest("invalid case type: " + t)
			}
		}
		if err := s.Set(ConfigEvaluationSummaryCaseType, strings.Join(req.SummaryCaseTypes, ",")); err != nil {
			return err
		}
	}
	if req.HolidayCountry != nil {
		country := strings.ToUpper(strings.TrimSpace(*req.HolidayCountry))
		if !NewHolidayService().IsSupported(country) {
			return response.NewBadRequest("unsupported holiday country: " + *req.HolidayCountry)
		}
		if err := s.Set(ConfigEvaluationSummaryCountry, country); err != nil {
			return err
		}
	}
	if req.LogRetentionDays != nil {
		if err := s.Set(ConfigLogRetentionDays, strconv.Itoa(*req.LogRetentionDays)); err != nil {
			return err
		}
	}
	return nil
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
