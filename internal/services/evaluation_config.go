package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/scoring"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

// EvaluationConfigService owns the (label, points) options of every category.
// Snapshot reads the table on each call so edits apply to the next
// computation without a restart.
type EvaluationConfigService struct {
	db *gorm.DB
}

func NewEvaluationConfigService(db *gorm.DB) *EvaluationConfigService {
	return &EvaluationConfigService{db: db}
}

func (s *EvaluationConfigService) Snapshot() (scoring.Config, error) {
	var rows []models.EvaluationOption
	if err := s.db.Order("category, sort_order, points").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load evaluation options: %w", err)
	}

	cfg := make(scoring.Config, len(scoring.Categories))
	for _, row := range rows {
		category := scoring.Category(row.Category)
		cfg[category] = append(cfg[category], scoring.Option{
			ID:     row.ID,
			Label:  row.Label,
			Points: row.Points,
		})
	}
	return cfg, nil
}

// Options returns the ordered options of one category.
func (s *EvaluationConfigService) Options(category scoring.Category) ([]scoring.Option, error) {
	cfg, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return cfg[category], nil
}

type OptionGroup struct {
	Category  scoring.Category          `json:"category"`
	MaxPoints int                       `json:"max_points"`
	Options   []models.EvaluationOption `json:"options"`
}

// ListGrouped returns every category, in fixed order, with its options.
// Categories without options are still listed.
func (s *EvaluationConfigService) ListGrouped() ([]OptionGroup, error) {
	var rows []models.EvaluationOption
	if err := s.db.Order("sort_order, points").Find(&rows).Error; err != nil {
		return nil, err
	}

	byCategory := make(map[string][]models.EvaluationOption)
	for _, row := range rows {
		byCategory[row.Category] = append(byCategory[row.Category], row)
	}

	groups := make([]OptionGroup, 0, len(scoring.Categories))
	for _, category := range scoring.Categories {
		options := byCategory[string(category)]
		if options == nil {
			options = []models.EvaluationOption{}
		}
		groups = append(groups, OptionGroup{
			Category:  category,
			MaxPoints: category.MaxPoints(),
			Options:   options,
		})
	}
	return groups, nil
}

func (s *EvaluationConfigService) GetByID(id uint) (*models.EvaluationOption, error) {
	var option models.EvaluationOption
	if err := s.db.First(&option, id).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

type CreateOptionRequest struct {
	Category  string `json:"category" binding:"required"`
	Label     string `json:"label" binding:"required,max=200"`
	Points    int    `json:"points" binding:"required,min=1,max=5"`
	SortOrder int    `json:"sort_order"`
}

type UpdateOptionRequest struct {
	Label     *string `json:"label" binding:"omitempty,min=1,max=200"`
	Points    *int    `json:"points" binding:"omitempty,min=1,max=5"`
	SortOrder *int    `json:"sort_order"`
}

func (s *EvaluationConfigService) Create(req *CreateOptionRequest) (*models.EvaluationOption, error) {
	category := scoring.Category(strings.ToUpper(strings.TrimSpace(req.Category)))
	if !category.Valid() {
		return nil, response.NewBadRequest("invalid category: " + req.Category)
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, response.NewBadRequest("label is required")
	}
	if err := checkPoints(category, req.Points); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(category, req.Points, 0); err != nil {
		return nil, err
	}

	sortOrder := req.SortOrder
	if sortOrder == 0 {
		sortOrder = req.Points
	}
	option := &models.EvaluationOption{
		Category:  string(category),
		Label:     label,
		Points:    req.Points,
		SortOrder: sortOrder,
	}
	if err := s.db.Create(option).Error; err != nil {
		return nil, err
	}
	return option, nil
}

func (s *EvaluationConfigService) Update(id uint, req *UpdateOptionRequest) (*models.EvaluationOption, error) {
	option, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	category := scoring.Category(option.Category)

	updates := make(map[string]interface{})
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return nil, response.NewBadRequest("label is required")
		}
		updates["label"] = label
	}
	if req.Points != nil && *req.Points != option.Points {
		if err := checkPoints(category, *req.Points); err != nil {
			return nil, err
		}
		if err := s.ensureUnique(category, *req.Points, option.ID); err != nil {
			return nil, err
		}
		updates["points"] = *req.Points
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if len(updates) > 0 {
		if err := s.db.Model(option).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetByID(id)
}

// Delete removes an option. The last option of a category is kept so that
// every category stays selectable.
func (s *EvaluationConfigService) Delete(id uint) error {
	option, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.EvaluationOption{}).Where("category = ?", option.Category).Count(&count).Error; err != nil {
		return err
	}
	if count <= 1 {
		return response.NewConflict("cannot delete the last option of " + option.Category)
	}

	return s.db.Delete(&models.EvaluationOption{}, id).Error
}

type ResolvedLabel struct {
	Category scoring.Category `json:"category"`
	Points   *int             `json:"points"`
	Label    string           `json:"label"`
}

// ResolveLabel looks up the display label of a score against the live options.
func (s *EvaluationConfigService) ResolveLabel(category scoring.Category, points *int) (*ResolvedLabel, error) {
	if !category.Valid() {
		return nil, response.NewBadRequest("invalid category: " + string(category))
	}
	cfg, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return &ResolvedLabel{
		Category: category,
		Points:   points,
		Label:    scoring.ResolveLabel(cfg, category, points),
	}, nil
}

func (s *EvaluationConfigService) ensureUnique(category scoring.Category, points int, exceptID uint) error {
	var existing models.EvaluationOption
	err := s.db.Where("category = ? AND points = ? AND id <> ?", string(category), points, exceptID).First(&existing).Error
	if err == nil {
		return response.NewConflict(fmt.Sprintf("%s already has an option worth %d points", category, points))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func checkPoints(category scoring.Category, points int) error {
	if points < 1 || points > category.MaxPoints() {
		return response.NewBadRequest(fmt.Sprintf("points for %s must be between 1 and %d", category, category.MaxPoints()))
	}
	return nil
}
