package models

import (
	"time"

	"github.com/huangang/caseeval/internal/scoring"
)

// EvaluationOption is one (label, points) choice of an evaluation category.
type EvaluationOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Category  string    `gorm:"size:20;index;not null;uniqueIndex:idx_category_points" json:"category"`
	Label     string    `gorm:"size:200;not null" json:"label"`
	Points    int       `gorm:"not null;uniqueIndex:idx_category_points" json:"points"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EvaluationOption) TableName() string { return "evaluation_options" }

// DefaultEvaluationOptions is the option set seeded on first start.
func DefaultEvaluationOptions() []EvaluationOption {
	labels := map[scoring.Category][]string{
		scoring.CategoryDifficulty: {"Rất dễ", "Dễ", "Trung bình", "Khó", "Rất khó"},
		scoring.CategoryTime:       {"Dưới 30 phút", "30 phút - 1 giờ", "1 - 2 giờ", "2 - 4 giờ", "Trên 4 giờ"},
		scoring.CategoryImpact:     {"Rất thấp", "Thấp", "Trung bình", "Cao", "Rất cao"},
		scoring.CategoryUrgency:    {"Không gấp", "Bình thường", "Gấp", "Rất gấp", "Khẩn cấp"},
		scoring.CategoryForm:       {"Offsite/Remote", "Onsite"},
	}

	var options []EvaluationOption
	for _, category := range scoring.Categories {
		for i, label := range labels[category] {
			options = append(options, EvaluationOption{
				Category:  string(category),
				Label:     label,
				Points:    i + 1,
				SortOrder: i + 1,
			})
		}
	}
	return options
}
