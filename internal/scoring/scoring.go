// Package scoring computes the weighted quality-of-service score of a case
// evaluation and resolves display labels for stored factor values.
//
// Every function here is pure: no I/O, no package state, and no knowledge of
// the case type the evaluation belongs to. Absent factors count as zero and
// out-of-range values are summed as stored.
package scoring

import (
	"math"
	"time"
)

// Category identifies one evaluation factor.
type Category string

const (
	CategoryDifficulty Category = "DIFFICULTY"
	CategoryTime       Category = "TIME"
	CategoryImpact     Category = "IMPACT"
	CategoryUrgency    Category = "URGENCY"
	CategoryForm       Category = "FORM"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryDifficulty,
	CategoryTime,
	CategoryImpact,
	CategoryUrgency,
	CategoryForm,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryDifficulty, CategoryTime, CategoryImpact, CategoryUrgency, CategoryForm:
		return true
	}
	return false
}

// MaxPoints is the upper bound of the valid point range for the category.
func (c Category) MaxPoints() int {
	if c == CategoryForm {
		return 2
	}
	return 5
}

const (
	UserWeight  = 0.4
	AdminWeight = 0.6

	// FormOnsitePoints is the FORM value used when a selected label cannot be matched.
	FormOnsitePoints = 2

	LabelNotEvaluated = "Chưa đánh giá"
	LabelUnknown      = "Không xác định"
)

// Option is one configured (label, points) pair of a category.
type Option struct {
	ID     uint   `json:"id"`
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// Config maps each category to its ordered option list.
type Config map[Category][]Option

// Evaluation carries the user and admin factors of one case.
// A nil factor has not been rated.
type Evaluation struct {
	UserDifficultyLevel *int       `json:"userDifficultyLevel"`
	UserEstimatedTime   *int       `json:"userEstimatedTime"`
	UserImpactLevel     *int       `json:"userImpactLevel"`
	UserUrgencyLevel    *int       `json:"userUrgencyLevel"`
	UserFormScore       *int       `json:"userFormScore"`
	UserAssessmentDate  *time.Time `json:"userAssessmentDate,omitempty"`

	AdminDifficultyLevel *int       `json:"adminDifficultyLevel"`
	AdminEstimatedTime   *int       `json:"adminEstimatedTime"`
	AdminImpactLevel     *int       `json:"adminImpactLevel"`
	AdminUrgencyLevel    *int       `json:"adminUrgencyLevel"`
	AdminAssessmentDate  *time.Time `json:"adminAssessmentDate,omitempty"`
	AdminAssessmentNotes string     `json:"adminAssessmentNotes,omitempty"`
}

func value(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// UserSubtotal sums the five self-assessed factors.
func UserSubtotal(e *Evaluation) int {
	if e == nil {
		return 0
	}
	return value(e.UserDifficultyLevel) +
		value(e.UserEstimatedTime) +
		value(e.UserImpactLevel) +
		value(e.UserUrgencyLevel) +
		value(e.UserFormScore)
}

// AdminSubtotal sums the four reviewer factors. There is no admin FORM factor.
func AdminSubtotal(e *Evaluation) int {
	if e == nil {
		return 0
	}
	return value(e.AdminDifficultyLevel) +
		value(e.AdminEstimatedTime) +
		value(e.AdminImpactLevel) +
		value(e.AdminUrgencyLevel)
}

// FinalScore blends both subtotals 40/60 and rounds to two decimals.
// Both weights always apply, so an unreviewed case scores 40% of its user subtotal.
func FinalScore(e *Evaluation) float64 {
	return Round2(float64(UserSubtotal(e))*UserWeight + float64(AdminSubtotal(e))*AdminWeight)
}

// AdminReviewed reports whether any admin factor has been recorded.
func AdminReviewed(e *Evaluation) bool {
	if e == nil {
		return false
	}
	return e.AdminDifficultyLevel != nil ||
		e.AdminEstimatedTime != nil ||
		e.AdminImpactLevel != nil ||
		e.AdminUrgencyLevel != nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ResolveLabel returns the configured label for points in category.
// nil points resolve to LabelNotEvaluated; a missing category or unmatched
// value resolves to LabelUnknown.
func ResolveLabel(cfg Config, category Category, points *int) string {
	if points == nil {
		return LabelNotEvaluated
	}
	for _, opt := range cfg[category] {
		if opt.Points == *points {
			return opt.Label
		}
	}
	return LabelUnknown
}

// DeriveFormScore maps the selected FORM label to its points. When nothing
// matches it falls back to the Onsite option (points 2), then to the first
// configured option, then to FormOnsitePoints.
func DeriveFormScore(selectedLabel string, options []Option) int {
	for _, opt := range options {
		if opt.Label == selectedLabel {
			return opt.Points
		}
	}
	for _, opt := range options {
		if opt.Points == FormOnsitePoints {
			return opt.Points
		}
	}
	if len(options) > 0 {
		return options[0].Points
	}
	return FormOnsitePoints
}
