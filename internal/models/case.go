package models

import (
	"time"

	"gorm.io/gorm"
)

// Case types. The type is a tag only; scoring never depends on it.
const (
	CaseTypeDelivery    = "delivery"
	CaseTypeReceiving   = "receiving"
	CaseTypeDeployment  = "deployment"
	CaseTypeMaintenance = "maintenance"
	CaseTypeIncident    = "incident"
	CaseTypeWarranty    = "warranty"
	CaseTypeInternal    = "internal"
)

var CaseTypes = []string{
	CaseTypeDelivery,
	CaseTypeReceiving,
	CaseTypeDeployment,
	CaseTypeMaintenance,
	CaseTypeIncident,
	CaseTypeWarranty,
	CaseTypeInternal,
}

const (
	CaseStatusOpen       = "open"
	CaseStatusInProgress = "in_progress"
	CaseStatusCompleted  = "completed"
	CaseStatusCancelled  = "cancelled"
)

// Case is a work-tracking record carrying exactly one evaluation.
type Case struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Type        string          `gorm:"size:30;index;not null" json:"type"`
	Title       string          `gorm:"size:300;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Customer    string          `gorm:"size:200" json:"customer"`
	Location    string          `gorm:"size:300" json:"location"`
	Status      string          `gorm:"size:30;index;default:open" json:"status"`
	ReporterID  uint            `gorm:"index;not null" json:"reporter_id"`
	Reporter    *User           `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	HandlerName string          `gorm:"size:200" json:"handler_name"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Evaluation  *CaseEvaluation `gorm:"foreignKey:CaseID" json:"evaluation,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Case) TableName() string { return "cases" }

func IsValidCaseType(t string) bool {
	for _, v := range CaseTypes {
		if v == t {
			return true
		}
	}
	return false
}

func IsValidCaseStatus(s string) bool {
	switch s {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusCompleted, CaseStatusCancelled:
		return true
	}
	return false
}
