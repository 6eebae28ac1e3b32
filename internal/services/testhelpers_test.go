package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/huangang/caseeval/internal/config"
	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the schema and
// default data in place.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := models.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Username: username,
		Password: hash,
		Role:     role,
		AuthType: "local",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func validCreateRequest() *CreateCaseRequest {
	return &CreateCaseRequest{
		Type:            models.CaseTypeDeployment,
		Title:           "Install access point at branch office",
		Customer:        "ACME",
		HandlerName:     "Nguyen Van A",
		DifficultyLevel: 3,
		EstimatedTime:   4,
		ImpactLevel:     2,
		UrgencyLevel:    3,
		FormLabel:       "Onsite",
	}
}

func mustCreateCase(t *testing.T, svc *CaseService, req *CreateCaseRequest, reporterID uint) *models.Case {
	t.Helper()
	c, err := svc.Create(req, reporterID)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return c
}

func adminAssessment(d, tm, i, u int) *AdminAssessmentRequest {
	return &AdminAssessmentRequest{
		DifficultyLevel: d,
		EstimatedTime:   tm,
		ImpactLevel:     i,
		UrgencyLevel:    u,
	}
}
