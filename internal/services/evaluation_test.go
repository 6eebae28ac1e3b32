package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/huangang/caseeval/internal/models"
)

func TestEvaluationService_RecordAdminAssessment(t *testing.T) {
	db := newTestDB(t)
	caseSvc := NewCaseService(db)
	svc := NewEvaluationService(db)
	reporter := createTestUser(t, db, "reporter01", models.RoleUser)
	admin := createTestUser(t, db, "lead", models.RoleAdmin)
	c := mustCreateCase(t, caseSvc, validCreateRequest(), reporter.ID)

	req := adminAssessment(3, 3, 3, 3)
	req.Notes = "matches the site report"
	result, err := svc.RecordAdminAssessment(c.ID, req, admin.ID)
	if err != nil {
		t.Fatalf("RecordAdminAssessment() error: %v", err)
	}

	b := result.Breakdown
	if b.UserSubtotal != 14 || b.AdminSubtotal != 12 || b.FinalScore != 12.8 {
		t.Errorf("breakdown = %+v, expected 14/12/12.8", b)
	}
	if !b.AdminReviewed {
		t.Error("AdminReviewed should be true")
	}
	if b.Labels.AdminDifficulty != "Trung bình" {
		t.Errorf("AdminDifficulty label = %q", b.Labels.AdminDifficulty)
	}

	var stored models.CaseEvaluation
	db.Where("case_id = ?", c.ID).First(&stored)
	if stored.AdminTotalScore != 12 || stored.FinalScore != 12.8 {
		t.Errorf("stored totals = %d/%v", stored.AdminTotalScore, stored.FinalScore)
	}
	if stored.AdminReviewerID == nil || *stored.AdminReviewerID != admin.ID {
		t.Errorf("AdminReviewerID = %v, expected %d", stored.AdminReviewerID, admin.ID)
	}
	if stored.AdminAssessmentDate == nil {
		t.Error("AdminAssessmentDate should be set")
	}
	if stored.AdminAssessmentNotes != "matches the site report" {
		t.Errorf("notes = %q", stored.AdminAssessmentNotes)
	}
	if stored.UserTotalScore != 14 || *stored.UserDifficultyLevel != 3 {
		t.Error("user side must not change")
	}
}

func TestEvaluationService_OverwriteIsAudited(t *testing.T) {
	db := newTestDB(t)
	InitSystemLogger(db)
	t.Cleanup(func() { InitSystemLogger(nil) })

	caseSvc := NewCaseService(db)
	svc := NewEvaluationService(db)
	reporter := createTestUser(t, db, "reporter01", models.RoleUser)
	c := mustCreateCase(t, caseSvc, validCreateRequest(), reporter.ID)

	if _, err := svc.RecordAdminAssessment(c.ID, adminAssessment(3, 3, 3, 3), 1); err != nil {
		t.Fatalf("first assessment: %v", err)
	}
	result, err := svc.RecordAdminAssessment(c.ID, adminAssessment(5, 5, 5, 5), 1)
	if err != nil {
		t.Fatalf("second assessment: %v", err)
	}
	if result.Breakdown.AdminSubtotal != 20 || result.Breakdown.FinalScore != 17.6 {
		t.Errorf("second assessment should replace the first, got %+v", result.Breakdown)
	}

	var actions []string
	db.Model(&models.SystemLog{}).Where("case_id = ? AND module = ?", c.ID, "evaluation").
		Order("id").Pluck("action", &actions)
	if len(actions) != 2 || actions[0] != "admin_assess" || actions[1] != "admin_reassess" {
		t.Errorf("audit actions = %v", actions)
	}
}

func TestEvaluationService_RecordAdminAssessment_Errors(t *testing.T) {
	db := newTestDB(t)
	caseSvc := NewCaseService(db)
	svc := NewEvaluationService(db)
	reporter := createTestUser(t, db, "reporter01", models.RoleUser)
	c := mustCreateCase(t, caseSvc, validCreateRequest(), reporter.ID)

	_, err := svc.RecordAdminAssessment(c.ID, adminAssessment(0, 3, 3, 3), 1)
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.RecordAdminAssessment(c.ID, adminAssessment(3, 3, 3, 6), 1)
	assertAppError(t, err, http.StatusBadRequest)

	if _, err := svc.RecordAdminAssessment(9999, adminAssessment(3, 3, 3, 3), 1); err == nil {
		t.Error("unknown case should fail")
	}
}

func TestEvaluationService_GetBreakdown_LiveConfig(t *testing.T) {
	db := newTestDB(t)
	caseSvc := NewCaseService(db)
	svc := NewEvaluationService(db)
	reporter := createTestUser(t, db, "reporter01", models.RoleUser)
	c := mustCreateCase(t, caseSvc, validCreateRequest(), reporter.ID)

	db.Model(&models.EvaluationOption{}).
		Where("category = ? AND points = ?", "DIFFICULTY", 3).
		Update("label", "Vừa phải")

	result, err := svc.GetBreakdown(c.ID, Viewer{UserID: reporter.ID})
	if err != nil {
		t.Fatalf("GetBreakdown() error: %v", err)
	}
	if result.Breakdown.Labels.UserDifficulty != "Vừa phải" {
		t.Errorf("label edits should apply immediately, got %q", result.Breakdown.Labels.UserDifficulty)
	}
	if result.CaseCode != c.Code {
		t.Errorf("CaseCode = %q, expected %q", result.CaseCode, c.Code)
	}

	other := createTestUser(t, db, "reporter02", models.RoleUser)
	_, err = svc.GetBreakdown(c.ID, Viewer{UserID: other.ID})
	assertAppError(t, err, 404)
}

func TestEvaluationService_Recalculate(t *testing.T) {
	db := newTestDB(t)
	caseSvc := NewCaseService(db)
	svc := NewEvaluationService(db)
	reporter := createTestUser(t, db, "reporter01", models.RoleUser)

	for i := 0; i < 5; i++ {
		mustCreateCase(t, caseSvc, validCreateRequest(), reporter.ID)
	}
	db.Model(&models.CaseEvaluation{}).Where("id IN ?", []int{2, 4}).
		UpdateColumns(map[string]interface{}{"user_total_score": 0, "final_score": 99})

	result, err := svc.Recalculate(2)
	if err != nil {
		t.Fatalf("Recalculate() error: %v", err)
	}
	if result.Scanned != 5 || result.Updated != 2 {
		t.Errorf("result = %+v, expected 5 scanned and 2 updated", result)
	}

	var drifted int64
	db.Model(&models.CaseEvaluation{}).Where("user_total_score <> ? OR final_score <> ?", 14, 5.6).Count(&drifted)
	if drifted != 0 {
		t.Errorf("%d evaluations still drifted", drifted)
	}

	again, err := svc.Recalculate(0)
	if err != nil {
		t.Fatalf("Recalculate() error: %v", err)
	}
	if again.Updated != 0 {
		t.Errorf("second run updated %d rows, expected 0", again.Updated)
	}
}

func TestEvaluationService_ProcessRecalculateTask(t *testing.T) {
	db := newTestDB(t)
	svc := NewEvaluationService(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.ProcessRecalculateTask(ctx, &RecalculateTask{}); err == nil {
		t.Error("cancelled context should abort the task")
	}

	if err := svc.ProcessRecalculateTask(context.Background(), &RecalculateTask{BatchSize: 10}); err != nil {
		t.Errorf("ProcessRecalculateTask() error: %v", err)
	}
}
