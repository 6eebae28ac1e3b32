package services

import (
	"net/http"
	"testing"

	"github.com/huangang/caseeval/internal/scoring"
)

func TestEvaluationConfigService_Snapshot(t *testing.T) {
	svc := NewEvaluationConfigService(newTestDB(t))

	cfg, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	expected := map[scoring.Category]int{
		scoring.CategoryDifficulty: 5,
		scoring.CategoryTime:       5,
		scoring.CategoryImpact:     5,
		scoring.CategoryUrgency:    5,
		scoring.CategoryForm:       2,
	}
	for category, count := range expected {
		if len(cfg[category]) != count {
			t.Errorf("%s has %d options, expected %d", category, len(cfg[category]), count)
		}
	}

	form := cfg[scoring.CategoryForm]
	if form[0].Label != "Offsite/Remote" || form[1].Label != "Onsite" {
		t.Errorf("FORM options out of order: %+v", form)
	}
	if got := scoring.ResolveLabel(cfg, scoring.CategoryDifficulty, intPtr(1)); got != "Rất dễ" {
		t.Errorf("DIFFICULTY 1 = %q, expected Rất dễ", got)
	}
}

func TestEvaluationConfigService_ListGrouped(t *testing.T) {
	svc := NewEvaluationConfigService(newTestDB(t))

	groups, err := svc.ListGrouped()
	if err != nil {
		t.Fatalf("ListGrouped() error: %v", err)
	}
	if len(groups) != len(scoring.Categories) {
		t.Fatalf("got %d groups, expected %d", len(groups), len(scoring.Categories))
	}
	for i, g := range groups {
		if g.Category != scoring.Categories[i] {
			t.Errorf("group %d = %s, expected %s", i, g.Category, scoring.Categories[i])
		}
	}
	if groups[4].MaxPoints != 2 {
		t.Errorf("FORM MaxPoints = %d, expected 2", groups[4].MaxPoints)
	}
}

func TestEvaluationConfigService_Create(t *testing.T) {
	svc := NewEvaluationConfigService(newTestDB(t))

	tests := []struct {
		name   string
		req    CreateOptionRequest
		status int
	}{
		{"unknown category", CreateOptionRequest{Category: "COST", Label: "x", Points: 1}, http.StatusBadRequest},
		{"form above max", CreateOptionRequest{Category: "FORM", Label: "Hybrid", Points: 3}, http.StatusBadRequest},
		{"duplicate points", CreateOptionRequest{Category: "IMPACT", Label: "Again", Points: 2}, http.StatusConflict},
		{"blank label", CreateOptionRequest{Category: "IMPACT", Label: "   ", Points: 2}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Create(&req)
			assertAppError(t, err, tt.status)
		})
	}

	if err := svc.Delete(firstOptionID(t, svc, scoring.CategoryImpact, 5)); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	option, err := svc.Create(&CreateOptionRequest{Category: "impact", Label: "Toàn hệ thống", Points: 5})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if option.Category != "IMPACT" || option.SortOrder != 5 {
		t.Errorf("option = %+v", option)
	}
}

func TestEvaluationConfigService_UpdateAndResolve(t *testing.T) {
	svc := NewEvaluationConfigService(newTestDB(t))
	id := firstOptionID(t, svc, scoring.CategoryUrgency, 5)

	label := "Cực kỳ khẩn cấp"
	if _, err := svc.Update(id, &UpdateOptionRequest{Label: &label}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	resolved, err := svc.ResolveLabel(scoring.CategoryUrgency, intPtr(5))
	if err != nil {
		t.Fatalf("ResolveLabel() error: %v", err)
	}
	if resolved.Label != label {
		t.Errorf("label = %q, expected %q", resolved.Label, label)
	}

	points := 4
	_, err = svc.Update(id, &UpdateOptionRequest{Points: &points})
	assertAppError(t, err, http.StatusConflict)

	resolved, _ = svc.ResolveLabel(scoring.CategoryUrgency, nil)
	if resolved.Label != scoring.LabelNotEvaluated {
		t.Errorf("nil points = %q, expected %q", resolved.Label, scoring.LabelNotEvaluated)
	}
	resolved, _ = svc.ResolveLabel(scoring.CategoryUrgency, intPtr(9))
	if resolved.Label != scoring.LabelUnknown {
		t.Errorf("unmatched points = %q, expected %q", resolved.Label, scoring.LabelUnknown)
	}

	_, err = svc.ResolveLabel("COST", intPtr(1))
	assertAppError(t, err, http.StatusBadRequest)
}

func TestEvaluationConfigService_DeleteKeepsLastOption(t *testing.T) {
	svc := NewEvaluationConfigService(newTestDB(t))

	if err := svc.Delete(firstOptionID(t, svc, scoring.CategoryForm, 1)); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	err := svc.Delete(firstOptionID(t, svc, scoring.CategoryForm, 2))
	assertAppError(t, err, http.StatusConflict)

	options, _ := svc.Options(scoring.CategoryForm)
	if len(options) != 1 || options[0].Points != 2 {
		t.Errorf("FORM options = %+v", options)
	}
}

func firstOptionID(t *testing.T, svc *EvaluationConfigService, category scoring.Category, points int) uint {
	t.Helper()
	options, err := svc.Options(category)
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	for _, o := range options {
		if o.Points == points {
			return o.ID
		}
	}
	t.Fatalf("no %s option worth %d", category, points)
	return 0
}
