package scoring

import (
	"testing"
)

func intPtr(v int) *int { return &v }

func userOnly(d, t, i, u, f int) *Evaluation {
	return &Evaluation{
		UserDifficultyLevel: intPtr(d),
		UserEstimatedTime:   intPtr(t),
		UserImpactLevel:     intPtr(i),
		UserUrgencyLevel:    intPtr(u),
		UserFormScore:       intPtr(f),
	}
}

func withAdmin(e *Evaluation, d, t, i, u int) *Evaluation {
	e.AdminDifficultyLevel = intPtr(d)
	e.AdminEstimatedTime = intPtr(t)
	e.AdminImpactLevel = intPtr(i)
	e.AdminUrgencyLevel = intPtr(u)
	return e
}

func testConfig() Config {
	return Config{
		CategoryDifficulty: {
			{ID: 1, Label: "Rất dễ", Points: 1},
			{ID: 2, Label: "Dễ", Points: 2},
			{ID: 3, Label: "Trung bình", Points: 3},
			{ID: 4, Label: "Khó", Points: 4},
			{ID: 5, Label: "Rất khó", Points: 5},
		},
		CategoryForm: {
			{ID: 6, Label: "Offsite/Remote", Points: 1},
			{ID: 7, Label: "Onsite", Points: 2},
		},
	}
}

func TestScoring_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		eval      *Evaluation
		wantUser  int
		wantAdmin int
		wantFinal float64
	}{
		{
			name:      "user and admin reviewed",
			eval:      withAdmin(userOnly(3, 2, 4, 3, 2), 4, 3, 3, 2),
			wantUser:  14,
			wantAdmin: 12,
			wantFinal: 12.80,
		},
		{
			name:      "all fields absent",
			eval:      &Evaluation{},
			wantUser:  0,
			wantAdmin: 0,
			wantFinal: 0,
		},
		{
			name:      "nil evaluation",
			eval:      nil,
			wantUser:  0,
			wantAdmin: 0,
			wantFinal: 0,
		},
		{
			name:      "not yet reviewed",
			eval:      userOnly(3, 3, 3, 3, 2),
			wantUser:  14,
			wantAdmin: 0,
			wantFinal: 5.60,
		},
		{
			name:      "maximum in range",
			eval:      withAdmin(userOnly(5, 5, 5, 5, 2), 5, 5, 5, 5),
			wantUser:  22,
			wantAdmin: 20,
			wantFinal: 20.80,
		},
		{
			name:      "out of range summed as stored",
			eval:      userOnly(9, 1, 1, 1, 1),
			wantUser:  13,
			wantAdmin: 0,
			wantFinal: 5.20,
		},
		{
			name: "partially filled legacy record",
			eval: &Evaluation{
				UserDifficultyLevel: intPtr(4),
				AdminImpactLevel:    intPtr(3),
			},
			wantUser:  4,
			wantAdmin: 3,
			wantFinal: 3.40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserSubtotal(tt.eval); got != tt.wantUser {
				t.Errorf("UserSubtotal() = %d, expected %d", got, tt.wantUser)
			}
			if got := AdminSubtotal(tt.eval); got != tt.wantAdmin {
				t.Errorf("AdminSubtotal() = %d, expected %d", got, tt.wantAdmin)
			}
			if got := FinalScore(tt.eval); got != tt.wantFinal {
				t.Errorf("FinalScore() = %v, expected %v", got, tt.wantFinal)
			}
		})
	}
}

func TestSubtotals_RangeOverValidInputs(t *testing.T) {
	for d := 1; d <= 5; d++ {
		for tm := 1; tm <= 5; tm++ {
			for f := 1; f <= 2; f++ {
				e := withAdmin(userOnly(d, tm, 5, 1, f), d, tm, 1, 5)
				if u := UserSubtotal(e); u < 0 || u > 22 {
					t.Fatalf("UserSubtotal(%+v) = %d, out of [0,22]", e, u)
				}
				if a := AdminSubtotal(e); a < 0 || a > 20 {
					t.Fatalf("AdminSubtotal(%+v) = %d, out of [0,20]", e, a)
				}
			}
		}
	}
}

func TestFinalScore_MonotonicPerFactor(t *testing.T) {
	setters := map[string]func(e *Evaluation, v int){
		"user difficulty":  func(e *Evaluation, v int) { e.UserDifficultyLevel = intPtr(v) },
		"user time":        func(e *Evaluation, v int) { e.UserEstimatedTime = intPtr(v) },
		"user impact":      func(e *Evaluation, v int) { e.UserImpactLevel = intPtr(v) },
		"user urgency":     func(e *Evaluation, v int) { e.UserUrgencyLevel = intPtr(v) },
		"user form":        func(e *Evaluation, v int) { e.UserFormScore = intPtr(v) },
		"admin difficulty": func(e *Evaluation, v int) { e.AdminDifficultyLevel = intPtr(v) },
		"admin time":       func(e *Evaluation, v int) { e.AdminEstimatedTime = intPtr(v) },
		"admin impact":     func(e *Evaluation, v int) { e.AdminImpactLevel = intPtr(v) },
		"admin urgency":    func(e *Evaluation, v int) { e.AdminUrgencyLevel = intPtr(v) },
	}

	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			prev := -1.0
			for v := 0; v <= 5; v++ {
				e := withAdmin(userOnly(2, 3, 1, 4, 1), 3, 2, 4, 1)
				set(e, v)
				score := FinalScore(e)
				if score < prev {
					t.Errorf("FinalScore decreased from %v to %v at value %d", prev, score, v)
				}
				prev = score
			}
		})
	}
}

func TestFinalScore_Idempotent(t *testing.T) {
	e := withAdmin(userOnly(1, 2, 3, 4, 1), 2, 2, 5, 3)
	first := FinalScore(e)
	for i := 0; i < 3; i++ {
		if got := FinalScore(e); got != first {
			t.Errorf("FinalScore() call %d = %v, expected %v", i, got, first)
		}
	}
	if UserSubtotal(e) != UserSubtotal(e) || AdminSubtotal(e) != AdminSubtotal(e) {
		t.Error("subtotals should be stable across calls")
	}
}

func TestAdminReviewed(t *testing.T) {
	if AdminReviewed(nil) {
		t.Error("nil evaluation should not be reviewed")
	}
	if AdminReviewed(userOnly(1, 1, 1, 1, 1)) {
		t.Error("user-only evaluation should not be reviewed")
	}
	e := userOnly(1, 1, 1, 1, 1)
	e.AdminUrgencyLevel = intPtr(2)
	if !AdminReviewed(e) {
		t.Error("a single admin factor marks the evaluation reviewed")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{5.6000000000000005, 5.6},
		{12.799999999999999, 12.8},
		{1.005, 1.0},
		{0.125, 0.13},
		{3.14159, 3.14},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.expected {
			t.Errorf("Round2(%v) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}

func TestResolveLabel(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name     string
		cfg      Config
		category Category
		points   *int
		expected string
	}{
		{"nil points", cfg, CategoryDifficulty, nil, LabelNotEvaluated},
		{"configured value", cfg, CategoryDifficulty, intPtr(3), "Trung bình"},
		{"highest value", cfg, CategoryDifficulty, intPtr(5), "Rất khó"},
		{"form onsite", cfg, CategoryForm, intPtr(2), "Onsite"},
		{"unmatched value", cfg, CategoryDifficulty, intPtr(9), LabelUnknown},
		{"missing category", cfg, CategoryUrgency, intPtr(1), LabelUnknown},
		{"nil config", nil, CategoryDifficulty, intPtr(1), LabelUnknown},
		{"nil config nil points", nil, CategoryImpact, nil, LabelNotEvaluated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLabel(tt.cfg, tt.category, tt.points); got != tt.expected {
				t.Errorf("ResolveLabel() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestDeriveFormScore(t *testing.T) {
	standard := []Option{
		{Label: "Offsite/Remote", Points: 1},
		{Label: "Onsite", Points: 2},
	}

	tests := []struct {
		name     string
		label    string
		options  []Option
		expected int
	}{
		{"onsite", "Onsite", standard, 2},
		{"offsite", "Offsite/Remote", standard, 1},
		{"case sensitive miss falls back to onsite", "onsite", standard, 2},
		{"empty label falls back", "", standard, 2},
		{"no points 2 falls back to first", "Hybrid", []Option{{Label: "Remote", Points: 1}, {Label: "Other", Points: 3}}, 1},
		{"first match wins", "Dup", []Option{{Label: "Dup", Points: 1}, {Label: "Dup", Points: 2}}, 1},
		{"empty options", "Onsite", nil, FormOnsitePoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveFormScore(tt.label, tt.options); got != tt.expected {
				t.Errorf("DeriveFormScore(%q) = %d, expected %d", tt.label, got, tt.expected)
			}
		})
	}
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Category("SPEED").Valid() {
		t.Error("unknown category should not be valid")
	}
	if CategoryForm.MaxPoints() != 2 {
		t.Errorf("FORM max points = %d, expected 2", CategoryForm.MaxPoints())
	}
	if CategoryImpact.MaxPoints() != 5 {
		t.Errorf("IMPACT max points = %d, expected 5", CategoryImpact.MaxPoints())
	}
}

func TestExplain(t *testing.T) {
	cfg := testConfig()
	e := withAdmin(userOnly(3, 2, 4, 3, 2), 4, 3, 3, 2)

	b := Explain(cfg, e)
	if b.UserSubtotal != 14 || b.AdminSubtotal != 12 {
		t.Errorf("subtotals = %d/%d, expected 14/12", b.UserSubtotal, b.AdminSubtotal)
	}
	if b.FinalScore != 12.8 {
		t.Errorf("FinalScore = %v, expected 12.8", b.FinalScore)
	}
	if !b.AdminReviewed {
		t.Error("AdminReviewed should be true")
	}
	if b.Labels.UserDifficulty != "Trung bình" {
		t.Errorf("UserDifficulty label = %q", b.Labels.UserDifficulty)
	}
	if b.Labels.UserForm != "Onsite" {
		t.Errorf("UserForm label = %q", b.Labels.UserForm)
	}
	if b.Labels.UserTime != LabelUnknown {
		t.Errorf("UserTime label = %q, expected unknown for missing category", b.Labels.UserTime)
	}

	empty := Explain(cfg, nil)
	if empty.FinalScore != 0 || empty.AdminReviewed {
		t.Errorf("empty breakdown = %+v", empty)
	}
	if empty.Labels.AdminDifficulty != LabelNotEvaluated {
		t.Errorf("AdminDifficulty label = %q, expected %q", empty.Labels.AdminDifficulty, LabelNotEvaluated)
	}
}
