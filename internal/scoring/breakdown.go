package scoring

// Labels holds the resolved display label of every factor.
type Labels struct {
	UserDifficulty  string `json:"user_difficulty"`
	UserTime        string `json:"user_time"`
	UserImpact      string `json:"user_impact"`
	UserUrgency     string `json:"user_urgency"`
	UserForm        string `json:"user_form"`
	AdminDifficulty string `json:"admin_difficulty"`
	AdminTime       string `json:"admin_time"`
	AdminImpact     string `json:"admin_impact"`
	AdminUrgency    string `json:"admin_urgency"`
}

// Breakdown is the derived view of an evaluation used by list, detail and
// report consumers.
type Breakdown struct {
	UserSubtotal  int     `json:"user_subtotal"`
	AdminSubtotal int     `json:"admin_subtotal"`
	FinalScore    float64 `json:"final_score"`
	AdminReviewed bool    `json:"admin_reviewed"`
	Labels        Labels  `json:"labels"`
}

// Explain computes subtotals, the blended score and resolved labels in one pass.
func Explain(cfg Config, e *Evaluation) Breakdown {
	if e == nil {
		e = &Evaluation{}
	}
	return Breakdown{
		UserSubtotal:  UserSubtotal(e),
		AdminSubtotal: AdminSubtotal(e),
		FinalScore:    FinalScore(e),
		AdminReviewed: AdminReviewed(e),
		Labels: Labels{
			UserDifficulty:  ResolveLabel(cfg, CategoryDifficulty, e.UserDifficultyLevel),
			UserTime:        ResolveLabel(cfg, CategoryTime, e.UserEstimatedTime),
			UserImpact:      ResolveLabel(cfg, CategoryImpact, e.UserImpactLevel),
			UserUrgency:     ResolveLabel(cfg, CategoryUrgency, e.UserUrgencyLevel),
			UserForm:        ResolveLabel(cfg, CategoryForm, e.UserFormScore),
			AdminDifficulty: ResolveLabel(cfg, CategoryDifficulty, e.AdminDifficultyLevel),
			AdminTime:       ResolveLabel(cfg, CategoryTime, e.AdminEstimatedTime),
			AdminImpact:     ResolveLabel(cfg, CategoryImpact, e.AdminImpactLevel),
			AdminUrgency:    ResolveLabel(cfg, CategoryUrgency, e.AdminUrgencyLevel),
		},
	}
}
