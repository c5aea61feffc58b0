package domain

// Level is a three-step severity/impact scale
type Level string

const (
	LevelHigh Level = "high"
	LevelMed  Level = "med"
	LevelLow  Level = "low"
)

// Rank orders levels, high first
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 0
	case LevelMed:
		return 1
	default:
		return 2
	}
}

// Risk is one diagnosed risk, derived from an active flag
type Risk struct {
	Flag     FlagCode `json:"flag"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Severity Level    `json:"severity"`
}

// Improvement is the remediation suggested for an active flag
type Improvement struct {
	Flag   FlagCode `json:"flag"`
	Title  string   `json:"title"`
	Detail string   `json:"detail"`
	Impact Level    `json:"impact"`
}

// DiagnosisReport is the narrative derived from Analytics and score
type DiagnosisReport struct {
	Headline          string        `json:"headline"`
	Summary           string        `json:"summary"`
	Score             int           `json:"score"`
	Bucket            string        `json:"bucket"`
	Risks             []Risk        `json:"risks"`
	Improvements      []Improvement `json:"improvements"`
	ActionPlan7Days   []string      `json:"action_plan_7_days"`
	TransparencyNotes []string      `json:"transparency_notes"`
}
