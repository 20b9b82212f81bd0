package contracts

// Recommendation is a remediation suggestion derived from a quality report
type Recommendation struct {
	DataType       string   `json:"data_type"`
	FocusArea      string   `json:"focus_area"`
	Recommendation string   `json:"recommendation"`
	Priority       Severity `json:"priority"`
}

// HealthStatus bands the overall score
type HealthStatus string

const (
	StatusExcellent      HealthStatus = "excellent"
	StatusGood           HealthStatus = "good"
	StatusNeedsAttention HealthStatus = "needs_attention"
	StatusCritical       HealthStatus = "critical"
)

// Summary is the executive view of one analysis run
type Summary struct {
	Overall           float64      `json:"overall"`
	Datasets          int          `json:"datasets"`
	Acceptable        int          `json:"acceptable"`
	Target            float64      `json:"target"`
	ImprovementNeeded float64      `json:"improvement_needed"`
	Status            HealthStatus `json:"status"`
	Weakest           string       `json:"weakest,omitempty"`
	Strongest         string       `json:"strongest,omitempty"`
}
