package contracts

import "time"

// AnalysisRun is one complete load-and-analyze pass over all datasets.
// Runs are replaced wholesale; nothing is accumulated across runs.
type AnalysisRun struct {
	ID        string                   `json:"id"`
	Source    string                   `json:"source"`
	StartedAt time.Time                `json:"started_at"`
	Duration  time.Duration            `json:"duration"`
	Scores    map[string]float64       `json:"scores"`
	Reports   map[string]QualityReport `json:"reports"`
	Missing   []string                 `json:"missing,omitempty"` // 소스에서 받지 못한 데이터셋

	ProfilesHash string `json:"profiles_hash,omitempty"` // 분석에 사용된 프로파일 레지스트리 지문
}

// DatasetNames returns analyzed dataset names in lexical order
func (r *AnalysisRun) DatasetNames() []string {
	if r == nil {
		return nil
	}
	return SortedNames(r.Reports)
}

// Only returns a copy of the run restricted to the given dataset types.
// With no types the run itself is returned.
func (r *AnalysisRun) Only(types ...string) *AnalysisRun {
	if r == nil || len(types) == 0 {
		return r
	}
	out := *r
	out.Scores = make(map[string]float64, len(types))
	out.Reports = make(map[string]QualityReport, len(types))
	out.Missing = nil
	for _, t := range types {
		if rep, ok := r.Reports[t]; ok {
			out.Reports[t] = rep
			out.Scores[t] = r.Scores[t]
		}
	}
	for _, t := range r.Missing {
		if _, ok := out.Reports[t]; ok {
			out.Missing = append(out.Missing, t)
		}
	}
	return &out
}

// TotalIssues counts issues across all datasets
func (r *AnalysisRun) TotalIssues() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, rep := range r.Reports {
		n += len(rep.Issues)
	}
	return n
}

// DatasetIssue is an issue tagged with the dataset it came from
type DatasetIssue struct {
	DataType string `json:"data_type"`
	Issue
}

// AllIssues flattens issues, datasets in lexical order, each dataset's order kept
func (r *AnalysisRun) AllIssues() []DatasetIssue {
	var out []DatasetIssue
	for _, name := range r.DatasetNames() {
		for _, is := range r.Reports[name].Issues {
			out = append(out, DatasetIssue{DataType: name, Issue: is})
		}
	}
	return out
}
