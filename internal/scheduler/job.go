package scheduler

import (
	"context"
	"time"
)

// MaxHistory is how many results are kept per job
const MaxHistory = 100

// Job is a unit of recurring work: the periodic analysis run
// (jobs.AnalysisJob) and the source/cache reachability probe
// (jobs.ConnectionCheckJob).
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run gets the scheduler context; it is cancelled on Stop and a
	// cancelled run is not retried.
	Run(ctx context.Context) error

	// Schedule is a six-field cron expression (with seconds) or a
	// descriptor such as "@daily" or "@every 15m".
	Schedule() string
}

// JobResult records one execution including its retries
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"` // last attempt's error
}

// JobHistory is a bounded, oldest-first list of results
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond MaxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if n := len(h.Results); n > MaxHistory {
		h.Results = h.Results[n-MaxHistory:]
	}
}

// GetLatestResults returns up to n most recent results, oldest first
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns every failed result
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// LastFailure returns the most recent failed result
func (h *JobHistory) LastFailure() (JobResult, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if !h.Results[i].Success {
			return h.Results[i], true
		}
	}
	return JobResult{}, false
}

// GetSuccessRate is the share of successful results (0.0 - 1.0); 0 with no history
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	ok := len(h.Results) - len(h.GetFailedResults())
	return float64(ok) / float64(len(h.Results))
}
