package jobs

import (
	"context"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/pkg/logger"
)

// Runner performs one analysis run
type Runner interface {
	Run(ctx context.Context) (*contracts.AnalysisRun, error)
}

// AnalysisJob reloads all datasets and re-analyzes them
type AnalysisJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger
}

// NewAnalysisJob creates the periodic analysis job
func NewAnalysisJob(runner Runner, schedule string, log *logger.Logger) *AnalysisJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalysisJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "quality_analysis"
}

// Schedule returns the configured cron schedule
func (j *AnalysisJob) Schedule() string {
	return j.schedule
}

// Run executes one analysis pass
func (j *AnalysisJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled analysis")

	run, err := j.runner.Run(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"datasets": len(run.Reports),
		"issues":   run.TotalIssues(),
	}).Info("Scheduled analysis completed")

	return nil
}
