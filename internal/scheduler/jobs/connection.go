package jobs

import (
	"context"
	"errors"

	"github.com/wonny/mdhealth/pkg/logger"
)

// Check probes one dependency
type Check func(ctx context.Context) error

// ConnectionCheckJob probes external dependencies (IBP, Postgres, Redis) so outages show up in logs
// before the next analysis run fails.
type ConnectionCheckJob struct {
	checks map[string]Check
	logger *logger.Logger
}

// NewConnectionCheckJob creates the dependency probe job
func NewConnectionCheckJob(checks map[string]Check, log *logger.Logger) *ConnectionCheckJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConnectionCheckJob{checks: checks, logger: log}
}

// Name returns the job name
func (j *ConnectionCheckJob) Name() string {
	return "connection_check"
}

// Schedule returns the cron schedule (every 15 minutes)
func (j *ConnectionCheckJob) Schedule() string {
	return "0 */15 * * * *"
}

// Run executes every check and joins the failures
func (j *ConnectionCheckJob) Run(ctx context.Context) error {
	var errs []error
	for name, check := range j.checks {
		if err := check(ctx); err != nil {
			j.logger.WithField("dependency", name).WithError(err).Warn("Dependency check failed")
			errs = append(errs, err)
			continue
		}
		j.logger.WithField("dependency", name).Debug("Dependency reachable")
	}
	return errors.Join(errs...)
}
