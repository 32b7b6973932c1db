package jobs

import (
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs. Jobs go through the public
// DealService operations only; the rental engine stays request/response.
type JobRunner struct {
	store  repository.Store
	deals  service.DealService
	clock  service.Clock
	config *config.Config
}

func NewJobRunner(store repository.Store, deals service.DealService, clock service.Clock, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:  store,
		deals:  deals,
		clock:  clock,
		config: cfg,
	}
}

func (jr *JobRunner) Config() *config.Config { return jr.config }

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.MarkReturnDue()
}
