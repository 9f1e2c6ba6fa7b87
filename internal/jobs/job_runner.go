package jobs

import (
	"fmt"
	"time"

	"book-network-backend/internal/config"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/service"
)

// jobTimeout bounds a single job execution.
const jobTimeout = 5 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Auth service.AuthService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	start := time.Now()
	logger.Info("Starting job", "job", jobName)
	if err := jobFunc(); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// RunByName runs the job registered under name once.
func (jr *JobRunner) RunByName(name string) error {
	switch name {
	case JobPurgeExpiredTokens:
		return jr.PurgeExpiredTokens()
	default:
		return fmt.Errorf("unknown job %q, available: %s", name, JobPurgeExpiredTokens)
	}
}
