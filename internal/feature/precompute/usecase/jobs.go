package usecase

import (
	"context"
	"errors"
)

// FullUpdateJob runs RunFullUpdate on a schedule. A firing that overlaps a
// manual refresh is skipped without error.
type FullUpdateJob struct {
	Scheduler *Scheduler
}

// Name implements scheduler.Job.
func (FullUpdateJob) Name() string { return JobFullUpdate }

// Run implements scheduler.Job.
func (j FullUpdateJob) Run(ctx context.Context) error {
	err := j.Scheduler.RunFullUpdate(ctx)
	if errors.Is(err, ErrAlreadyRunning) {
		j.Scheduler.logger.Info().Msg("scheduled update skipped, another run in progress")
		return nil
	}
	return err
}
