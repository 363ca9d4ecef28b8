package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	job     *Job
	timeout time.Duration
	log     *logrus.Logger
}

// NewScheduler validates schedule (standard five field cron) and registers job.
func NewScheduler(schedule string, job *Job, log *logrus.Logger) (*Scheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Scheduler{
		cron:    cron.New(),
		job:     job,
		timeout: 2 * time.Minute,
		log:     log,
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.job.Run(ctx); err != nil {
		s.log.WithError(err).Error("reminder run failed")
	}
}

// Start runs the scheduler until ctx is done, then waits for a running job
// to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	entries := s.cron.Entries()
	if len(entries) > 0 {
		s.log.WithField("next_run", entries[0].Next.Format(time.RFC3339)).Info("reminder scheduler started")
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("reminder scheduler stopped")
}
